package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/swatch/internal/componentmap"
	"github.com/conneroisu/swatch/internal/types"
)

type listOptions struct {
	format   string
	variants bool
	all      bool
}

type componentListing struct {
	Handle   string           `json:"handle" yaml:"handle"`
	Title    string           `json:"title" yaml:"title"`
	Path     string           `json:"path" yaml:"path"`
	Status   string           `json:"status,omitempty" yaml:"status,omitempty"`
	Hidden   bool             `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Variants []variantListing `json:"variants,omitempty" yaml:"variants,omitempty"`
}

type variantListing struct {
	Handle  string `json:"handle" yaml:"handle"`
	Title   string `json:"title" yaml:"title"`
	Path    string `json:"path" yaml:"path"`
	Default bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

func newListCommand(opts *rootOptions) *cobra.Command {
	lo := &listOptions{}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"l", "ls"},
		Short:   "List all discovered components",
		Long: `List the components of the library with their handles, titles and view paths.
Hidden components are left out unless --all is given.

Examples:
  swatch list                     # Table of components
  swatch list --variants          # Include variants
  swatch list -o json             # Output as JSON
  swatch list -o yaml --all       # Output as YAML, hidden components included`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			event, err := a.scanner.ScanDirectory(cmd.Context())
			if err != nil {
				return err
			}

			listings := buildListings(event.Components, lo)
			out := cmd.OutOrStdout()

			switch lo.format {
			case "json":
				return outputListJSON(out, listings)
			case "yaml":
				return outputListYAML(out, listings)
			default:
				if len(listings) == 0 {
					fmt.Fprintln(out, "No components found.")
					return nil
				}
				return outputListTable(out, listings, lo.variants)
			}
		},
	}

	cmd.Flags().StringVarP(&lo.format, "output", "o", "table", "Output format (table|json|yaml)")
	cmd.Flags().BoolVar(&lo.variants, "variants", false, "Include component variants")
	cmd.Flags().BoolVarP(&lo.all, "all", "a", false, "Include hidden components")

	AddFlagValidation(cmd.Flags(), "output", ValidateChoice("output format", "table", "json", "yaml"))

	return cmd
}

func buildListings(components []types.Component, lo *listOptions) []componentListing {
	listings := make([]componentListing, 0, len(components))
	for _, c := range components {
		if c.Hidden && !lo.all {
			continue
		}
		listing := componentListing{
			Handle: componentmap.Key(c.Handle),
			Title:  c.Title,
			Path:   c.RelViewPath,
			Status: c.Status,
			Hidden: c.Hidden,
		}
		if lo.variants {
			for _, v := range c.Variants {
				listing.Variants = append(listing.Variants, variantListing{
					Handle:  componentmap.Key(v.Handle),
					Title:   v.Title,
					Path:    v.RelViewPath,
					Default: v.IsDefault,
				})
			}
		}
		listings = append(listings, listing)
	}
	return listings
}

func outputListJSON(w io.Writer, listings []componentListing) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(listings)
}

func outputListYAML(w io.Writer, listings []componentListing) error {
	encoder := yaml.NewEncoder(w)
	defer encoder.Close()
	return encoder.Encode(listings)
}

func outputListTable(w io.Writer, listings []componentListing, withVariants bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "HANDLE\tTITLE\tPATH\tSTATUS")
	for _, l := range listings {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", l.Handle, l.Title, l.Path, l.Status)
		if withVariants {
			for _, v := range l.Variants {
				if v.Default {
					continue
				}
				fmt.Fprintf(tw, "  %s\t%s\t%s\t\n", v.Handle, v.Title, v.Path)
			}
		}
	}

	return tw.Flush()
}
