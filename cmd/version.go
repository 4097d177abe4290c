package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/swatch/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		format   string
		short    bool
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display version information for swatch: the version, git commit, build
time, Go version and target platform.

Examples:
  swatch version                # Show version
  swatch version --short        # Version and short commit only
  swatch version --detailed     # Every field, one per line
  swatch version --format json  # Output as JSON`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			out := cmd.OutOrStdout()

			if format == "json" {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(struct {
					version.Info
					IsRelease bool `json:"is_release"`
				}{info, info.IsRelease()})
			}

			switch {
			case short:
				fmt.Fprintln(out, info.Short())
			case detailed:
				fmt.Fprintln(out, info.String())
				if info.IsRelease() {
					fmt.Fprintln(out, "Build type: release")
				} else {
					fmt.Fprintln(out, "Build type: development")
				}
			default:
				fmt.Fprintf(out, "swatch %s\n", info.Short())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed version information")

	AddFlagValidation(cmd.Flags(), "format", ValidateChoice("format", "text", "json"))

	return cmd
}
