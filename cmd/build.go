package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newBuildCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Build the static site",
		Long: `Load the component library, write the component map, render every page
template to the output directory and copy the passthrough assets.

Pages whose file or directory name starts with "_" are layouts and partials
and are not written.

Examples:
  swatch build                    # Build to the configured output
  swatch build --output dist      # Build to a specific directory
  swatch build --minify           # Minify rendered pages`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.v.BindPFlag("site.output", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			if err := opts.v.BindPFlag("site.minify", cmd.Flags().Lookup("minify")); err != nil {
				return err
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			_, m, written, err := a.load(ctx)
			if err != nil {
				return err
			}

			report, err := a.buildSite(ctx, m, written)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Built %d pages and %d assets to %s in %s\n",
				len(report.Pages), len(report.Assets), a.path(a.cfg.Site.Output),
				report.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output directory (overrides site.output)")
	cmd.Flags().Bool("minify", false, "Minify rendered HTML (overrides site.minify)")

	return cmd
}
