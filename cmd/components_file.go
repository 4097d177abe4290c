package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newComponentsFileCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "components-file",
		Aliases: []string{"map"},
		Short:   "Write the component map file",
		Long: `Scan the component library once and write the component map, a JSON
object keyed by "@" + handle with the template path and default context of
every component and variant.

Writing is best effort: a failure is logged and the command still succeeds.

Examples:
  swatch components-file
  SWATCH_MAP_FILE=build/components.json swatch components-file`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			_, m, written, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			if written {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(m), a.syncer.File())
			}
			return nil
		},
	}
}
