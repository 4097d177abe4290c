package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/swatch/internal/componentmap"
)

func newRenderCommand(opts *rootOptions) *cobra.Command {
	var (
		data    string
		partial bool
	)

	cmd := &cobra.Command{
		Use:     "render <handle>",
		Aliases: []string{"r"},
		Short:   "Render one component to stdout",
		Long: `Render a component or variant by handle, exactly as the render tag would.
The leading "@" of the handle is optional.

Without --partial the component sees only the given data. With --partial the
data is merged over the component's default context.

Examples:
  swatch render @button
  swatch render button --data '{"label": "Save"}'
  swatch render button--primary --data @fixtures/button.yml --partial`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := ParseData(data)
			if err != nil {
				return err
			}

			a, err := opts.newApp(cmd)
			if err != nil {
				return err
			}

			_, m, written, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			engine, err := a.newEngine(m, written)
			if err != nil {
				return err
			}

			markup, err := engine.Resolve(handleKey(args[0]), values, partial)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(markup))
			return nil
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "Render data (JSON object or @file.json / @file.yml)")
	cmd.Flags().BoolVarP(&partial, "partial", "p", false, "Merge data over the component's default context")

	AddFlagValidation(cmd.Flags(), "data", ValidateJSONObject)

	return cmd
}

// handleKey adds the map prefix to a bare handle
func handleKey(handle string) string {
	if strings.HasPrefix(handle, componentmap.HandlePrefix) {
		return handle
	}
	return componentmap.Key(handle)
}
