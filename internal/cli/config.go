package cli

import (
	"datewheel/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print settings after merging defaults, the config file, DATEWHEEL_*
environment variables and flags. The bot token is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lo, hi := app.Config.YearRange(app.Now())
			return writeOut(cmd, app, map[string]any{
				"data": app.Config,
				"resolved": map[string]any{
					"years":    []int{lo, hi},
					"dir":      config.DefaultDir(),
					"debounce": app.Config.Debounce().String(),
				},
			})
		},
	}
}
