package commands

import (
	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/workflow"
)

func NewPullCommand(cfg *config.Config, app *App) *cobra.Command {
	var (
		envName string
		output  string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "pull",
		Short: "Write stored values into a local env file",
		Long: `Pull lists every secret stored for the project and environment, reads
the values and upserts them into a local env file. Lines for other keys are
left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadProject(cfg); err != nil {
				return err
			}
			b, err := app.backend(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			report, err := app.runner(cfg, b).Pull(ctx, workflow.PullOptions{
				Scope:  workflow.ScopeFor(cfg, envName),
				Path:   output,
				DryRun: dryRun,
			})
			if err != nil {
				return backendFailure(b, "pull", err)
			}

			printItems(cmd.OutOrStdout(), report.Items, dryRun)
			if len(report.Items) == 0 {
				cfg.Logger.Warn("No secrets stored for this project and environment")
				return nil
			}
			if !dryRun {
				cfg.Logger.Info("Wrote %d values to %s", len(report.Succeeded()), output)
			}
			return countFailed(report.Items)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Deployment environment (default: SHIPKEY_ENV or dev)")
	cmd.Flags().StringVarP(&output, "output", "o", ".env", "Env file to write")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List what would be pulled without reading values")

	return cmd
}
