package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/workflow"
)

func NewSyncCommand(cfg *config.Config, app *App) *cobra.Command {
	var (
		envName  string
		platform string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Publish stored secrets to GitHub and Cloudflare",
		Long: `Sync resolves every destination under "targets" in shipkey.json, reads
the bound secrets from the store and sets them with the platform CLI
(gh secret set, wrangler secret put).

List destinations name fields declared under a provider. Map destinations
bind a secret name to a field, provider/field or a full op:// reference.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadProject(cfg); err != nil {
				return err
			}
			if platform != "" {
				if _, err := app.Targets.Create(platform, app.targetDeps(cfg)); err != nil {
					return err
				}
			}
			b, err := app.backend(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			report, err := app.runner(cfg, b).Sync(ctx, cfg.Project, workflow.SyncOptions{
				Scope:    workflow.ScopeFor(cfg, envName),
				Platform: platform,
				DryRun:   dryRun,
			})
			if err != nil {
				return err
			}
			if len(report.Destinations) == 0 {
				cfg.Logger.Warn("No targets configured in %s", cfg.Path)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, d := range report.Destinations {
				_, _ = fmt.Fprintf(out, "%s %s\n", d.Platform, d.Destination)
				for _, name := range d.Result.Success {
					_, _ = fmt.Fprintf(out, "  ✓ %s\n", name)
				}
				for _, f := range d.Result.Failed {
					_, _ = fmt.Fprintf(out, "  ✗ %s: %v\n", f.Name, f.Err)
				}
			}
			if n := report.FailedCount(); n > 0 {
				return fmt.Errorf("%d secrets failed to sync", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Deployment environment (default: SHIPKEY_ENV or dev)")
	cmd.Flags().StringVar(&platform, "target", "", "Only sync this platform (github, cloudflare)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and read secrets without publishing them")

	return cmd
}
