package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/scan"
	"github.com/shipkey/shipkey/internal/workflow"
)

func NewPushCommand(cfg *config.Config, app *App) *cobra.Command {
	var (
		envName string
		dirs    []string
		dryRun  bool
	)

	cmd := &cobra.Command{
		Use:   "push [dir]",
		Short: "Store local env file values in the password manager",
		Long: `Push reads every non-template env file under the project, attributes
each key to its provider and writes the value to the configured store as
vault/provider/project-env/field.

Template files (.env.example, .env.template) are never pushed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			if err := loadProject(cfg); err != nil {
				return err
			}
			b, err := app.backend(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			result := scan.ScanEnvFiles(root)
			scope := workflow.ScopeFor(cfg, envName)
			report, err := app.runner(cfg, b).Push(ctx, cfg.Project, result, workflow.PushOptions{
				Scope:  scope,
				Dirs:   dirs,
				DryRun: dryRun,
			})
			if err != nil {
				return backendFailure(b, "push", err)
			}

			printItems(cmd.OutOrStdout(), report.Items, dryRun)
			if len(report.Items) == 0 {
				cfg.Logger.Warn("No values found in env files under %s", root)
				return nil
			}
			return countFailed(report.Items)
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Deployment environment (default: SHIPKEY_ENV or dev)")
	cmd.Flags().StringSliceVar(&dirs, "dir", nil, "Only push env files from these project directories")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be written")

	return cmd
}

func printItems(out io.Writer, items []workflow.ItemResult, dryRun bool) {
	for _, it := range items {
		switch {
		case it.Err != nil:
			_, _ = fmt.Fprintf(out, "✗ %s: %v\n", it.Ref.String(), it.Err)
		case dryRun:
			_, _ = fmt.Fprintf(out, "· %s\n", it.Ref.String())
		default:
			_, _ = fmt.Fprintf(out, "✓ %s\n", it.Ref.String())
		}
	}
}
