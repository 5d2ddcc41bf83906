package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/workflow"
	"github.com/shipkey/shipkey/pkg/backend"
)

func NewListCommand(cfg *config.Config, app *App) *cobra.Command {
	var (
		envName string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored secret references",
		Long: `List shows the refs stored for the project and environment. Values are
never read. Use --all to list every project in the vault.`,
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

			scope := workflow.ScopeFor(cfg, envName)
			filter := scope.Filter()
			if all {
				filter = backend.ListFilter{}
			}
			refs, err := app.runner(cfg, b).List(ctx, scope.Vault, filter)
			if err != nil {
				return backendFailure(b, "list", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "PROVIDER\tPROJECT\tENV\tFIELD\tREF\n")
			for _, ref := range refs {
				inline, ok := b.BuildInlineRef(ref)
				if !ok {
					inline = "-"
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", ref.Provider, ref.Project, ref.Env, ref.Field, inline)
			}
			_ = w.Flush()
			cfg.Logger.Debug("Listed %d refs from %s vault %s", len(refs), b.Name(), scope.Vault)
			return nil
		},
	}

	cmd.Flags().StringVar(&envName, "env", "", "Deployment environment (default: SHIPKEY_ENV or dev)")
	cmd.Flags().BoolVar(&all, "all", false, "List every project and environment in the vault")

	return cmd
}
