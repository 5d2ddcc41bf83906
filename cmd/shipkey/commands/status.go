package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/workflow"
	"github.com/shipkey/shipkey/pkg/backend"
)

func NewStatusCommand(cfg *config.Config, app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check password manager and platform CLIs",
		Long: `Status reports whether each supported store (op, bw) and sync platform
(gh, wrangler) is installed and signed in, with install hints for the rest.

It does not need a shipkey.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			rows := workflow.Statuses(ctx,
				app.Backends.All(app.backendDeps(cfg)),
				app.Targets.All(app.targetDeps(cfg)),
			)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "KIND\tNAME\tSTATUS\tHINT\n")
			_, _ = fmt.Fprintf(w, "----\t----\t------\t----\n")
			ready := 0
			for _, row := range rows {
				status := "✗ " + string(row.Status)
				hint := row.Hint
				if row.Status == backend.StatusReady {
					status = "✓ " + string(row.Status)
					hint = ""
					ready++
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", row.Kind, row.Name, status, hint)
			}
			_ = w.Flush()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nSummary: %d/%d ready\n", ready, len(rows))
			return nil
		},
	}

	return cmd
}
