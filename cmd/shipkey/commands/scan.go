package commands

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/config"
	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/workflow"
)

func NewScanCommand(cfg *config.Config, app *App) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Discover secrets in a project and update shipkey.json",
		Long: `Scan walks the project for .env and .dev.vars files, dependency
manifests, GitHub Actions workflows and wrangler configurations, groups the
keys it finds by provider and merges the result into shipkey.json.

Existing providers, fields, guides and targets are kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			ctx, cancel := commandContext(cmd, cfg)
			defer cancel()

			runner := app.runner(cfg, nil)
			report, err := runner.Scan(ctx, root)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			existing, err := config.Load(cfg.Path)
			if err != nil && !errors.Is(err, dserrors.ErrConfigMissing) {
				return dserrors.SimplifyError(err)
			}
			cfg.Project = workflow.Reconcile(existing, report.Scanned)

			printScan(cmd.OutOrStdout(), report, cfg.Project)

			if dryRun {
				cfg.Logger.Info("Dry run: %s not written", cfg.Path)
				return nil
			}
			if err := cfg.Save(); err != nil {
				return fmt.Errorf("failed to write %s: %w", cfg.Path, err)
			}
			if existing == nil {
				cfg.Logger.Info("Created %s", cfg.Path)
			} else {
				cfg.Logger.Info("Updated %s", cfg.Path)
			}
			cfg.Logger.Info("Next: run 'shipkey push' to store the values")
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the result without writing shipkey.json")

	return cmd
}

func printScan(out io.Writer, report *workflow.ScanReport, project *config.ShipkeyConfig) {
	_, _ = fmt.Fprintf(out, "Scanned %d env files (%d variables)\n", report.Env.TotalFiles, report.Env.TotalVars)
	if report.Repo != "" {
		_, _ = fmt.Fprintf(out, "GitHub repository: %s\n", report.Repo)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "PROVIDER\tFIELDS\tPERMISSIONS\n")
	_, _ = fmt.Fprintf(w, "--------\t------\t-----------\n")
	for _, name := range project.ProviderNames() {
		p := project.Providers[name]
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\n", name, len(p.Fields), len(p.Permissions))
	}
	_ = w.Flush()

	platforms := make([]string, 0, len(project.Targets))
	for p := range project.Targets {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	for _, p := range platforms {
		dests := make([]string, 0, len(project.Targets[p]))
		for d := range project.Targets[p] {
			dests = append(dests, d)
		}
		sort.Strings(dests)
		for _, d := range dests {
			_, _ = fmt.Fprintf(out, "Target %s %s\n", p, d)
		}
	}
}
