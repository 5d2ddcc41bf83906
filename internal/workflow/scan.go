package workflow

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/inference"
	"github.com/shipkey/shipkey/internal/scan"
)

// ScanReport is everything one project scan discovered.
type ScanReport struct {
	Env          scan.ScanResult
	Dependencies []string
	Workflows    scan.WorkflowScan
	Manifests    []scan.DeployManifest
	// Repo is the GitHub "owner/repo" of the origin remote, if any.
	Repo string
	// Scanned is the configuration derived from this scan alone.
	Scanned *config.ShipkeyConfig
}

// Scan runs the env-file, dependency, workflow, deployment and git scans
// concurrently and derives a configuration from their combined output.
func (r *Runner) Scan(ctx context.Context, root string) (*ScanReport, error) {
	report := &ScanReport{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report.Env = scan.ScanEnvFiles(root)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Dependencies = scan.ScanDependencies(root)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Workflows = scan.ScanWorkflows(root)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Manifests = scan.ScanDeployManifests(root)
		return gctx.Err()
	})
	g.Go(func() error {
		report.Repo = scan.GitHubRepo(gctx, r.executor(), root)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Scanned = r.buildConfig(root, report)
	r.Metrics.RecordScan(report.Env.TotalFiles, report.Env.TotalVars)
	r.logger().Debug("Scan found %d files, %d variables, %d dependencies, %d workflow secrets",
		report.Env.TotalFiles, report.Env.TotalVars, len(report.Dependencies), len(report.Workflows.Secrets))
	return report, nil
}

func (r *Runner) buildConfig(root string, report *ScanReport) *config.ShipkeyConfig {
	keys := lo.Union(report.Env.Keys(), report.Workflows.Secrets)

	providers := r.classifier().GroupByProvider(keys)
	r.inferencer().Infer(providers, inference.Signals{
		Dependencies: report.Dependencies,
		Bindings:     scan.Bindings(report.Manifests),
		CICommands:   report.Workflows.Commands,
	})

	cfg := &config.ShipkeyConfig{
		Project: projectName(root),
		Vault:   config.DefaultVault,
	}
	if len(providers) > 0 {
		cfg.Providers = providers
	}

	targets := config.Targets{}
	if report.Repo != "" && len(report.Workflows.Secrets) > 0 {
		targets[config.TargetGitHub] = map[string]config.TargetDestination{
			report.Repo: {Fields: append([]string(nil), report.Workflows.Secrets...)},
		}
	}
	for _, m := range report.Manifests {
		if m.Name == "" {
			continue
		}
		fields := devVarsKeys(report.Env, m.Dir)
		if len(fields) == 0 {
			continue
		}
		if targets[config.TargetCloudflare] == nil {
			targets[config.TargetCloudflare] = map[string]config.TargetDestination{}
		}
		existing := targets[config.TargetCloudflare][m.Name]
		targets[config.TargetCloudflare][m.Name] = config.TargetDestination{
			Fields: lo.Union(existing.Fields, fields),
		}
	}
	if len(targets) > 0 {
		cfg.Targets = targets
	}
	return cfg
}

// devVarsKeys returns the keys declared by .dev.vars files in dir.
func devVarsKeys(result scan.ScanResult, dir string) []string {
	group, ok := result.Group(dir)
	if !ok {
		return nil
	}
	var keys []string
	for _, f := range group.Files {
		if f.Name != ".dev.vars" && !strings.HasPrefix(f.Name, ".dev.vars.") {
			continue
		}
		for _, v := range f.Vars {
			keys = append(keys, v.Key)
		}
	}
	keys = lo.Uniq(keys)
	sort.Strings(keys)
	return keys
}

func projectName(root string) string {
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

// Reconcile merges scanned into the persisted configuration. A nil existing
// configuration adopts the scan.
func Reconcile(existing, scanned *config.ShipkeyConfig) *config.ShipkeyConfig {
	return config.Merge(existing, scanned)
}
