package workflow

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shipkey/shipkey/internal/backends"
	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/scan"
	"github.com/shipkey/shipkey/internal/secure"
	"github.com/shipkey/shipkey/pkg/backend"
)

// PushOptions selects what Push writes.
type PushOptions struct {
	Scope Scope
	// Dirs limits the env files read to these scan groups. Empty means all.
	Dirs []string
	// DryRun reports what would be written without touching the store.
	DryRun bool
}

// Push writes the values the scope's env sees in result to the store.
// Keys are attributed to the provider cfg declares them under, falling back
// to the classifier. Providers are written concurrently; writes within one
// provider are serialized.
func (r *Runner) Push(ctx context.Context, cfg *config.ShipkeyConfig, result scan.ScanResult, opts PushOptions) (Report, error) {
	runID, log := r.newRun()
	report := Report{RunID: runID}

	if r.Backend == nil {
		return report, fmt.Errorf("no backend configured")
	}
	if err := backend.StatusError(r.Backend, r.Backend.CheckStatus(ctx)); err != nil && !opts.DryRun {
		return report, err
	}

	values := secure.NewValues()
	defer values.Destroy()

	raw := result.Values(opts.Scope.Env, dirFilter(opts.Dirs))
	for key, value := range raw {
		if err := values.Put(key, value); err != nil {
			return report, err
		}
	}

	byProvider := map[string][]string{}
	for _, key := range values.Names() {
		provider := r.providerFor(cfg, key)
		byProvider[provider] = append(byProvider[provider], key)
	}
	providers := make([]string, 0, len(byProvider))
	for p := range byProvider {
		providers = append(providers, p)
	}
	sort.Strings(providers)

	if opts.DryRun {
		for _, p := range providers {
			for _, key := range byProvider[p] {
				report.Items = append(report.Items, ItemResult{Ref: opts.Scope.Ref(p, key)})
			}
		}
		return report, nil
	}

	store := backends.Serialize(r.Backend)
	results := make([][]ItemResult, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, p := range providers {
		g.Go(func() error {
			for _, key := range byProvider[p] {
				ref := opts.Scope.Ref(p, key)
				value, err := values.Get(key)
				if err == nil {
					err = store.Write(gctx, backend.SecretEntry{Ref: ref, Value: value})
				}
				if err != nil {
					log.Warn("Failed to push %s: %v", ref.String(), err)
				} else {
					log.Debug("Pushed %s", ref.String())
				}
				results[i] = append(results[i], ItemResult{Ref: ref, Err: err})
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, items := range results {
		report.Items = append(report.Items, items...)
	}
	return report, nil
}

func (r *Runner) providerFor(cfg *config.ShipkeyConfig, key string) string {
	if cfg != nil {
		if provider, ok := cfg.FindField(key); ok {
			return provider
		}
	}
	return r.classifier().Classify(key)
}

func dirFilter(dirs []string) func(string) bool {
	if len(dirs) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		allowed[d] = true
	}
	return func(dir string) bool { return allowed[dir] }
}
