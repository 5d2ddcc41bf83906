package workflow

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/shipkey/shipkey/internal/dotenv"
	"github.com/shipkey/shipkey/pkg/backend"
)

// PullOptions selects what Pull reads and where it writes.
type PullOptions struct {
	Scope Scope
	// Path is the env file to upsert into.
	Path string
	// DryRun lists refs without reading values or touching Path.
	DryRun bool
}

// Pull lists the scope's refs, reads each value and upserts them into the
// env file at opts.Path. When several providers hold the same field the one
// sorting last by ref wins.
func (r *Runner) Pull(ctx context.Context, opts PullOptions) (Report, error) {
	runID, log := r.newRun()
	report := Report{RunID: runID}

	if r.Backend == nil {
		return report, fmt.Errorf("no backend configured")
	}
	refs, err := r.Backend.List(ctx, opts.Scope.Vault, opts.Scope.Filter())
	if err != nil {
		return report, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })

	if opts.DryRun {
		for _, ref := range refs {
			report.Items = append(report.Items, ItemResult{Ref: ref})
		}
		return report, nil
	}

	results := make([]ItemResult, len(refs))
	values := make([]string, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency())
	for i, ref := range refs {
		g.Go(func() error {
			v, err := r.Backend.Read(gctx, ref)
			results[i] = ItemResult{Ref: ref, Err: err}
			values[i] = v
			return nil
		})
	}
	_ = g.Wait()

	merged := map[string]string{}
	for i, res := range results {
		if res.Err != nil {
			log.Warn("Failed to read %s: %v", res.Ref.String(), res.Err)
			continue
		}
		merged[res.Ref.Field] = values[i]
	}
	report.Items = results

	if err := dotenv.Upsert(opts.Path, merged); err != nil {
		return report, fmt.Errorf("failed to write %s: %w", opts.Path, err)
	}
	log.Debug("Wrote %d values to %s", len(merged), opts.Path)
	return report, nil
}

// List returns the refs stored for filter in vault, sorted.
func (r *Runner) List(ctx context.Context, vault string, filter backend.ListFilter) ([]backend.SecretRef, error) {
	if r.Backend == nil {
		return nil, fmt.Errorf("no backend configured")
	}
	refs, err := r.Backend.List(ctx, vault, filter)
	if err != nil {
		return nil, err
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs, nil
}
