package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/shipkey/shipkey/internal/targets"
	"github.com/shipkey/shipkey/pkg/backend"
)

// Component kinds in a status report.
const (
	KindBackend = "backend"
	KindTarget  = "target"
)

// ComponentStatus is one row of 'shipkey status'.
type ComponentStatus struct {
	Kind   string
	Name   string
	Status backend.Status
	Hint   string
}

// Statuses probes every backend and target concurrently. Rows keep the
// input order.
func Statuses(ctx context.Context, stores []backend.Backend, platforms []targets.Target) []ComponentStatus {
	rows := make([]ComponentStatus, len(stores)+len(platforms))

	var g errgroup.Group
	for i, b := range stores {
		g.Go(func() error {
			rows[i] = ComponentStatus{Kind: KindBackend, Name: b.Name(), Status: b.CheckStatus(ctx), Hint: b.InstallHint()}
			return nil
		})
	}
	for i, t := range platforms {
		g.Go(func() error {
			rows[len(stores)+i] = ComponentStatus{Kind: KindTarget, Name: t.Name(), Status: t.CheckStatus(ctx), Hint: t.InstallHint()}
			return nil
		})
	}
	_ = g.Wait()
	return rows
}
