package metrics

import (
	"context"
	"time"

	"github.com/shipkey/shipkey/pkg/backend"
)

// Instrument wraps b so every store call is counted and timed.
func Instrument(b backend.Backend, m *Metrics) backend.Backend {
	if m == nil {
		return b
	}
	return &instrumented{Backend: b, metrics: m}
}

type instrumented struct {
	backend.Backend
	metrics *Metrics
}

func (i *instrumented) Read(ctx context.Context, ref backend.SecretRef) (string, error) {
	start := time.Now()
	v, err := i.Backend.Read(ctx, ref)
	i.metrics.ObserveBackend(i.Name(), "read", err, time.Since(start))
	return v, err
}

func (i *instrumented) Write(ctx context.Context, entry backend.SecretEntry) error {
	start := time.Now()
	err := i.Backend.Write(ctx, entry)
	i.metrics.ObserveBackend(i.Name(), "write", err, time.Since(start))
	return err
}

func (i *instrumented) List(ctx context.Context, vault string, filter backend.ListFilter) ([]backend.SecretRef, error) {
	start := time.Now()
	refs, err := i.Backend.List(ctx, vault, filter)
	i.metrics.ObserveBackend(i.Name(), "list", err, time.Since(start))
	return refs, err
}
