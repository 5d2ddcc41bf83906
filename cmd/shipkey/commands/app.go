package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shipkey/shipkey/internal/backends"
	"github.com/shipkey/shipkey/internal/config"
	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/metrics"
	"github.com/shipkey/shipkey/internal/targets"
	"github.com/shipkey/shipkey/internal/workflow"
	"github.com/shipkey/shipkey/pkg/backend"
	pkgexec "github.com/shipkey/shipkey/pkg/exec"
)

// App holds the collaborators commands are built from. Tests swap the
// executor and registries for fakes.
type App struct {
	Executor pkgexec.CommandExecutor
	Backends *backends.Registry
	Targets  *targets.Registry
	Metrics  *metrics.Metrics
	// Session overrides Bitwarden session discovery when set.
	Session backends.SessionFunc
}

// NewApp wires the real executor and the default registries.
func NewApp() *App {
	return &App{
		Executor: pkgexec.DefaultExecutor(),
		Backends: backends.DefaultRegistry(),
		Targets:  targets.DefaultRegistry(),
		Metrics:  metrics.New(),
	}
}

func (a *App) backendDeps(cfg *config.Config) backends.Deps {
	return backends.Deps{Executor: a.Executor, Logger: cfg.Logger, Session: a.Session}
}

func (a *App) targetDeps(cfg *config.Config) targets.Deps {
	return targets.Deps{Executor: a.Executor, Logger: cfg.Logger}
}

// backend resolves the configured store and instruments it.
func (a *App) backend(cfg *config.Config) (backend.Backend, error) {
	b, err := a.Backends.Resolve(cfg.BackendName(), a.backendDeps(cfg))
	if err != nil {
		return nil, dserrors.UserError{
			Message:    err.Error(),
			Suggestion: "Set \"backend\" in shipkey.json or SHIPKEY_BACKEND to a supported store",
			Err:        err,
		}
	}
	return metrics.Instrument(b, a.Metrics), nil
}

func (a *App) runner(cfg *config.Config, b backend.Backend) *workflow.Runner {
	return &workflow.Runner{
		Backend:  b,
		Executor: a.Executor,
		Logger:   cfg.Logger,
		Metrics:  a.Metrics,
		Targets: func(name string) (targets.Target, error) {
			return a.Targets.Create(name, a.targetDeps(cfg))
		},
	}
}

// commandContext applies --timeout to the command's context.
func commandContext(cmd *cobra.Command, cfg *config.Config) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg.Timeout > 0 {
		return context.WithTimeout(ctx, cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// loadProject loads shipkey.json, turning failures into user errors.
func loadProject(cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		return dserrors.SimplifyError(err)
	}
	return nil
}

func backendFailure(b backend.Backend, op string, err error) error {
	return dserrors.BackendError(b.Name(), op, err)
}

func countFailed(items []workflow.ItemResult) error {
	failed := 0
	for _, it := range items {
		if it.Err != nil {
			failed++
		}
	}
	if failed == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d secrets failed", failed, len(items))
}
