package workflow

import (
	"github.com/google/uuid"

	"github.com/shipkey/shipkey/internal/config"
	"github.com/shipkey/shipkey/internal/inference"
	"github.com/shipkey/shipkey/internal/logging"
	"github.com/shipkey/shipkey/internal/metrics"
	"github.com/shipkey/shipkey/internal/targets"
	"github.com/shipkey/shipkey/pkg/backend"
	pkgexec "github.com/shipkey/shipkey/pkg/exec"
)

// DefaultConcurrency bounds parallel store writes and reads.
const DefaultConcurrency = 4

// TargetFunc returns the sync target registered under name.
type TargetFunc func(name string) (targets.Target, error)

// Runner carries the collaborators shared by every operation. Zero-valued
// optional fields get defaults.
type Runner struct {
	Backend     backend.Backend
	Targets     TargetFunc
	Classifier  *inference.Classifier
	Inferencer  *inference.Inferencer
	Executor    pkgexec.CommandExecutor
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	Concurrency int
}

func (r *Runner) logger() *logging.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func (r *Runner) classifier() *inference.Classifier {
	if r.Classifier == nil {
		return inference.Default()
	}
	return r.Classifier
}

func (r *Runner) inferencer() *inference.Inferencer {
	if r.Inferencer == nil {
		return inference.NewInferencer(inference.DefaultPermissionRules())
	}
	return r.Inferencer
}

func (r *Runner) executor() pkgexec.CommandExecutor {
	if r.Executor == nil {
		return pkgexec.DefaultExecutor()
	}
	return r.Executor
}

func (r *Runner) concurrency() int {
	if r.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return r.Concurrency
}

// newRun returns a run ID and a logger tagged with its short form.
func (r *Runner) newRun() (string, *logging.Logger) {
	id := uuid.NewString()
	return id, r.logger().WithPrefix(id[:8])
}

// Scope locates secrets of one project environment inside a vault.
type Scope struct {
	Vault   string
	Project string
	Env     string
}

// ScopeFor derives the scope for env from the runtime configuration.
func ScopeFor(cfg *config.Config, env string) Scope {
	s := Scope{Vault: cfg.Vault(), Env: cfg.Env(env)}
	if cfg.Project != nil {
		s.Project = cfg.Project.Project
	}
	return s
}

// Ref builds the ref of field under provider.
func (s Scope) Ref(provider, field string) backend.SecretRef {
	return backend.SecretRef{
		Vault:    s.Vault,
		Provider: provider,
		Project:  s.Project,
		Env:      s.Env,
		Field:    field,
	}
}

// Filter selects this scope's project and env.
func (s Scope) Filter() backend.ListFilter {
	return backend.ListFilter{Project: s.Project, Env: s.Env}
}

// ItemResult is the outcome for one secret.
type ItemResult struct {
	Ref backend.SecretRef
	Err error
}

// Report collects per-item outcomes of one run.
type Report struct {
	RunID string
	Items []ItemResult
}

// Succeeded returns the refs that completed.
func (r Report) Succeeded() []backend.SecretRef {
	var out []backend.SecretRef
	for _, it := range r.Items {
		if it.Err == nil {
			out = append(out, it.Ref)
		}
	}
	return out
}

// Failed returns the items that did not complete.
func (r Report) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}
