// Package targets publishes resolved secrets to execution platforms.
package targets

import (
	"context"
	"strings"

	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/internal/logging"
	"github.com/shipkey/shipkey/pkg/backend"
	pkgexec "github.com/shipkey/shipkey/pkg/exec"
)

// Secret is one resolved name/value pair.
type Secret struct {
	Name  string
	Value string
}

// Failure names a secret that could not be published.
type Failure struct {
	Name string
	Err  error
}

// Result reports per-secret outcomes of a Sync call.
type Result struct {
	Success []string
	Failed  []Failure
}

// Target is a platform shipkey can push secrets to.
type Target interface {
	Name() string
	CheckStatus(ctx context.Context) backend.Status
	InstallHint() string
	// Sync sets every secret on destination. One failure does not stop the
	// remaining secrets.
	Sync(ctx context.Context, destination string, secrets []Secret) Result
}

// IsAvailable reports whether t is ready for use.
func IsAvailable(ctx context.Context, t Target) bool {
	return t.CheckStatus(ctx) == backend.StatusReady
}

// Deps are the collaborators targets are built from.
type Deps struct {
	Executor pkgexec.CommandExecutor
	Logger   *logging.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Executor == nil {
		d.Executor = pkgexec.DefaultExecutor()
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	return d
}

// Factory builds a target.
type Factory func(deps Deps) Target

// Entry is one named registry slot.
type Entry struct {
	Name    string
	Factory Factory
}

// Registry is an ordered table of targets.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry from entries.
func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: append([]Entry(nil), entries...)}
}

// DefaultRegistry registers GitHub and Cloudflare.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Entry{Name: NameGitHub, Factory: func(d Deps) Target { return NewGitHub(d) }},
		Entry{Name: NameCloudflare, Factory: func(d Deps) Target { return NewCloudflare(d) }},
	)
}

// Names returns registered names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	return names
}

// Create builds the target registered under name.
func (r *Registry) Create(name string, deps Deps) (Target, error) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Factory(deps), nil
		}
	}
	return nil, dserrors.UnknownTargetError{Name: name, Valid: r.Names()}
}

// All instantiates every registered target.
func (r *Registry) All(deps Deps) []Target {
	out := make([]Target, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Factory(deps))
	}
	return out
}

// cliTarget is the shared shape of targets driven by a CLI that reads the
// secret value from stdin.
type cliTarget struct {
	name     string
	binary   string
	authArgs []string
	hint     string
	setArgs  func(name, destination string) []string

	logger   *logging.Logger
	executor pkgexec.CommandExecutor
}

func (c *cliTarget) Name() string        { return c.name }
func (c *cliTarget) InstallHint() string { return c.hint }

func (c *cliTarget) CheckStatus(ctx context.Context) backend.Status {
	if _, err := c.executor.LookPath(c.binary); err != nil {
		return backend.StatusNotInstalled
	}
	if _, _, err := c.executor.Execute(ctx, c.binary, c.authArgs...); err != nil {
		return backend.StatusNotLoggedIn
	}
	return backend.StatusReady
}

func (c *cliTarget) Sync(ctx context.Context, destination string, secrets []Secret) Result {
	res := Result{Success: []string{}}
	for _, s := range secrets {
		if err := ctx.Err(); err != nil {
			res.Failed = append(res.Failed, Failure{Name: s.Name, Err: err})
			continue
		}
		c.logger.Debug("Setting %s secret %s on %s", c.name, s.Name, destination)
		args := c.setArgs(s.Name, destination)
		_, stderr, err := c.executor.ExecuteWithInput(ctx, []byte(s.Value), c.binary, args...)
		if err != nil {
			err = dserrors.NewCommandError(c.binary+" "+strings.Join(args, " "), stderr, err)
			res.Failed = append(res.Failed, Failure{Name: s.Name, Err: err})
			continue
		}
		res.Success = append(res.Success, s.Name)
	}
	return res
}
