package backends

import (
	dserrors "github.com/shipkey/shipkey/internal/errors"
	"github.com/shipkey/shipkey/pkg/backend"
)

// Factory builds a backend from its collaborators.
type Factory func(deps Deps) backend.Backend

// Entry is one named registry slot.
type Entry struct {
	Name    string
	Factory Factory
}

// Registry is an ordered table of backends. The first entry is the default
// used when a project does not name one.
type Registry struct {
	entries []Entry
}

// NewRegistry builds a registry from entries in order.
func NewRegistry(entries ...Entry) *Registry {
	return &Registry{entries: append([]Entry(nil), entries...)}
}

// DefaultRegistry registers 1Password first, then Bitwarden.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Entry{Name: NameOnePassword, Factory: func(d Deps) backend.Backend { return NewOnePassword(d) }},
		Entry{Name: NameBitwarden, Factory: func(d Deps) backend.Backend { return NewBitwarden(d) }},
	)
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.Name)
	}
	return names
}

// Default returns the name of the first registered backend.
func (r *Registry) Default() string {
	if len(r.entries) == 0 {
		return ""
	}
	return r.entries[0].Name
}

// Create builds the backend registered under name.
func (r *Registry) Create(name string, deps Deps) (backend.Backend, error) {
	for _, e := range r.entries {
		if e.Name == name {
			return e.Factory(deps), nil
		}
	}
	return nil, dserrors.UnknownBackendError{Name: name, Valid: r.Names()}
}

// Resolve is Create with an empty name meaning Default.
func (r *Registry) Resolve(name string, deps Deps) (backend.Backend, error) {
	if name == "" {
		name = r.Default()
	}
	return r.Create(name, deps)
}

// All instantiates every registered backend in order.
func (r *Registry) All(deps Deps) []backend.Backend {
	out := make([]backend.Backend, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.Factory(deps))
	}
	return out
}
