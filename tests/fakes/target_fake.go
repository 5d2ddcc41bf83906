package fakes

import (
	"context"
	"sync"

	"github.com/shipkey/shipkey/internal/targets"
	"github.com/shipkey/shipkey/pkg/backend"
)

// FakeTarget records synced secrets per destination.
type FakeTarget struct {
	name   string
	status backend.Status
	failOn map[string]error // secret name -> error

	synced map[string]map[string]string // destination -> name -> value

	mu sync.Mutex
}

// NewFakeTarget creates a ready target named name.
func NewFakeTarget(name string) *FakeTarget {
	return &FakeTarget{
		name:   name,
		status: backend.StatusReady,
		failOn: make(map[string]error),
		synced: make(map[string]map[string]string),
	}
}

// WithStatus fixes the CheckStatus result.
func (f *FakeTarget) WithStatus(status backend.Status) *FakeTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	return f
}

// WithFailure fails every Sync of the secret called name.
func (f *FakeTarget) WithFailure(name string, err error) *FakeTarget {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn[name] = err
	return f
}

func (f *FakeTarget) Name() string { return f.name }

func (f *FakeTarget) InstallHint() string { return "fake targets need no installation" }

func (f *FakeTarget) CheckStatus(ctx context.Context) backend.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *FakeTarget) Sync(ctx context.Context, destination string, secrets []targets.Secret) targets.Result {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := targets.Result{Success: []string{}}
	for _, s := range secrets {
		if err, ok := f.failOn[s.Name]; ok {
			res.Failed = append(res.Failed, targets.Failure{Name: s.Name, Err: err})
			continue
		}
		if f.synced[destination] == nil {
			f.synced[destination] = make(map[string]string)
		}
		f.synced[destination][s.Name] = s.Value
		res.Success = append(res.Success, s.Name)
	}
	return res
}

// Synced returns a copy of what destination received.
func (f *FakeTarget) Synced(destination string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.synced[destination]))
	for k, v := range f.synced[destination] {
		out[k] = v
	}
	return out
}

var _ targets.Target = (*FakeTarget)(nil)
