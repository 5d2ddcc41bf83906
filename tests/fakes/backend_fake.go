package fakes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shipkey/shipkey/pkg/backend"
)

// FakeBackend is an in-memory backend.Backend.
type FakeBackend struct {
	name   string
	status backend.Status
	inline bool

	secrets map[backend.SecretRef]string

	readErrors  map[string]error // provider -> error
	writeErrors map[string]error // provider -> error
	listErr     error
	writeDelay  time.Duration

	writes    []backend.SecretEntry
	callCount map[string]int

	// Concurrency tracking for serialization tests
	inFlight    map[string]int
	maxInFlight map[string]int

	mu sync.Mutex
}

// NewFakeBackend creates a ready, empty backend named name.
func NewFakeBackend(name string) *FakeBackend {
	return &FakeBackend{
		name:        name,
		status:      backend.StatusReady,
		secrets:     make(map[backend.SecretRef]string),
		readErrors:  make(map[string]error),
		writeErrors: make(map[string]error),
		callCount:   make(map[string]int),
		inFlight:    make(map[string]int),
		maxInFlight: make(map[string]int),
	}
}

// WithSecret seeds a stored value.
func (f *FakeBackend) WithSecret(ref backend.SecretRef, value string) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.secrets[ref] = value
	return f
}

// WithStatus fixes the CheckStatus result.
func (f *FakeBackend) WithStatus(status backend.Status) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	return f
}

// WithInlineRefs makes BuildInlineRef return "fake://<ref>".
func (f *FakeBackend) WithInlineRefs() *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inline = true
	return f
}

// WithReadError fails every Read for provider.
func (f *FakeBackend) WithReadError(provider string, err error) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readErrors[provider] = err
	return f
}

// WithWriteError fails every Write for provider.
func (f *FakeBackend) WithWriteError(provider string, err error) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeErrors[provider] = err
	return f
}

// WithListError fails List.
func (f *FakeBackend) WithListError(err error) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
	return f
}

// WithWriteDelay makes each Write sleep for d.
func (f *FakeBackend) WithWriteDelay(d time.Duration) *FakeBackend {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writeDelay = d
	return f
}

func (f *FakeBackend) Name() string { return f.name }

func (f *FakeBackend) InstallHint() string { return "fake backends need no installation" }

func (f *FakeBackend) CheckStatus(ctx context.Context) backend.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount["CheckStatus"]++
	return f.status
}

func (f *FakeBackend) BuildInlineRef(ref backend.SecretRef) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.inline {
		return "", false
	}
	return "fake://" + ref.String(), true
}

func (f *FakeBackend) Read(ctx context.Context, ref backend.SecretRef) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount["Read"]++

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.readErrors[ref.Provider]; ok {
		return "", err
	}
	value, ok := f.secrets[ref]
	if !ok {
		return "", backend.NotFoundError{Backend: f.name, Ref: ref}
	}
	return value, nil
}

func (f *FakeBackend) Write(ctx context.Context, entry backend.SecretEntry) error {
	record := entry.Ref.Vault + "/" + entry.Ref.Provider

	f.mu.Lock()
	f.callCount["Write"]++
	f.inFlight[record]++
	if f.inFlight[record] > f.maxInFlight[record] {
		f.maxInFlight[record] = f.inFlight[record]
	}
	delay := f.writeDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight[record]--

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := entry.Ref.Validate(); err != nil {
		return err
	}
	if err, ok := f.writeErrors[entry.Ref.Provider]; ok {
		return err
	}
	f.secrets[entry.Ref] = entry.Value
	f.writes = append(f.writes, entry)
	return nil
}

func (f *FakeBackend) List(ctx context.Context, vault string, filter backend.ListFilter) ([]backend.SecretRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callCount["List"]++

	if f.listErr != nil {
		return nil, f.listErr
	}
	refs := []backend.SecretRef{}
	for ref := range f.secrets {
		if ref.Vault == vault && filter.Matches(ref) {
			refs = append(refs, ref)
		}
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].String() < refs[j].String() })
	return refs, nil
}

// Value returns the stored value for ref.
func (f *FakeBackend) Value(ref backend.SecretRef) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.secrets[ref]
	return v, ok
}

// Writes returns successful writes in completion order.
func (f *FakeBackend) Writes() []backend.SecretEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]backend.SecretEntry(nil), f.writes...)
}

// CallCount returns how many times method was invoked.
func (f *FakeBackend) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.callCount[method]
}

// MaxConcurrentWrites returns the highest number of overlapping writes seen
// for the (vault, provider) record.
func (f *FakeBackend) MaxConcurrentWrites(vault, provider string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight[vault+"/"+provider]
}

var _ backend.Backend = (*FakeBackend)(nil)
