package secure

import (
	"fmt"
	"sort"
	"sync"
)

// Values is a concurrency-safe set of named sealed values.
type Values struct {
	mu      sync.Mutex
	buffers map[string]*SecureBuffer
}

// NewValues creates an empty set.
func NewValues() *Values {
	return &Values{buffers: make(map[string]*SecureBuffer)}
}

// Put seals value under name, replacing any previous value.
func (v *Values) Put(name, value string) error {
	buf, err := NewSecureBuffer([]byte(value))
	if err != nil {
		return fmt.Errorf("failed to protect %s: %w", name, err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if old, ok := v.buffers[name]; ok {
		old.Destroy()
	}
	v.buffers[name] = buf
	return nil
}

// Get decrypts the value stored under name.
func (v *Values) Get(name string) (string, error) {
	v.mu.Lock()
	buf, ok := v.buffers[name]
	v.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("no protected value named %s", name)
	}
	return buf.String()
}

// Has reports whether name is stored.
func (v *Values) Has(name string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.buffers[name]
	return ok
}

// Names returns stored names sorted.
func (v *Values) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	names := make([]string, 0, len(v.buffers))
	for name := range v.buffers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of stored values.
func (v *Values) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.buffers)
}

// Destroy drops every value.
func (v *Values) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name, buf := range v.buffers {
		buf.Destroy()
		delete(v.buffers, name)
	}
}
