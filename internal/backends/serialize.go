package backends

import (
	"context"
	"sync"

	"github.com/shipkey/shipkey/pkg/backend"
)

// Serialize wraps b so that writes to the same (vault, provider) record run
// one at a time. Both stores read-modify-write a whole record per field, so
// unsynchronized writers to one record lose updates. Writes to different
// records are not blocked.
func Serialize(b backend.Backend) backend.Backend {
	if s, ok := b.(*serialized); ok {
		return s
	}
	return &serialized{Backend: b, locks: map[recordKey]*sync.Mutex{}}
}

type recordKey struct {
	vault    string
	provider string
}

type serialized struct {
	backend.Backend

	mu    sync.Mutex
	locks map[recordKey]*sync.Mutex
}

func (s *serialized) Write(ctx context.Context, entry backend.SecretEntry) error {
	l := s.lock(recordKey{vault: entry.Ref.Vault, provider: entry.Ref.Provider})
	l.Lock()
	defer l.Unlock()
	return s.Backend.Write(ctx, entry)
}

func (s *serialized) lock(key recordKey) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}
