// Package dedupe guarantees at-most-once notification per appointment
// occurrence. The key is the appointment number joined with the scheduled
// start time, so a reschedule opens a fresh occurrence.
package dedupe

import (
	"context"
	"sync"
)

// Store answers whether an occurrence was already notified and records
// new ones. Implementations must be safe for concurrent use: the poller
// and the HTTP surface run on independent goroutines.
type Store interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// MemoryStore is the single-instance reference store. Entries live for the
// process lifetime only; a restart loses all dedupe history.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: make(map[string]struct{})}
}

func (s *MemoryStore) Seen(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok, nil
}

func (s *MemoryStore) Mark(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[key] = struct{}{}
	return nil
}
