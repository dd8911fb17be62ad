package snapshot

import (
	"context"
	"sync"

	"github.com/NegroHm/uda-apuntes/internal/ranking"
)

// MemoryStore keeps the snapshot in process memory. Used in tests and as
// the throwaway backend.
type MemoryStore struct {
	mu   sync.RWMutex
	snap *ranking.Snapshot
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get(_ context.Context) (*ranking.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ranking.ErrNoSnapshot
	}
	return s.snap, nil
}

func (s *MemoryStore) Put(_ context.Context, snap *ranking.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = nil
	return nil
}

func (s *MemoryStore) Close() error { return nil }
