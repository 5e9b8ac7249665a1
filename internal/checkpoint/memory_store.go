package checkpoint

import (
	"context"
	"sync"

	"github.com/storieswithjai/ghostflow/pkg/flow"
)

// MemoryStore is a goroutine-safe Store backed by a map.
//
// It is intended for tests and development: in-flight sessions are lost on
// process restart. Production deployments that care about recovery use the
// SQLite or Redis stores.
type MemoryStore struct {
	mu          sync.RWMutex
	checkpoints map[string]Checkpoint
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		checkpoints: make(map[string]Checkpoint),
	}
}

func (s *MemoryStore) Get(ctx context.Context, sessionKey string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.checkpoints[sessionKey]
	if !ok {
		return Checkpoint{}, ErrNotFound
	}
	return cp, nil
}

func (s *MemoryStore) Put(ctx context.Context, sessionKey string, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.checkpoints[sessionKey] = cp
	return nil
}

func (s *MemoryStore) PatchFields(ctx context.Context, sessionKey string, u flow.Update) (flow.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.checkpoints[sessionKey]
	if !ok {
		return flow.State{}, ErrNotFound
	}

	cp.State = cp.State.Merge(u)
	s.checkpoints[sessionKey] = cp
	return cp.State, nil
}
