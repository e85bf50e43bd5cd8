package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/journi-app/journi/internal/trip"
)

// MemoryStore keeps snapshots in process memory. Used in tests and for
// single-process deployments where durability is not needed.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

// Save serializes through JSON so the in-memory store has the same
// fidelity as the durable ones; callers never share pointers with it.
func (s *MemoryStore) Save(_ context.Context, threadID string, state *trip.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[threadID] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*trip.State, error) {
	s.mu.RLock()
	data, ok := s.snapshots[threadID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	state := &trip.State{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return state, nil
}

func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, threadID)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
