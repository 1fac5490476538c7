// Package memory provides in-memory implementations of the store ports,
// used by tests and by embedders that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/arborlabs/arbor/pkg/playback"
)

// Store implements ports.SessionStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*playback.State
	mu   sync.RWMutex
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{data: make(map[string]*playback.State)}
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, sessionID string, state *playback.State) error {
	// Copy on write so later caller mutations don't leak into the store,
	// mirroring what serialization would do.
	cp := *state
	cp.History = append([]string(nil), state.History...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = &cp
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, sessionID string) (*playback.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, playback.ErrSessionNotFound
	}

	cp := *state
	cp.History = append([]string(nil), state.History...)
	return &cp, nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns all stored session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
