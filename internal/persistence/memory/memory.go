// Package memory provides an in-process SessionStore used by tests and
// single-run deployments that do not need durability.
package memory

import (
	"context"
	"sync"

	"github.com/example/activity-booking/internal/persistence"
)

// Store keeps the booking map in memory. Loads and saves exchange deep copies,
// so callers mutating a loaded map never affect stored state until they Save.
type Store struct {
	mu       sync.RWMutex
	sessions persistence.Sessions
	saves    int
}

// New returns an empty store, optionally seeded with sessions.
func New(seed persistence.Sessions) *Store {
	if seed == nil {
		seed = persistence.Sessions{}
	}
	return &Store{sessions: seed.Clone()}
}

// Load returns a copy of the stored map.
func (s *Store) Load(ctx context.Context) (persistence.Sessions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions.Clone(), nil
}

// Save replaces the stored map with a copy of sessions.
func (s *Store) Save(ctx context.Context, sessions persistence.Sessions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions.Clone()
	s.saves++
	return nil
}

// Saves reports how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
