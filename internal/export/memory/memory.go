package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Store is an in-memory export target for local runs and tests.
type Store struct {
	mu      sync.Mutex
	entries map[uuid.UUID]core.LedgerEntry
}

func New() *Store {
	return &Store{entries: make(map[uuid.UUID]core.LedgerEntry)}
}

func (s *Store) UpsertEntry(_ context.Context, e core.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.ID] = e
	return nil
}

func (s *Store) DeleteEntry(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// Get reports the mirrored entry, if any.
func (s *Store) Get(id uuid.UUID) (core.LedgerEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

// Len reports how many entries are mirrored.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
