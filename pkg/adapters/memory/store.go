// Package memory implements ports.EntryStore without persistence. The
// default for tests and embedded use; entries vanish with the process.
package memory

import (
	"context"
	"sync"

	"github.com/hearthd/hearthd/pkg/domain"
)

// Store implements ports.EntryStore in memory. Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	data  map[string]*domain.ConfigEntry
	order []string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.ConfigEntry),
	}
}

// Save stores a copy of the entry, appending to the creation order on
// first sight.
func (s *Store) Save(ctx context.Context, entry *domain.ConfigEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[entry.EntryID]; !exists {
		s.order = append(s.order, entry.EntryID)
	}
	s.data[entry.EntryID] = entry.Clone()
	return nil
}

// Delete removes the entry. Deleting an absent ID is a no-op.
func (s *Store) Delete(ctx context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[entryID]; !exists {
		return nil
	}
	delete(s.data, entryID)
	for i, id := range s.order {
		if id == entryID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns copies of all entries in creation order.
func (s *Store) List(ctx context.Context) ([]*domain.ConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.ConfigEntry, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.data[id].Clone())
	}
	return out, nil
}
