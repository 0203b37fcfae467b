// Package store persists config entries for the host. SQLiteStore is the
// production backend; MemoryStore backs tests and throwaway runs.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
)

// MemoryStore is a thread-safe in-memory entry store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.ConfigEntry
	now     func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]domain.ConfigEntry),
		now:     time.Now,
	}
}

// Create stores a new entry. Timestamps are set by the store.
func (s *MemoryStore) Create(_ context.Context, entry *domain.ConfigEntry) error {
	if entry.EntryID == "" {
		return &domain.ErrValidation{Field: "entry_id", Message: "must not be empty"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entry.EntryID]; ok {
		return &domain.ErrValidation{Field: "entry_id", Message: "already exists"}
	}
	now := s.now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	s.entries[entry.EntryID] = *entry
	return nil
}

// Get returns a copy of one entry.
func (s *MemoryStore) Get(_ context.Context, entryID string) (*domain.ConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	return &e, nil
}

// List returns all entries ordered by creation time.
func (s *MemoryStore) List(_ context.Context) ([]domain.ConfigEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ConfigEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].EntryID < out[j].EntryID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// UpdateOptions replaces the options of an entry.
func (s *MemoryStore) UpdateOptions(_ context.Context, entryID string, opts domain.EntryOptions) (*domain.ConfigEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	e.Options = opts
	e.UpdatedAt = s.now().UTC()
	s.entries[entryID] = e
	return &e, nil
}

// Delete removes an entry.
func (s *MemoryStore) Delete(_ context.Context, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[entryID]; !ok {
		return &domain.ErrNotFound{Resource: "config entry", ID: entryID}
	}
	delete(s.entries, entryID)
	return nil
}
