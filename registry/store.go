// Package registry - swappable backing stores for the packument cache.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/ortelius/deptree-backend/model"
)

// Entry is one cached packument with its fetch timestamp. Entries are
// never mutated in place; a refresh stores a new entry.
type Entry struct {
	Packument *model.Packument `json:"packument"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Store is the packument cache backing. Implementations must be safe
// for concurrent use across analysis requests.
type Store interface {
	Get(ctx context.Context, name string) (*Entry, bool, error)
	Set(ctx context.Context, name string, entry *Entry) error
}

// MemoryStore keeps cache entries in a process-local map. It is the
// default backing when no external KV is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get looks up a cached entry by package name.
func (s *MemoryStore) Get(_ context.Context, name string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[name]
	return entry, ok, nil
}

// Set stores an entry under the package name.
func (s *MemoryStore) Set(_ context.Context, name string, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[name] = entry
	return nil
}
