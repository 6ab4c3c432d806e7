// Package memory is a process-scoped, unbounded result cache.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/plotwise/plotwise/pkg/models"
)

// Store is an in-memory cache keyed by descriptor keys. Entries never
// expire and are never evicted; the store lives as long as its owner.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]byte
	hits    atomic.Int64
	misses  atomic.Int64
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string][]byte)}
}

// Get retrieves a copy of the cached value.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	v, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		s.misses.Add(1)
		return nil, false
	}
	s.hits.Add(1)
	return clone(v), true
}

// Put stores a copy of value, overwriting any existing entry.
func (s *Store) Put(key string, value []byte) {
	v := clone(value)
	s.mu.Lock()
	s.entries[key] = v
	s.mu.Unlock()
}

// Has reports whether key is cached.
func (s *Store) Has(key string) bool {
	s.mu.RLock()
	_, ok := s.entries[key]
	s.mu.RUnlock()
	return ok
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stats returns cache performance metrics.
func (s *Store) Stats() models.CacheStats {
	return models.CacheStats{
		Entries: int64(s.Len()),
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}
}

// Clear drops every entry and resets the counters.
func (s *Store) Clear() {
	s.mu.Lock()
	s.entries = make(map[string][]byte)
	s.mu.Unlock()
	s.hits.Store(0)
	s.misses.Store(0)
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
