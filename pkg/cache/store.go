package cache

import (
	"encoding/json"

	"github.com/plotwise/plotwise/pkg/models"
)

// Store holds operation results for the lifetime of the process.
// Implementations never block on I/O and never fail.
type Store interface {
	// Get returns a copy of the value stored under key.
	Get(key string) ([]byte, bool)
	// Put stores value under key, replacing any previous value.
	Put(key string, value []byte)
	// Has reports whether key is present without touching hit/miss counters.
	Has(key string) bool
	// Stats returns entry and hit/miss counts.
	Stats() models.CacheStats
}

// GetJSON decodes the value stored under key into a fresh T.
// A value that no longer decodes is reported as a miss.
func GetJSON[T any](s Store, key string) (T, bool) {
	var out T
	data, ok := s.Get(key)
	if !ok {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

// PutJSON encodes v and stores it under key.
func PutJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.Put(key, data)
	return nil
}
