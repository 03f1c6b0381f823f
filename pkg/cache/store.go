package cache

import (
	"sync"
	"time"

	"github.com/c360/loadstate/errors"
)

// EvictCallback is invoked when an entry is removed by expiry or deletion.
type EvictCallback[V any] func(key string, value V)

// entry represents a stored value with its expiry deadline.
type entry[V any] struct {
	key      string
	value    V
	storedAt time.Time
	ttl      time.Duration
}

// isExpired checks the logical-absence rule at the given instant.
func (e *entry[V]) isExpired(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// Store is a thread-safe TTL key/value store. Unlike a self-cleaning cache
// it owns no background goroutine; the health monitor drives SweepExpired.
type Store[V any] struct {
	mu      sync.RWMutex
	items   map[string]*entry[V]
	stats   *Statistics      // ALWAYS initialized
	metrics *storeMetrics    // Optional, if metrics enabled
	evictFn EvictCallback[V] // Optional callback
}

// New creates a TTL store.
// Returns an error if metrics registration fails when requested.
func New[V any](opts ...Option[V]) (*Store[V], error) {
	options := applyOptions(opts...)

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *storeMetrics
	if options.metricsReg != nil && options.metricsPrefix != "" {
		var err error
		metrics, err = newStoreMetrics(options.metricsReg, options.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "New", "metrics registration")
		}
	}

	return &Store[V]{
		items:   make(map[string]*entry[V]),
		stats:   stats,
		metrics: metrics,
		evictFn: options.evictCallback,
	}, nil
}

// Get retrieves a value by key, treating expired entries as absent even if
// no sweep has run yet.
func (s *Store[V]) Get(key string) (V, bool) {
	now := time.Now()

	s.mu.RLock()
	e, exists := s.items[key]
	s.mu.RUnlock()

	if !exists {
		var zero V
		s.recordMiss()
		return zero, false
	}

	if e.isExpired(now) {
		s.mu.Lock()
		// Double-check it's still there and still expired
		if current, stillExists := s.items[key]; stillExists && current.isExpired(now) {
			delete(s.items, key)
			if s.evictFn != nil {
				defer s.evictFn(key, current.value)
			}
			s.recordEviction(1, len(s.items))
		}
		s.mu.Unlock()

		var zero V
		s.recordMiss()
		return zero, false
	}

	s.stats.Hit()
	if s.metrics != nil {
		s.metrics.recordHit()
	}
	return e.value, true
}

// Set stores a value under key with the given TTL. A non-positive TTL is
// rejected because the entry would be born expired.
func (s *Store[V]) Set(key string, value V, ttl time.Duration) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Set", "empty key")
	}
	if ttl <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Set", "non-positive ttl")
	}

	s.mu.Lock()
	s.items[key] = &entry[V]{
		key:      key,
		value:    value,
		storedAt: time.Now(),
		ttl:      ttl,
	}
	size := len(s.items)
	s.mu.Unlock()

	s.stats.Set()
	s.stats.UpdateSize(int64(size))
	if s.metrics != nil {
		s.metrics.recordSet()
		s.metrics.updateSize(size)
	}
	return nil
}

// Delete removes an entry by key. Returns true if an entry was removed.
func (s *Store[V]) Delete(key string) bool {
	s.mu.Lock()
	e, exists := s.items[key]
	if exists {
		delete(s.items, key)
		if s.evictFn != nil {
			defer s.evictFn(key, e.value)
		}
	}
	size := len(s.items)
	s.mu.Unlock()

	if exists {
		s.stats.Delete()
		s.stats.UpdateSize(int64(size))
		if s.metrics != nil {
			s.metrics.recordDelete()
			s.metrics.updateSize(size)
		}
	}
	return exists
}

// SweepExpired removes all expired entries in one pass and returns the
// number removed.
func (s *Store[V]) SweepExpired() int {
	now := time.Now()
	var expired []*entry[V]

	s.mu.Lock()
	for key, e := range s.items {
		if e.isExpired(now) {
			expired = append(expired, e)
			delete(s.items, key)
		}
	}
	size := len(s.items)
	s.mu.Unlock()

	// Eviction callbacks run outside the lock
	if s.evictFn != nil {
		for _, e := range expired {
			s.evictFn(e.key, e.value)
		}
	}

	if len(expired) > 0 {
		s.recordEviction(len(expired), size)
	}
	return len(expired)
}

// Clear removes all entries.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	if s.evictFn != nil {
		for _, e := range s.items {
			s.evictFn(e.key, e.value)
		}
	}
	s.items = make(map[string]*entry[V])
	s.mu.Unlock()

	s.stats.UpdateSize(0)
	if s.metrics != nil {
		s.metrics.updateSize(0)
	}
}

// Size returns the current number of entries, expired or not.
func (s *Store[V]) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Keys returns all keys whose entries are still logically present.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	keys := make([]string, 0, len(s.items))
	for key, e := range s.items {
		if !e.isExpired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Stats returns the always-on statistics tracker.
func (s *Store[V]) Stats() *Statistics {
	return s.stats
}

func (s *Store[V]) recordMiss() {
	s.stats.Miss()
	if s.metrics != nil {
		s.metrics.recordMiss()
	}
}

func (s *Store[V]) recordEviction(count, size int) {
	for i := 0; i < count; i++ {
		s.stats.Eviction()
	}
	s.stats.UpdateSize(int64(size))
	if s.metrics != nil {
		for i := 0; i < count; i++ {
			s.metrics.recordEviction()
		}
		s.metrics.updateSize(size)
	}
}
