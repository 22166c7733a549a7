package cache

import (
	"sync"
	"time"
)

// MemoryStore is an unbounded in-memory Store with per-entry TTL.
// It backs the bulk dataset and provider result tiers.
type MemoryStore[V any] struct {
	mu      sync.RWMutex
	entries map[string]*entry[V]
	hits    uint64
	misses  uint64
	now     func() time.Time
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore[V any](opts ...Option) *MemoryStore[V] {
	o := applyOptions(opts)
	return &MemoryStore[V]{
		entries: make(map[string]*entry[V]),
		now:     o.now,
	}
}

// Get retrieves a value. An expired entry counts as a miss and is
// removed lazily.
func (s *MemoryStore[V]) Get(key string) (V, bool) {
	var zero V

	s.mu.RLock()
	e, ok := s.entries[key]
	now := s.now()
	s.mu.RUnlock()

	if !ok {
		s.mu.Lock()
		s.misses++
		s.mu.Unlock()
		return zero, false
	}
	if e.expired(now) {
		s.mu.Lock()
		// Re-check under the write lock; another goroutine may have
		// replaced the entry since the read.
		if cur, still := s.entries[key]; still && cur == e {
			delete(s.entries, key)
		}
		s.misses++
		s.mu.Unlock()
		return zero, false
	}

	s.mu.Lock()
	s.hits++
	s.mu.Unlock()
	return e.value, true
}

// Put stores a value, overwriting any existing entry for the key.
// TTLNever retains the entry until explicit invalidation.
func (s *MemoryStore[V]) Put(key string, value V, ttl time.Duration) {
	now := s.now()
	e := &entry[V]{value: value, createdAt: now}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}

	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

// Invalidate removes a key. Returns false if the key was absent.
func (s *MemoryStore[V]) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	return true
}

// InvalidateMatching removes every entry whose key satisfies match.
func (s *MemoryStore[V]) InvalidateMatching(match func(key string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for key := range s.entries {
		if match(key) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// SweepExpired removes all expired entries.
func (s *MemoryStore[V]) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Clear removes every entry and resets counters.
func (s *MemoryStore[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry[V])
	s.hits = 0
	s.misses = 0
}

// Stats reports size and counter snapshots.
func (s *MemoryStore[V]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Size:   len(s.entries),
		Hits:   s.hits,
		Misses: s.misses,
	}
}

var _ Store[int] = (*MemoryStore[int])(nil)
