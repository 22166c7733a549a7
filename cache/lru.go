package cache

import (
	"container/list"
	"sync"
	"time"
)

// DefaultLRUCapacity bounds an LRU store when no capacity is given.
const DefaultLRUCapacity = 100

// lruItem is the list element payload: key plus the entry bookkeeping.
type lruItem[V any] struct {
	key string
	entry[V]
}

// LRUStore is a capacity-bounded Store evicting the least-recently-
// accessed entry, not the oldest-inserted one. Entries also carry TTLs;
// whichever of capacity eviction and expiry triggers first removes an
// entry. It backs the composite query tier.
type LRUStore[V any] struct {
	mu        sync.Mutex
	capacity  int
	order     *list.List // front = most recently accessed
	items     map[string]*list.Element
	hits      uint64
	misses    uint64
	evictions uint64
	now       func() time.Time
}

// NewLRUStore creates an LRU store with the given capacity.
// Non-positive capacities fall back to DefaultLRUCapacity.
func NewLRUStore[V any](capacity int, opts ...Option) *LRUStore[V] {
	if capacity <= 0 {
		capacity = DefaultLRUCapacity
	}
	o := applyOptions(opts)
	return &LRUStore[V]{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
		now:      o.now,
	}
}

// Get retrieves a value and marks it most recently accessed. An expired
// entry counts as a miss and is removed.
func (s *LRUStore[V]) Get(key string) (V, bool) {
	var zero V

	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		s.misses++
		return zero, false
	}
	item := el.Value.(*lruItem[V])
	if item.expired(s.now()) {
		s.removeElement(el)
		s.misses++
		return zero, false
	}

	s.order.MoveToFront(el)
	s.hits++
	return item.value, true
}

// Put stores a value. An existing key has both its TTL and its recency
// position refreshed. Inserting a new key at full capacity evicts the
// least recently accessed entry.
func (s *LRUStore[V]) Put(key string, value V, ttl time.Duration) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		item := el.Value.(*lruItem[V])
		item.value = value
		item.createdAt = now
		item.expiresAt = time.Time{}
		if ttl > 0 {
			item.expiresAt = now.Add(ttl)
		}
		s.order.MoveToFront(el)
		return
	}

	if s.order.Len() >= s.capacity {
		if oldest := s.order.Back(); oldest != nil {
			s.removeElement(oldest)
			s.evictions++
		}
	}

	item := &lruItem[V]{key: key}
	item.value = value
	item.createdAt = now
	if ttl > 0 {
		item.expiresAt = now.Add(ttl)
	}
	s.items[key] = s.order.PushFront(item)
}

// Invalidate removes a key. Returns false if the key was absent.
func (s *LRUStore[V]) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.items[key]
	if !ok {
		return false
	}
	s.removeElement(el)
	return true
}

// InvalidateMatching removes every entry whose key satisfies match.
func (s *LRUStore[V]) InvalidateMatching(match func(key string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if match(el.Value.(*lruItem[V]).key) {
			s.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// SweepExpired removes all expired entries.
func (s *LRUStore[V]) SweepExpired() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for el := s.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*lruItem[V]).expired(now) {
			s.removeElement(el)
			removed++
		}
		el = next
	}
	return removed
}

// Clear removes every entry and resets counters.
func (s *LRUStore[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.items = make(map[string]*list.Element)
	s.hits = 0
	s.misses = 0
	s.evictions = 0
}

// Stats reports size, capacity, and counter snapshots.
func (s *LRUStore[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Size:      s.order.Len(),
		Capacity:  s.capacity,
		Hits:      s.hits,
		Misses:    s.misses,
		Evictions: s.evictions,
	}
}

// removeElement must be called with the lock held.
func (s *LRUStore[V]) removeElement(el *list.Element) {
	s.order.Remove(el)
	delete(s.items, el.Value.(*lruItem[V]).key)
}

var _ Store[int] = (*LRUStore[int])(nil)
