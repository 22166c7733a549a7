package cache

import (
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// TTLNever marks an entry that never expires; it lives until explicit
// invalidation or process restart.
const TTLNever time.Duration = 0

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Store is the contract shared by all cache tiers.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Get on an expired entry behaves as a miss and removes the entry.
// - Put overwrites any existing entry for the key unconditionally.
// - Hit/miss counters are monotonic for the life of the store and are
//   observability data only, never correctness data.
type Store[V any] interface {
	// Get retrieves a cached value. Returns the zero value and false on miss.
	Get(key string) (V, bool)

	// Put stores a value with the given TTL. TTLNever retains the entry
	// until explicit invalidation.
	Put(key string, value V, ttl time.Duration)

	// Invalidate removes a key. Returns false if the key was absent.
	Invalidate(key string) bool

	// InvalidateMatching removes every entry whose key satisfies match
	// and returns the number removed.
	InvalidateMatching(match func(key string) bool) int

	// SweepExpired removes all expired entries and returns the count.
	SweepExpired() int

	// Clear removes every entry and resets hit/miss counters.
	Clear()

	// Stats reports size and counter snapshots.
	Stats() Stats
}

// Stats is a point-in-time snapshot of a store's counters.
type Stats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity,omitempty"` // 0 means unbounded
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// HitRate returns the hit percentage across all lookups so far.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// ValidateKey checks if a key is usable for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// entry is one stored value with its expiry bookkeeping.
type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time // zero means never expires
}

func (e *entry[V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the store's time source. Intended for tests that
// need deterministic TTL expiry.
func WithClock(now func() time.Time) Option {
	return Option(func(o *options) {
		o.now = now
	})
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
