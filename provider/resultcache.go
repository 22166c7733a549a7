package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/uttam-in/gridstats/cache"
	"github.com/uttam-in/gridstats/stats"
)

// DefaultResultTTL is the default lifetime of one cached provider slice.
const DefaultResultTTL = 24 * time.Hour

// Key identifies one fetched slice: player, time range, and the
// provider that produced it.
type Key struct {
	Player   string
	Range    stats.TimeRange
	Provider string
}

// String renders the key in a stable, parseable form. The player
// segment is fixed at position two so entity invalidation can match it
// exactly.
func (k Key) String() string {
	r := k.Range.Normalized()
	return fmt.Sprintf("result:%s:%s:%d-%d:w%d",
		k.Provider, strings.ToLower(stats.TitleCase(k.Player)), r.StartSeason, r.EndSeason, r.Week)
}

// playerSegment extracts the player portion of a rendered key.
func playerSegment(key string) string {
	parts := strings.SplitN(key, ":", 4)
	if len(parts) < 4 {
		return ""
	}
	return parts[2]
}

// ResultCache caches provider fetch results with a fixed TTL applied
// uniformly to every Put. Cached values are stored and returned as
// clones so callers and the cache never share mutable rows.
type ResultCache struct {
	store *cache.MemoryStore[*stats.Result]
	ttl   time.Duration
}

// NewResultCache creates a result cache. Non-positive TTLs fall back to
// DefaultResultTTL.
func NewResultCache(ttl time.Duration, opts ...cache.Option) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultResultTTL
	}
	return &ResultCache{
		store: cache.NewMemoryStore[*stats.Result](opts...),
		ttl:   ttl,
	}
}

// Get returns an independent copy of the cached result, or (nil, false)
// on miss or expiry.
func (c *ResultCache) Get(key Key) (*stats.Result, bool) {
	res, ok := c.store.Get(key.String())
	if !ok {
		return nil, false
	}
	return res.Clone(), true
}

// Put stores an independent copy of the result under the cache's TTL.
func (c *ResultCache) Put(key Key, res *stats.Result) {
	if res == nil {
		return
	}
	c.store.Put(key.String(), res.Clone(), c.ttl)
}

// InvalidatePlayer removes every cached slice for the player across all
// providers and time ranges. Used when fresher data is known to exist
// without flushing the whole tier.
func (c *ResultCache) InvalidatePlayer(player string) int {
	want := strings.ToLower(stats.TitleCase(player))
	return c.store.InvalidateMatching(func(key string) bool {
		return playerSegment(key) == want
	})
}

// InvalidateAll removes every entry.
func (c *ResultCache) InvalidateAll() {
	c.store.Clear()
}

// SweepExpired removes expired entries and returns the count.
func (c *ResultCache) SweepExpired() int {
	return c.store.SweepExpired()
}

// Stats reports the underlying store counters.
func (c *ResultCache) Stats() cache.Stats {
	return c.store.Stats()
}

// TTL returns the fixed TTL applied to every entry.
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}
