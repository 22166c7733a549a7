package router

import (
	"github.com/uttam-in/gridstats/cache"
)

// CacheStats snapshots both cache tiers.
type CacheStats struct {
	Query    cache.Stats `json:"query"`
	Provider cache.Stats `json:"provider"`
}

// Caches is the maintenance surface over the router's cache tiers.
type Caches struct {
	router *Router
}

// Caches returns the maintenance surface for this router's tiers.
func (r *Router) Caches() Caches {
	return Caches{router: r}
}

// SweepExpired removes expired entries from both tiers and returns the
// total removed.
func (c Caches) SweepExpired() int {
	return c.router.results.SweepExpired() + c.router.queries.SweepExpired()
}

// InvalidatePlayer drops every cached result for a player, by any
// source and range. Composite entries are keyed by hash, so the whole
// query tier is cleared rather than inspected.
func (c Caches) InvalidatePlayer(name string) int {
	removed := c.router.results.InvalidatePlayer(name)
	c.router.queries.Clear()
	return removed
}

// ClearAll empties both tiers.
func (c Caches) ClearAll() {
	c.router.results.InvalidateAll()
	c.router.queries.Clear()
}

// Stats snapshots both tiers.
func (c Caches) Stats() CacheStats {
	return CacheStats{
		Query:    c.router.queries.Stats(),
		Provider: c.router.results.Stats(),
	}
}
