package health

import (
	"context"
	"fmt"
	"time"

	"github.com/uttam-in/gridstats/dataset"
	"github.com/uttam-in/gridstats/provider"
	"github.com/uttam-in/gridstats/router"
)

// SourceChecker probes one upstream stat source.
type SourceChecker struct {
	source provider.Provider
}

// NewSourceChecker creates a checker for an upstream source.
func NewSourceChecker(source provider.Provider) *SourceChecker {
	return &SourceChecker{source: source}
}

func (c *SourceChecker) Name() string {
	return "source:" + c.source.Name()
}

// Check reports healthy when the source answers its availability probe.
// An unreachable source is degraded, not unhealthy: the fallback chain
// can still answer queries from the other sources.
func (c *SourceChecker) Check(ctx context.Context) Result {
	if c.source.Available(ctx) {
		return Healthy("source reachable")
	}
	return Degraded(fmt.Sprintf("source %s unreachable", c.source.Name()))
}

// DatasetChecker reports on the bulk dataset snapshot.
type DatasetChecker struct {
	cache  *dataset.Cache
	maxAge time.Duration
}

// NewDatasetChecker creates a checker for the bulk dataset. A zero
// maxAge disables the staleness check.
func NewDatasetChecker(cache *dataset.Cache, maxAge time.Duration) *DatasetChecker {
	return &DatasetChecker{cache: cache, maxAge: maxAge}
}

func (c *DatasetChecker) Name() string { return "dataset" }

// Check reports degraded until the dataset is warmed, and degraded
// again once a loaded snapshot exceeds its maximum age.
func (c *DatasetChecker) Check(_ context.Context) Result {
	info := c.cache.Info()
	if !info.Loaded {
		return Degraded("dataset not loaded")
	}

	details := map[string]any{
		"records":   info.Records,
		"loaded_at": info.LoadedAt.UTC().Format(time.RFC3339),
	}
	if c.maxAge > 0 {
		if age := time.Since(info.LoadedAt); age > c.maxAge {
			return Degraded(fmt.Sprintf("dataset stale: loaded %s ago", age.Round(time.Minute))).
				WithDetails(details)
		}
	}
	return Healthy(fmt.Sprintf("%d records loaded", info.Records)).WithDetails(details)
}

// CacheChecker reports cache tier sizes and hit rates.
type CacheChecker struct {
	caches router.Caches
}

// NewCacheChecker creates a checker over a router's cache tiers.
func NewCacheChecker(caches router.Caches) *CacheChecker {
	return &CacheChecker{caches: caches}
}

func (c *CacheChecker) Name() string { return "caches" }

// Check always reports healthy; the tiers degrade service, never break
// it. The details carry the numbers worth watching.
func (c *CacheChecker) Check(_ context.Context) Result {
	st := c.caches.Stats()
	return Healthy("cache tiers operational").WithDetails(map[string]any{
		"query_size":        st.Query.Size,
		"query_hit_rate":    st.Query.HitRate(),
		"provider_size":     st.Provider.Size,
		"provider_hit_rate": st.Provider.HitRate(),
	})
}
