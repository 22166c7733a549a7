// Package health reports on the moving parts of the resolution
// pipeline: upstream stat sources, the bulk dataset, and the cache
// tiers.
//
// A Checker is any component that can report its health status. The
// Status type represents the health state: Healthy, Degraded, or
// Unhealthy. Checkers run under an Aggregator:
//
//	agg := health.NewAggregator()
//	agg.Register("source:livefeed", health.NewSourceChecker(feed))
//	agg.Register("dataset", health.NewDatasetChecker(ds, 48*time.Hour))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// HTTP handlers expose the aggregate as liveness (/healthz), readiness
// (/readyz), and detailed (/health) endpoints via RegisterHandlers.
package health
