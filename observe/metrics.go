package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records resolution pipeline metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCacheLookup records a lookup against one cache tier.
	RecordCacheLookup(ctx context.Context, tier string, hit bool)

	// RecordFetchAttempt records one upstream fetch attempt and its outcome.
	RecordFetchAttempt(ctx context.Context, source string, err error)

	// RecordResolve records an end-to-end resolution with duration and
	// error status.
	RecordResolve(ctx context.Context, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	fetchAttempts metric.Int64Counter
	fetchErrors   metric.Int64Counter
	resolveTotal  metric.Int64Counter
	resolveErrors metric.Int64Counter
	resolveHist   metric.Float64Histogram
}

// NewMetrics creates a Metrics instance recording through the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	cacheHits, err := meter.Int64Counter(
		"gridstats.cache.hits",
		metric.WithDescription("Cache lookups that found a fresh entry"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	cacheMisses, err := meter.Int64Counter(
		"gridstats.cache.misses",
		metric.WithDescription("Cache lookups that missed or found an expired entry"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fetchAttempts, err := meter.Int64Counter(
		"gridstats.fetch.attempts",
		metric.WithDescription("Upstream fetch attempts per data source"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"gridstats.fetch.errors",
		metric.WithDescription("Failed upstream fetch attempts per data source"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	resolveTotal, err := meter.Int64Counter(
		"gridstats.resolve.total",
		metric.WithDescription("Total stat resolutions"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	resolveErrors, err := meter.Int64Counter(
		"gridstats.resolve.errors",
		metric.WithDescription("Stat resolutions that returned an error"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	resolveHist, err := meter.Float64Histogram(
		"gridstats.resolve.duration_ms",
		metric.WithDescription("End-to-end resolution duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		cacheHits:     cacheHits,
		cacheMisses:   cacheMisses,
		fetchAttempts: fetchAttempts,
		fetchErrors:   fetchErrors,
		resolveTotal:  resolveTotal,
		resolveErrors: resolveErrors,
		resolveHist:   resolveHist,
	}, nil
}

func (m *metricsImpl) RecordCacheLookup(ctx context.Context, tier string, hit bool) {
	opt := metric.WithAttributes(attribute.String("cache.tier", tier))
	if hit {
		m.cacheHits.Add(ctx, 1, opt)
	} else {
		m.cacheMisses.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordFetchAttempt(ctx context.Context, source string, err error) {
	opt := metric.WithAttributes(attribute.String("source", source))
	m.fetchAttempts.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
}

func (m *metricsImpl) RecordResolve(ctx context.Context, duration time.Duration, err error) {
	m.resolveTotal.Add(ctx, 1)
	if err != nil {
		m.resolveErrors.Add(ctx, 1)
	}
	m.resolveHist.Record(ctx, float64(duration.Milliseconds()))
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

// NopMetrics returns a Metrics that discards everything.
func NopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) RecordCacheLookup(context.Context, string, bool)     {}
func (noopMetrics) RecordFetchAttempt(context.Context, string, error)   {}
func (noopMetrics) RecordResolve(context.Context, time.Duration, error) {}

var _ Metrics = (*metricsImpl)(nil)
