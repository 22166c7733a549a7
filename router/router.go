package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/uttam-in/gridstats/cache"
	"github.com/uttam-in/gridstats/observe"
	"github.com/uttam-in/gridstats/provider"
	"github.com/uttam-in/gridstats/resilience"
	"github.com/uttam-in/gridstats/stats"
)

// Cache tier names used in logs and metrics.
const (
	tierQuery    = "query"
	tierProvider = "provider"
)

// Config configures a Router.
type Config struct {
	// Providers are the upstream sources, looked up by name when the
	// routing plan runs. Required.
	Providers []provider.Provider

	// CurrentSeason pins the season treated as current. Zero infers it
	// from the clock: before March the previous year's season is active.
	CurrentSeason int

	// BulkMaxSeason is the last season the bulk file covers.
	// Default: 2023
	BulkMaxSeason int

	// MaxAttempts bounds attempts per source (including the first).
	// Default: 3
	MaxAttempts int

	// RetryDelay is the delay before the first retry. Default: 1s
	RetryDelay time.Duration

	// RetryBackoff grows the delay between retries. Default: 2.0
	RetryBackoff float64

	// AttemptTimeout bounds each fetch attempt. Default: 10s
	AttemptTimeout time.Duration

	// ProviderTTL is the per-source result cache TTL. Default: 24h
	ProviderTTL time.Duration

	// QueryCapacity bounds the composite query cache. Default: 100
	QueryCapacity int

	// QueryTTL is the composite query cache TTL. Default: 1h
	QueryTTL time.Duration

	// DisableFallback stops the source chain after the preferred source,
	// turning its failure into the query's failure.
	DisableFallback bool

	// Logger, Metrics, and Tracer default to no-ops.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer

	// CacheOptions are applied to both cache tiers.
	CacheOptions []cache.Option

	now func() time.Time
}

// Router resolves queries through the cache tiers and source chain.
type Router struct {
	providers map[string]provider.Provider
	results   *provider.ResultCache
	queries   *cache.LRUStore[*stats.Result]
	keyer     cache.Keyer
	group     singleflight.Group

	currentSeason   int
	bulkMaxSeason   int
	queryTTL        time.Duration
	disableFallback bool
	retryConfig     resilience.RetryConfig

	logger  observe.Logger
	metrics observe.Metrics
	tracer  observe.Tracer
	now     func() time.Time
}

// New creates a Router with defaults applied.
func New(cfg Config) (*Router, error) {
	if len(cfg.Providers) == 0 {
		return nil, ErrNoProviders
	}
	if cfg.BulkMaxSeason <= 0 {
		cfg.BulkMaxSeason = 2023
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 2.0
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 10 * time.Second
	}
	if cfg.ProviderTTL <= 0 {
		cfg.ProviderTTL = provider.DefaultResultTTL
	}
	if cfg.QueryTTL <= 0 {
		cfg.QueryTTL = time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NopMetrics()
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observe.NopTracer()
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	if cfg.CurrentSeason == 0 {
		cfg.CurrentSeason = inferSeason(cfg.now())
	}

	providers := make(map[string]provider.Provider, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers[p.Name()] = p
	}

	return &Router{
		providers:       providers,
		results:         provider.NewResultCache(cfg.ProviderTTL, cfg.CacheOptions...),
		queries:         cache.NewLRUStore[*stats.Result](cfg.QueryCapacity, cfg.CacheOptions...),
		keyer:           cache.NewDefaultKeyer(),
		currentSeason:   cfg.CurrentSeason,
		bulkMaxSeason:   cfg.BulkMaxSeason,
		queryTTL:        cfg.QueryTTL,
		disableFallback: cfg.DisableFallback,
		retryConfig: resilience.RetryConfig{
			MaxAttempts:    cfg.MaxAttempts,
			InitialDelay:   cfg.RetryDelay,
			Multiplier:     cfg.RetryBackoff,
			AttemptTimeout: cfg.AttemptTimeout,
			RetryIf:        provider.IsRetryable,
		},
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		tracer:  cfg.Tracer,
		now:     cfg.now,
	}, nil
}

// inferSeason maps a wall-clock time to the active season. January and
// February still belong to the previous calendar year's season.
func inferSeason(now time.Time) int {
	year := now.Year()
	if now.Month() < time.March {
		year--
	}
	return year
}

// Plan returns the source order for a time range, best candidate first.
func (r *Router) Plan(tr stats.TimeRange) []string {
	n := tr.Normalized()
	switch {
	case tr.IsZero() || n.EndSeason >= r.currentSeason:
		return []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile}
	case n.EndSeason <= r.bulkMaxSeason:
		return []string{provider.NameBulkFile, provider.NameLiveFeed, provider.NameStatsAPI}
	default:
		// Seasons after the bulk file but before the current one.
		return []string{provider.NameLiveFeed, provider.NameStatsAPI, provider.NameBulkFile}
	}
}

// Resolve answers a query, consulting the composite cache, then the
// per-source cache and upstream chain for each player. Partial results
// are returned when at least one player resolves; an error is returned
// only when every player fails.
func (r *Router) Resolve(ctx context.Context, q stats.Query) (*stats.Result, error) {
	q = q.Normalize()
	if len(q.Players) == 0 {
		return nil, ErrNoPlayers
	}

	start := r.now()
	ctx, span := r.tracer.StartResolve(ctx, q.Players)
	res, err := r.resolveCached(ctx, q)
	r.tracer.EndSpan(span, err)
	r.metrics.RecordResolve(ctx, r.now().Sub(start), err)
	return res, err
}

func (r *Router) resolveCached(ctx context.Context, q stats.Query) (*stats.Result, error) {
	key, keyErr := r.keyer.Key(tierQuery, q)
	if keyErr != nil {
		// No usable key: resolve without the composite tier.
		return r.resolve(ctx, q, "")
	}
	if cached, ok := r.queries.Get(key); ok {
		r.metrics.RecordCacheLookup(ctx, tierQuery, true)
		r.logger.Debug(ctx, "query cache hit", observe.Field{Key: "key", Value: key})
		return cached.Clone(), nil
	}
	r.metrics.RecordCacheLookup(ctx, tierQuery, false)

	// Identical in-flight resolutions collapse into one upstream pass.
	// Each waiter gets its own copy of the shared result.
	shared, err, _ := r.group.Do(key, func() (any, error) {
		return r.resolve(ctx, q, key)
	})
	if err != nil {
		return nil, err
	}
	return shared.(*stats.Result).Clone(), nil
}

func (r *Router) resolve(ctx context.Context, q stats.Query, key string) (*stats.Result, error) {
	// Fetches keep going even if the caller walks away, so the caches
	// still get populated for the next query.
	ctx = context.WithoutCancel(ctx)

	type playerResult struct {
		res *stats.Result
		err error
	}
	results := make([]playerResult, len(q.Players))

	g, gctx := errgroup.WithContext(ctx)
	for i, player := range q.Players {
		i, player := i, player
		g.Go(func() error {
			res, err := r.resolvePlayer(gctx, player, q)
			results[i] = playerResult{res: res, err: err}
			// Player failures are tolerated here and judged collectively
			// below, so the group context stays alive for the others.
			return nil
		})
	}
	_ = g.Wait()

	merged := &stats.Result{FetchedAt: r.now()}
	var failures []error
	sources := make(map[string]bool)
	for i, pr := range results {
		if pr.err != nil {
			r.logger.Warn(ctx, "player resolution failed",
				observe.Field{Key: "player", Value: q.Players[i]},
				observe.Field{Key: "error", Value: pr.err.Error()})
			failures = append(failures, pr.err)
			continue
		}
		merged.Rows = append(merged.Rows, pr.res.Rows...)
		sources[pr.res.Source] = true
	}

	if len(failures) == len(q.Players) {
		if len(failures) == 1 {
			return nil, failures[0]
		}
		return nil, errors.Join(failures...)
	}

	for s := range sources {
		if merged.Source == "" {
			merged.Source = s
		} else if merged.Source != s {
			merged.Source = "mixed"
			break
		}
	}

	merged.Rows = provider.ProjectFields(merged.Rows, q.Stats)
	merged.Rows = stats.ApplyFilters(merged.Rows, q.Filters)
	if q.Aggregation != stats.AggregationNone {
		merged.Rows = stats.Aggregate(merged.Rows, q.Aggregation, nil)
	} else {
		stats.SortRows(merged.Rows)
	}

	if key != "" {
		r.queries.Put(key, merged.Clone(), r.queryTTL)
	}
	return merged, nil
}

// resolvePlayer walks the source chain for one player.
func (r *Router) resolvePlayer(ctx context.Context, player string, q stats.Query) (*stats.Result, error) {
	req := provider.FetchRequest{
		Player: player,
		Range:  q.Range,
	}

	resErr := &ResolutionError{Player: player}
	for _, name := range r.Plan(q.Range) {
		p, ok := r.providers[name]
		if !ok {
			continue
		}

		ckey := provider.Key{Player: player, Range: q.Range, Provider: name}
		if cached, ok := r.results.Get(ckey); ok {
			r.metrics.RecordCacheLookup(ctx, tierProvider, true)
			r.logger.Debug(ctx, "source cache hit",
				observe.Field{Key: "source", Value: name},
				observe.Field{Key: "player", Value: player})
			return cached, nil
		}
		r.metrics.RecordCacheLookup(ctx, tierProvider, false)

		if !p.Available(ctx) {
			r.logger.Warn(ctx, "source unavailable, trying next",
				observe.Field{Key: "source", Value: name})
			resErr.Attempts = append(resErr.Attempts, Attempt{
				Source: name,
				Kind:   provider.KindTransient,
				Err:    fmt.Errorf("source %s reported unavailable", name),
			})
			if r.disableFallback {
				break
			}
			continue
		}

		res, err := r.fetchWithRetry(ctx, p, req)
		if err == nil {
			r.results.Put(ckey, res)
			r.logger.Info(ctx, "fetched from source",
				observe.Field{Key: "source", Value: name},
				observe.Field{Key: "player", Value: player},
				observe.Field{Key: "rows", Value: len(res.Rows)})
			return res, nil
		}

		resErr.Attempts = append(resErr.Attempts, Attempt{
			Source: name,
			Kind:   provider.KindOf(err),
			Err:    err,
		})
		if r.disableFallback {
			break
		}
	}
	return nil, resErr
}

func (r *Router) fetchWithRetry(ctx context.Context, p provider.Provider, req provider.FetchRequest) (*stats.Result, error) {
	fctx, span := r.tracer.StartFetch(ctx, p.Name(), req.Player)

	rc := r.retryConfig
	rc.OnRetry = func(attempt int, err error, delay time.Duration) {
		r.logger.Warn(fctx, "fetch attempt failed, retrying",
			observe.Field{Key: "source", Value: p.Name()},
			observe.Field{Key: "attempt", Value: attempt},
			observe.Field{Key: "delay_ms", Value: delay.Milliseconds()},
			observe.Field{Key: "error", Value: err.Error()})
	}

	var res *stats.Result
	err := resilience.NewRetry(rc).Execute(fctx, func(ctx context.Context) error {
		var ferr error
		res, ferr = p.Fetch(ctx, req)
		r.metrics.RecordFetchAttempt(ctx, p.Name(), ferr)
		return ferr
	})

	r.tracer.EndSpan(span, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}
