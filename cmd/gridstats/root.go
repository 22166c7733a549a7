package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/uttam-in/gridstats/config"
	"github.com/uttam-in/gridstats/dataset"
	"github.com/uttam-in/gridstats/health"
	"github.com/uttam-in/gridstats/observe"
	"github.com/uttam-in/gridstats/provider"
	"github.com/uttam-in/gridstats/router"
	"github.com/uttam-in/gridstats/secret"
)

var version = "dev"

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:   "gridstats",
	Short: "NFL player stat resolution with tiered caching and source fallback",
	Long: `gridstats answers NFL player stat queries by routing them through
a chain of data sources: a live weekly feed, a rate-limited stats API,
and a local bulk dataset for historical seasons. Results are cached at
two tiers so repeated questions never hit the network twice.

Environment Variables:
  GRIDSTATS_DATASET_PATH       Path to the bulk CSV dataset
  GRIDSTATS_LIVEFEED_BASE_URL  Live feed endpoint
  GRIDSTATS_STATSAPI_BASE_URL  Stats API endpoint
  GRIDSTATS_API_KEY            Stats API key (supports secretref:...)`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file to load before reading configuration")
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	if envFile != "" {
		config.LoadEnvFile(envFile)
	} else {
		config.LoadEnvFile()
	}

	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.LoadFromFile(cfgFile)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ResolveSecrets(ctx, secret.NewDefaultResolver()); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}
	return cfg, nil
}

// app wires the pipeline: telemetry, dataset, sources, router, health.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	dataset  *dataset.Cache
	router   *router.Router
	health   *health.Aggregator
	logger   observe.Logger
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "gridstats",
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   cfg.Telemetry.Tracing.Enabled,
			Exporter:  cfg.Telemetry.Tracing.Exporter,
			SamplePct: cfg.Telemetry.Tracing.SampleRate,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  cfg.Telemetry.Metrics.Enabled,
			Exporter: cfg.Telemetry.Metrics.Exporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: cfg.Telemetry.Logging.Enabled,
			Level:   cfg.Telemetry.Logging.Level,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry setup: %w", err)
	}

	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return nil, fmt.Errorf("metrics setup: %w", err)
	}

	ds := dataset.New(dataset.NewCSVLoader(cfg.Dataset.Path))
	live := provider.NewLiveFeed(provider.LiveFeedConfig{
		BaseURL: cfg.Sources.LiveFeed.BaseURL,
	})
	api := provider.NewStatsAPI(provider.StatsAPIConfig{
		BaseURL:           cfg.Sources.StatsAPI.BaseURL,
		APIKey:            cfg.Sources.StatsAPI.APIKey,
		RequestsPerSecond: cfg.Sources.StatsAPI.RateLimit,
	})
	providers := []provider.Provider{live, api}
	if cfg.Dataset.Enabled {
		providers = append(providers, provider.NewBulkFile(ds))
	}

	r, err := router.New(router.Config{
		Providers:       providers,
		CurrentSeason:   cfg.Season.Effective(time.Now()),
		BulkMaxSeason:   cfg.Dataset.MaxSeason,
		MaxAttempts:     cfg.Retry.MaxRetries,
		RetryDelay:      cfg.Retry.InitialDelay(),
		RetryBackoff:    cfg.Retry.Backoff,
		AttemptTimeout:  cfg.Retry.AttemptTimeout(),
		ProviderTTL:     cfg.Cache.ProviderTTL(),
		QueryCapacity:   cfg.Cache.QueryCapacity,
		QueryTTL:        cfg.Cache.QueryTTL(),
		Logger:          obs.Logger(),
		Metrics:         metrics,
		Tracer:          observe.NewTracer(obs.Tracer()),
		DisableFallback: !cfg.Routing.Fallback,
	})
	if err != nil {
		return nil, err
	}

	agg := health.NewAggregator()
	agg.Register("dataset", health.NewDatasetChecker(ds, 0))
	agg.Register("source:livefeed", health.NewSourceChecker(live))
	agg.Register("source:statsapi", health.NewSourceChecker(api))
	agg.Register("caches", health.NewCacheChecker(r.Caches()))

	return &app{
		cfg:      cfg,
		observer: obs,
		dataset:  ds,
		router:   r,
		health:   agg,
		logger:   obs.Logger(),
	}, nil
}

func (a *app) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.observer.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
	}
}
