// Package config provides configuration for the gridstats pipeline.
// Settings come from defaults, an optional YAML file, and GRIDSTATS_*
// environment variables, in increasing order of precedence.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/uttam-in/gridstats/secret"
)

// Config represents the full gridstats configuration.
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Memory    MemoryConfig    `mapstructure:"memory"`
	Season    SeasonConfig    `mapstructure:"season"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// DatasetConfig holds bulk dataset settings.
type DatasetConfig struct {
	// Path is the location of the bulk stats CSV file.
	Path string `mapstructure:"path"`

	// MaxSeason is the last season covered by the bulk file. Queries
	// ending at or before it are routed to the bulk file first.
	MaxSeason int `mapstructure:"max_season"`

	// Enabled controls whether the bulk dataset source participates in
	// routing at all.
	Enabled bool `mapstructure:"enabled"`

	// WarmOnStartup loads the bulk dataset before serving queries.
	WarmOnStartup bool `mapstructure:"warm_on_startup"`
}

// SourcesConfig holds upstream data source settings.
type SourcesConfig struct {
	LiveFeed LiveFeedConfig `mapstructure:"livefeed"`
	StatsAPI StatsAPIConfig `mapstructure:"statsapi"`
}

// LiveFeedConfig holds live feed source settings.
type LiveFeedConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// StatsAPIConfig holds secondary stats API settings.
type StatsAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`

	// APIKey may be a literal value or a secretref (see the secret package).
	APIKey string `mapstructure:"api_key"`

	// RateLimit is the client-side requests-per-second cap.
	RateLimit float64 `mapstructure:"rate_limit"`
}

// CacheConfig holds cache tier settings.
type CacheConfig struct {
	ProviderTTLHours int `mapstructure:"provider_ttl_hours"`
	QueryCapacity    int `mapstructure:"query_capacity"`
	QueryTTLHours    int `mapstructure:"query_ttl_hours"`
}

// ProviderTTL returns the per-source cache TTL as a duration.
func (c CacheConfig) ProviderTTL() time.Duration {
	return time.Duration(c.ProviderTTLHours) * time.Hour
}

// QueryTTL returns the query cache TTL as a duration.
func (c CacheConfig) QueryTTL() time.Duration {
	return time.Duration(c.QueryTTLHours) * time.Hour
}

// RetryConfig holds upstream retry settings.
type RetryConfig struct {
	MaxRetries       int     `mapstructure:"max_retries"`
	DelayMS          int     `mapstructure:"delay_ms"`
	Backoff          float64 `mapstructure:"backoff"`
	AttemptTimeoutMS int     `mapstructure:"attempt_timeout_ms"`
}

// InitialDelay returns the first retry delay as a duration.
func (c RetryConfig) InitialDelay() time.Duration {
	return time.Duration(c.DelayMS) * time.Millisecond
}

// AttemptTimeout returns the per-attempt deadline as a duration.
func (c RetryConfig) AttemptTimeout() time.Duration {
	return time.Duration(c.AttemptTimeoutMS) * time.Millisecond
}

// RoutingConfig holds source routing settings.
type RoutingConfig struct {
	// Fallback enables trying the remaining sources in the plan after
	// the preferred one fails. With it off a failed preferred source
	// fails the query.
	Fallback bool `mapstructure:"fallback"`
}

// MemoryConfig holds conversation memory settings.
type MemoryConfig struct {
	MaxTurns int `mapstructure:"max_turns"`
}

// SeasonConfig holds season routing settings.
type SeasonConfig struct {
	// Current pins the current season. Zero means infer from the clock.
	Current int `mapstructure:"current"`
}

// Effective returns the season to treat as current. Before March the
// previous year's season is still the active one.
func (c SeasonConfig) Effective(now time.Time) int {
	if c.Current != 0 {
		return c.Current
	}
	year := now.Year()
	if now.Month() < time.March {
		year--
	}
	return year
}

// TelemetryConfig holds observability settings.
type TelemetryConfig struct {
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// TracingConfig holds OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	Exporter   string  `mapstructure:"exporter"`
	SampleRate float64 `mapstructure:"sample_rate"`
}

// MetricsConfig holds OpenTelemetry metrics settings.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Exporter string `mapstructure:"exporter"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Dataset: DatasetConfig{
			MaxSeason:     2023,
			Enabled:       true,
			WarmOnStartup: true,
		},
		Routing: RoutingConfig{
			Fallback: true,
		},
		Sources: SourcesConfig{
			StatsAPI: StatsAPIConfig{
				RateLimit: 2,
			},
		},
		Cache: CacheConfig{
			ProviderTTLHours: 24,
			QueryCapacity:    100,
			QueryTTLHours:    1,
		},
		Retry: RetryConfig{
			MaxRetries:       3,
			DelayMS:          1000,
			Backoff:          2.0,
			AttemptTimeoutMS: 10000,
		},
		Memory: MemoryConfig{
			MaxTurns: 10,
		},
		Telemetry: TelemetryConfig{
			Tracing: TracingConfig{
				Exporter:   "none",
				SampleRate: 1.0,
			},
			Metrics: MetricsConfig{
				Exporter: "none",
			},
			Logging: LoggingConfig{
				Enabled: true,
				Level:   "info",
			},
		},
	}
}

// envBindings maps viper keys to their environment variable names.
var envBindings = map[string]string{
	"dataset.path":                "GRIDSTATS_DATASET_PATH",
	"dataset.max_season":          "GRIDSTATS_BULK_MAX_SEASON",
	"dataset.enabled":             "GRIDSTATS_BULK_CACHE_ENABLED",
	"dataset.warm_on_startup":     "GRIDSTATS_WARM_ON_STARTUP",
	"routing.fallback":            "GRIDSTATS_ENABLE_FALLBACK",
	"sources.livefeed.base_url":   "GRIDSTATS_LIVEFEED_BASE_URL",
	"sources.statsapi.base_url":   "GRIDSTATS_STATSAPI_BASE_URL",
	"sources.statsapi.api_key":    "GRIDSTATS_API_KEY",
	"sources.statsapi.rate_limit": "GRIDSTATS_API_RATE_LIMIT",
	"cache.provider_ttl_hours":    "GRIDSTATS_PROVIDER_CACHE_TTL_HOURS",
	"cache.query_capacity":        "GRIDSTATS_QUERY_CACHE_CAPACITY",
	"cache.query_ttl_hours":       "GRIDSTATS_QUERY_CACHE_TTL_HOURS",
	"retry.max_retries":           "GRIDSTATS_MAX_RETRIES",
	"retry.delay_ms":              "GRIDSTATS_RETRY_DELAY_MS",
	"retry.backoff":               "GRIDSTATS_RETRY_BACKOFF",
	"retry.attempt_timeout_ms":    "GRIDSTATS_ATTEMPT_TIMEOUT_MS",
	"memory.max_turns":            "GRIDSTATS_MAX_HISTORY_TURNS",
	"season.current":              "GRIDSTATS_CURRENT_SEASON",
	"telemetry.tracing.enabled":   "GRIDSTATS_TRACING_ENABLED",
	"telemetry.tracing.exporter":  "GRIDSTATS_TRACING_EXPORTER",
	"telemetry.metrics.enabled":   "GRIDSTATS_METRICS_ENABLED",
	"telemetry.metrics.exporter":  "GRIDSTATS_METRICS_EXPORTER",
	"telemetry.logging.enabled":   "GRIDSTATS_LOG_ENABLED",
	"telemetry.logging.level":     "GRIDSTATS_LOG_LEVEL",
}

// BindEnv attaches the GRIDSTATS_* environment bindings to a viper
// instance.
func BindEnv(v *viper.Viper) {
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
}

// LoadEnvFile loads variables from a .env file if one exists. A missing
// file is not an error; real environment variables always win.
func LoadEnvFile(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// Load reads configuration from the given viper instance and returns a
// validated Config.
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads a specific config file, applies environment
// bindings, and returns a validated Config.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	BindEnv(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Load(v)
}

// FromEnv builds a Config from the environment alone.
func FromEnv() (*Config, error) {
	v := viper.New()
	BindEnv(v)
	return Load(v)
}

// Validate checks the configuration for errors and returns a descriptive
// error if any field is invalid.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Dataset.MaxSeason < 1920 {
		errs = append(errs, fmt.Sprintf("dataset.max_season: implausible season %d", cfg.Dataset.MaxSeason))
	}

	if cfg.Sources.StatsAPI.RateLimit <= 0 {
		errs = append(errs, "sources.statsapi.rate_limit: must be positive")
	}

	if cfg.Cache.ProviderTTLHours < 0 {
		errs = append(errs, "cache.provider_ttl_hours: must be non-negative")
	}
	if cfg.Cache.QueryCapacity <= 0 {
		errs = append(errs, "cache.query_capacity: must be positive")
	}
	if cfg.Cache.QueryTTLHours < 0 {
		errs = append(errs, "cache.query_ttl_hours: must be non-negative")
	}

	if cfg.Retry.MaxRetries <= 0 {
		errs = append(errs, "retry.max_retries: must be positive")
	}
	if cfg.Retry.Backoff < 1 {
		errs = append(errs, fmt.Sprintf("retry.backoff: must be at least 1, got %g", cfg.Retry.Backoff))
	}
	if cfg.Retry.AttemptTimeoutMS <= 0 {
		errs = append(errs, "retry.attempt_timeout_ms: must be positive")
	}

	if cfg.Memory.MaxTurns <= 0 {
		errs = append(errs, "memory.max_turns: must be positive")
	}

	if cfg.Season.Current != 0 && cfg.Season.Current < 1920 {
		errs = append(errs, fmt.Sprintf("season.current: implausible season %d", cfg.Season.Current))
	}

	validExporters := map[string]bool{"otlp": true, "stdout": true, "none": true, "": true}
	if !validExporters[cfg.Telemetry.Tracing.Exporter] {
		errs = append(errs, fmt.Sprintf("telemetry.tracing.exporter: unsupported exporter %q", cfg.Telemetry.Tracing.Exporter))
	}
	validMetricExporters := map[string]bool{"otlp": true, "prometheus": true, "stdout": true, "none": true, "": true}
	if !validMetricExporters[cfg.Telemetry.Metrics.Exporter] {
		errs = append(errs, fmt.Sprintf("telemetry.metrics.exporter: unsupported exporter %q", cfg.Telemetry.Metrics.Exporter))
	}
	if cfg.Telemetry.Tracing.SampleRate < 0 || cfg.Telemetry.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Sprintf("telemetry.tracing.sample_rate: must be between 0 and 1, got %g", cfg.Telemetry.Tracing.SampleRate))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ResolveSecrets resolves secretref values in the configuration using
// the given resolver.
func (c *Config) ResolveSecrets(ctx context.Context, r *secret.Resolver) error {
	if c.Sources.StatsAPI.APIKey == "" {
		return nil
	}
	resolved, err := r.ResolveValue(ctx, c.Sources.StatsAPI.APIKey)
	if err != nil {
		return fmt.Errorf("resolving stats API key: %w", err)
	}
	c.Sources.StatsAPI.APIKey = resolved
	return nil
}
