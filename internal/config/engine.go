// Package config loads PixieNews runtime configuration: engine tuning and
// channel credentials from the environment, and the region catalog from YAML.
package config

import (
	"errors"
	"fmt"
	"time"

	"pixienews/internal/infra/scraper"
	pkgconfig "pixienews/internal/pkg/config"
	"pixienews/internal/usecase/aggregate"
	"pixienews/internal/usecase/cache"
	"pixienews/internal/usecase/fetch"
)

// EngineConfig tunes the aggregation engine.
type EngineConfig struct {
	Cache  cache.Config
	Fetch  fetch.Config
	Enrich aggregate.EnrichConfig

	// UserAgent is sent with every source request.
	UserAgent string
	// TopicFilter globally enables the AI/ML keyword filter. Sources may
	// still opt out individually.
	TopicFilter bool
	// RegionsFile overrides the embedded region catalog when set.
	RegionsFile string
}

// DefaultEngineConfig mirrors the values used when no environment is set.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Cache:       cache.DefaultConfig(),
		Fetch:       fetch.DefaultConfig(),
		Enrich:      aggregate.DefaultEnrichConfig(),
		UserAgent:   scraper.DefaultUserAgent,
		TopicFilter: true,
	}
}

// LoadEngineConfig reads the engine settings from the environment. Invalid
// values fall back to defaults; the returned warnings describe each
// fallback. metrics may be nil.
func LoadEngineConfig(metrics *pkgconfig.ConfigMetrics) (EngineConfig, []string) {
	cfg := DefaultEngineConfig()
	c := pkgconfig.NewCollector(metrics)

	cfg.Cache.TTL = pkgconfig.Track(c, "cache_ttl",
		pkgconfig.LoadEnvDuration("CACHE_TTL", cfg.Cache.TTL, pkgconfig.DurationRange(time.Second, 24*time.Hour)))
	cfg.Cache.CeilingFactor = pkgconfig.Track(c, "cache_stale_ceiling_factor",
		pkgconfig.LoadEnvInt("CACHE_STALE_CEILING_FACTOR", cfg.Cache.CeilingFactor, pkgconfig.IntRange(1, 100)))
	cfg.Fetch.AdapterTimeout = pkgconfig.Track(c, "adapter_timeout",
		pkgconfig.LoadEnvDuration("ADAPTER_TIMEOUT", cfg.Fetch.AdapterTimeout, pkgconfig.DurationRange(100*time.Millisecond, 2*time.Minute)))
	cfg.Fetch.RetryBackoff = pkgconfig.Track(c, "adapter_retry_backoff",
		pkgconfig.LoadEnvDuration("ADAPTER_RETRY_BACKOFF", cfg.Fetch.RetryBackoff, pkgconfig.DurationRange(time.Millisecond, 30*time.Second)))
	cfg.Fetch.SourceLimit = pkgconfig.Track(c, "source_item_limit",
		pkgconfig.LoadEnvInt("SOURCE_ITEM_LIMIT", cfg.Fetch.SourceLimit, pkgconfig.IntRange(1, 100)))
	cfg.TopicFilter = pkgconfig.Track(c, "topic_filter_enabled",
		pkgconfig.LoadEnvBool("TOPIC_FILTER_ENABLED", cfg.TopicFilter))
	cfg.Enrich.Enabled = pkgconfig.Track(c, "enrich_summaries",
		pkgconfig.LoadEnvBool("ENRICH_SUMMARIES", cfg.Enrich.Enabled))
	cfg.Enrich.Parallelism = pkgconfig.Track(c, "enrich_parallelism",
		pkgconfig.LoadEnvInt("ENRICH_PARALLELISM", cfg.Enrich.Parallelism, pkgconfig.IntRange(1, 32)))

	cfg.UserAgent = pkgconfig.LoadEnvString("FETCH_USER_AGENT", cfg.UserAgent)
	cfg.RegionsFile = pkgconfig.LoadEnvString("REGIONS_FILE", "")

	return cfg, c.Finish()
}

// Validate reports every invalid field at once.
func (c EngineConfig) Validate() error {
	var errs []error
	if c.Cache.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %v", c.Cache.TTL))
	}
	if c.Cache.CeilingFactor < 1 {
		errs = append(errs, fmt.Errorf("cache stale ceiling factor must be >= 1, got %d", c.Cache.CeilingFactor))
	}
	if c.Fetch.AdapterTimeout <= 0 {
		errs = append(errs, fmt.Errorf("adapter timeout must be positive, got %v", c.Fetch.AdapterTimeout))
	}
	if c.Fetch.RetryBackoff < 0 {
		errs = append(errs, fmt.Errorf("adapter retry backoff must not be negative, got %v", c.Fetch.RetryBackoff))
	}
	if c.Fetch.SourceLimit <= 0 {
		errs = append(errs, fmt.Errorf("source item limit must be positive, got %d", c.Fetch.SourceLimit))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	// refresh must finish well inside the freshness window
	if c.Fetch.Deadline() >= c.Cache.TTL {
		errs = append(errs, fmt.Errorf("fetch deadline %v must be shorter than cache ttl %v", c.Fetch.Deadline(), c.Cache.TTL))
	}
	return errors.Join(errs...)
}
