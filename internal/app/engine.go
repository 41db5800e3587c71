// Package app assembles the aggregation engine and its storage for the
// binaries under cmd/.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"pixienews/internal/config"
	"pixienews/internal/domain/entity"
	"pixienews/internal/infra/adapter/persistence/memory"
	"pixienews/internal/infra/adapter/persistence/postgres"
	"pixienews/internal/infra/db"
	"pixienews/internal/infra/fetcher"
	"pixienews/internal/infra/scraper"
	"pixienews/internal/repository"
	"pixienews/internal/usecase/aggregate"
	"pixienews/internal/usecase/cache"
	"pixienews/internal/usecase/fetch"
	"pixienews/internal/usecase/query"
)

// Engine is the assembled aggregation engine.
type Engine struct {
	Config       config.EngineConfig
	Registry     *fetch.Registry
	Orchestrator *fetch.Orchestrator
	Store        *cache.Store
	Query        *query.Engine
}

// Options override parts of the default wiring. Zero values mean defaults.
type Options struct {
	// Regions replaces the catalog loaded from Config.RegionsFile.
	Regions []entity.Region
	// Factory replaces the built-in RSS/HTML adapter factory.
	Factory fetch.AdapterFactory
}

// NewEngine builds registry, orchestrator, refresh pipeline, cache store and
// query engine from cfg.
func NewEngine(cfg config.EngineConfig, opts Options, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	regions := opts.Regions
	if regions == nil {
		var err error
		regions, err = config.LoadRegions(cfg.RegionsFile)
		if err != nil {
			return nil, fmt.Errorf("load regions: %w", err)
		}
	}

	factory := opts.Factory
	if factory == nil {
		factory = scraper.NewFactory(
			scraper.NewHTTPClient(2*cfg.Fetch.AdapterTimeout),
			scraper.FactoryConfig{UserAgent: cfg.UserAgent, TopicFilter: cfg.TopicFilter},
		)
	}

	registry, err := fetch.NewRegistry(regions, factory)
	if err != nil {
		return nil, fmt.Errorf("build source registry: %w", err)
	}
	orchestrator := fetch.NewOrchestrator(registry, cfg.Fetch)

	var content aggregate.ContentFetcher
	if cfg.Enrich.Enabled {
		fc := fetcher.DefaultConfig()
		fc.UserAgent = cfg.UserAgent
		if err := fc.Validate(); err != nil {
			return nil, fmt.Errorf("invalid content fetcher config: %w", err)
		}
		content = fetcher.NewReadabilityFetcher(fc)
	}
	pipeline := aggregate.NewPipeline(orchestrator, content, cfg.Enrich)
	store := cache.NewStore(pipeline, cfg.Cache)

	logger.Info("engine initialized",
		slog.Int("regions", len(registry.Codes())),
		slog.Duration("cache_ttl", cfg.Cache.TTL),
		slog.Duration("stale_ceiling", cfg.Cache.Ceiling()),
		slog.Duration("adapter_timeout", cfg.Fetch.AdapterTimeout),
		slog.Bool("topic_filter", cfg.TopicFilter),
		slog.Bool("enrich_summaries", cfg.Enrich.Enabled))

	return &Engine{
		Config:       cfg,
		Registry:     registry,
		Orchestrator: orchestrator,
		Store:        store,
		Query:        query.NewEngine(store, registry),
	}, nil
}

// OpenPreferences returns a PostgreSQL backed repository when dsn is set and
// an in-memory one otherwise. The returned *sql.DB is nil in the latter case
// and must be closed by the caller otherwise.
func OpenPreferences(ctx context.Context, dsn string, logger *slog.Logger) (repository.PreferenceRepository, *sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := db.Open(ctx, dsn)
	if errors.Is(err, db.ErrNoDSN) {
		logger.Warn("DATABASE_URL not set, preferences are kept in memory")
		return memory.NewPreferenceRepo(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if err := db.MigrateUp(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	logger.Info("preferences stored in postgres")
	return postgres.NewPreferenceRepo(conn), conn, nil
}
