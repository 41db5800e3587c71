package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"pixienews/pkg/config"
)

// PoolConfig sizes the database/sql pool.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig is sized for the preference table: a handful of point
// reads and upserts per chat message.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 30 * time.Minute,
	}
}

// PoolConfigFromEnv overlays DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS,
// DB_CONN_MAX_LIFETIME and DB_CONN_MAX_IDLE_TIME. Non-positive values are
// ignored. Idle connections never exceed the open limit.
func PoolConfigFromEnv() PoolConfig {
	cfg := DefaultPoolConfig()
	positive(&cfg.MaxOpenConns, config.GetEnvInt("DB_MAX_OPEN_CONNS", 0))
	positive(&cfg.MaxIdleConns, config.GetEnvInt("DB_MAX_IDLE_CONNS", 0))
	positive(&cfg.ConnMaxLifetime, config.GetEnvDuration("DB_CONN_MAX_LIFETIME", 0))
	positive(&cfg.ConnMaxIdleTime, config.GetEnvDuration("DB_CONN_MAX_IDLE_TIME", 0))
	cfg.MaxIdleConns = min(cfg.MaxIdleConns, cfg.MaxOpenConns)
	return cfg
}

func positive[T int | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}

func (c PoolConfig) apply(db *sql.DB) {
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
	db.SetConnMaxIdleTime(c.ConnMaxIdleTime)
}

// ErrNoDSN is returned by Open when DATABASE_URL is empty.
var ErrNoDSN = errors.New("DATABASE_URL not set")

// Open parses dsn with pgx, opens a database/sql pool on the pgx driver and
// pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}
	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	db := stdlib.OpenDB(*connCfg)
	pool := PoolConfigFromEnv()
	pool.apply(db)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s/%s: %w", connCfg.Host, connCfg.Database, err)
	}

	slog.Info("database connected",
		slog.String("host", connCfg.Host),
		slog.String("database", connCfg.Database),
		slog.Int("max_open_conns", pool.MaxOpenConns),
		slog.Int("max_idle_conns", pool.MaxIdleConns))
	return db, nil
}
