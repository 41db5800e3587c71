package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pixienews/internal/pkg/config"
)

// WorkerConfig holds the schedule and limits of the bot worker.
//
// Environment variables:
//   - WARM_CRON_SCHEDULE: cache warm schedule (default "*/30 * * * *")
//   - WARM_TIMEOUT: bound for one warm run (default 5m, range 10s-1h)
//   - WARM_PARALLELISM: regions refreshed at once (default 4, range 1-32)
//   - DIGEST_ENABLED: send the daily digest to subscribers (default true)
//   - DIGEST_CRON_SCHEDULE: digest schedule (default "0 9 * * *")
//   - DIGEST_TIMEOUT: bound for one digest run (default 10m, range 1m-2h)
//   - WORKER_TIMEZONE: IANA zone for both schedules (default "UTC")
//   - HEALTH_PORT: health and metrics port (default 9091, range 1024-65535)
type WorkerConfig struct {
	WarmSchedule    string
	WarmTimeout     time.Duration
	WarmParallelism int

	DigestEnabled  bool
	DigestSchedule string
	DigestTimeout  time.Duration

	Timezone   string
	HealthPort int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		WarmSchedule:    "*/30 * * * *",
		WarmTimeout:     5 * time.Minute,
		WarmParallelism: 4,
		DigestEnabled:   true,
		DigestSchedule:  "0 9 * * *",
		DigestTimeout:   10 * time.Minute,
		Timezone:        "UTC",
		HealthPort:      9091,
	}
}

// Validate reports every invalid field at once.
func (c *WorkerConfig) Validate() error {
	var errs []error
	if err := config.ValidateCronSchedule(c.WarmSchedule); err != nil {
		errs = append(errs, fmt.Errorf("warm schedule: %w", err))
	}
	if err := config.ValidateCronSchedule(c.DigestSchedule); err != nil {
		errs = append(errs, fmt.Errorf("digest schedule: %w", err))
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.WarmTimeout); err != nil {
		errs = append(errs, fmt.Errorf("warm timeout: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.DigestTimeout); err != nil {
		errs = append(errs, fmt.Errorf("digest timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.WarmParallelism, 1, 32); err != nil {
		errs = append(errs, fmt.Errorf("warm parallelism: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	return errors.Join(errs...)
}

// Location resolves Timezone, falling back to UTC.
func (c *WorkerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// LoadConfigFromEnv loads the worker configuration fail-open: every invalid
// value falls back to its default, is logged and counted in metrics. The
// error is always nil.
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	c := config.NewCollector(cm)

	cfg.WarmSchedule = config.Track(c, "warm_cron_schedule",
		config.LoadEnvWithFallback("WARM_CRON_SCHEDULE", cfg.WarmSchedule, config.ValidateCronSchedule))
	cfg.WarmTimeout = config.Track(c, "warm_timeout",
		config.LoadEnvDuration("WARM_TIMEOUT", cfg.WarmTimeout, config.DurationRange(10*time.Second, time.Hour)))
	cfg.WarmParallelism = config.Track(c, "warm_parallelism",
		config.LoadEnvInt("WARM_PARALLELISM", cfg.WarmParallelism, config.IntRange(1, 32)))
	cfg.DigestEnabled = config.Track(c, "digest_enabled",
		config.LoadEnvBool("DIGEST_ENABLED", cfg.DigestEnabled))
	cfg.DigestSchedule = config.Track(c, "digest_cron_schedule",
		config.LoadEnvWithFallback("DIGEST_CRON_SCHEDULE", cfg.DigestSchedule, config.ValidateCronSchedule))
	cfg.DigestTimeout = config.Track(c, "digest_timeout",
		config.LoadEnvDuration("DIGEST_TIMEOUT", cfg.DigestTimeout, config.DurationRange(time.Minute, 2*time.Hour)))
	cfg.Timezone = config.Track(c, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.HealthPort = config.Track(c, "health_port",
		config.LoadEnvInt("HEALTH_PORT", cfg.HealthPort, config.IntRange(1024, 65535)))

	for _, w := range c.Finish() {
		logger.Warn("Configuration fallback applied", slog.String("warning", w))
	}
	return &cfg, nil
}
