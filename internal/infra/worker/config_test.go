package worker

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "*/30 * * * *", cfg.WarmSchedule)
	assert.Equal(t, "0 9 * * *", cfg.DigestSchedule)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestWorkerConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarmSchedule = "every minute"
	cfg.Timezone = "Mars/Olympus"
	cfg.WarmParallelism = 0
	cfg.HealthPort = 80

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"warm schedule", "timezone", "warm parallelism", "health port"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("reads valid values", func(t *testing.T) {
		t.Setenv("WARM_CRON_SCHEDULE", "*/10 * * * *")
		t.Setenv("WARM_TIMEOUT", "2m")
		t.Setenv("WARM_PARALLELISM", "8")
		t.Setenv("DIGEST_ENABLED", "false")
		t.Setenv("DIGEST_CRON_SCHEDULE", "@daily")
		t.Setenv("WORKER_TIMEZONE", "Asia/Tokyo")
		t.Setenv("HEALTH_PORT", "9200")

		metrics := NewWorkerMetricsWith(prometheus.NewRegistry())
		cfg, err := LoadConfigFromEnv(quietLogger(), metrics)
		require.NoError(t, err)

		assert.Equal(t, "*/10 * * * *", cfg.WarmSchedule)
		assert.Equal(t, 2*time.Minute, cfg.WarmTimeout)
		assert.Equal(t, 8, cfg.WarmParallelism)
		assert.False(t, cfg.DigestEnabled)
		assert.Equal(t, "@daily", cfg.DigestSchedule)
		assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
		assert.Equal(t, 9200, cfg.HealthPort)
		assert.Equal(t, float64(0), testutil.ToFloat64(metrics.FallbackActive))
	})

	t.Run("falls back on invalid values", func(t *testing.T) {
		t.Setenv("WARM_CRON_SCHEDULE", "not a cron")
		t.Setenv("WARM_PARALLELISM", "1000")
		t.Setenv("WORKER_TIMEZONE", "Nowhere/City")

		metrics := NewWorkerMetricsWith(prometheus.NewRegistry())
		cfg, err := LoadConfigFromEnv(quietLogger(), metrics)
		require.NoError(t, err)

		d := DefaultConfig()
		assert.Equal(t, d.WarmSchedule, cfg.WarmSchedule)
		assert.Equal(t, d.WarmParallelism, cfg.WarmParallelism)
		assert.Equal(t, d.Timezone, cfg.Timezone)
		require.NoError(t, cfg.Validate())

		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.FallbackActive))
		assert.Equal(t, float64(1), testutil.ToFloat64(metrics.ValidationErrorsTotal.WithLabelValues("warm_cron_schedule")))
	})

	t.Run("nil metrics", func(t *testing.T) {
		cfg, err := LoadConfigFromEnv(quietLogger(), nil)
		require.NoError(t, err)
		assert.NotNil(t, cfg)
	})
}
