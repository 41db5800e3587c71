package config

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "pixienews/internal/pkg/config"
)

func TestLoadEngineConfig_Defaults(t *testing.T) {
	cfg, warnings := LoadEngineConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 6, cfg.Cache.CeilingFactor)
	assert.Equal(t, 10*time.Second, cfg.Fetch.AdapterTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.Fetch.RetryBackoff)
	assert.Equal(t, 10, cfg.Fetch.SourceLimit)
	assert.True(t, cfg.TopicFilter)
	assert.False(t, cfg.Enrich.Enabled)
	assert.Equal(t, "PixieNews/1.0 (AI News Aggregator)", cfg.UserAgent)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEngineConfig_FromEnv(t *testing.T) {
	t.Setenv("CACHE_TTL", "5m")
	t.Setenv("CACHE_STALE_CEILING_FACTOR", "3")
	t.Setenv("ADAPTER_TIMEOUT", "4s")
	t.Setenv("SOURCE_ITEM_LIMIT", "20")
	t.Setenv("TOPIC_FILTER_ENABLED", "false")
	t.Setenv("ENRICH_SUMMARIES", "true")
	t.Setenv("FETCH_USER_AGENT", "custom/1.0")
	t.Setenv("REGIONS_FILE", "/etc/pixienews/regions.yaml")

	cfg, warnings := LoadEngineConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 3, cfg.Cache.CeilingFactor)
	assert.Equal(t, 4*time.Second, cfg.Fetch.AdapterTimeout)
	assert.Equal(t, 20, cfg.Fetch.SourceLimit)
	assert.False(t, cfg.TopicFilter)
	assert.True(t, cfg.Enrich.Enabled)
	assert.Equal(t, "custom/1.0", cfg.UserAgent)
	assert.Equal(t, "/etc/pixienews/regions.yaml", cfg.RegionsFile)
}

func TestLoadEngineConfig_InvalidFallsBack(t *testing.T) {
	t.Setenv("CACHE_TTL", "forever")
	t.Setenv("SOURCE_ITEM_LIMIT", "0")

	reg := prometheus.NewRegistry()
	m := pkgconfig.NewConfigMetricsWith(reg, "engine_test")
	cfg, warnings := LoadEngineConfig(m)

	assert.Len(t, warnings, 2)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.Fetch.SourceLimit)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("cache_ttl", "default")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
}

func TestEngineConfig_Validate(t *testing.T) {
	cfg := DefaultEngineConfig()
	cfg.Cache.TTL = 10 * time.Second
	cfg.Fetch.SourceLimit = 0
	cfg.UserAgent = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source item limit")
	assert.Contains(t, err.Error(), "user agent")
	assert.Contains(t, err.Error(), "fetch deadline")
}

func TestLoadChannelsConfig(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "")
	t.Setenv("JWT_SECRET", "short")

	cfg := LoadChannelsConfig()

	assert.True(t, cfg.TelegramEnabled())
	assert.False(t, cfg.WhatsAppBusinessEnabled())
	assert.Equal(t, "ws://localhost:3001", cfg.WhatsAppBridgeURL)
	assert.True(t, cfg.AdminEnabled())
	assert.Error(t, cfg.ValidateAdmin())
}
