package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	cfg, warnings := LoadServerConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, DefaultServerConfig(), cfg)
}

func TestLoadServerConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "10s")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("TRACE_SAMPLE_RATIO", "0.25")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8")
	t.Setenv("WARM_ON_START", "false")

	cfg, warnings := LoadServerConfig(nil)

	assert.Empty(t, warnings)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.InDelta(t, 2.5, cfg.RateLimit, 1e-9)
	assert.Equal(t, 5, cfg.RateBurst)
	assert.InDelta(t, 0.25, cfg.TraceSampleRatio, 1e-9)
	assert.Equal(t, "10.0.0.0/8", cfg.TrustedProxies)
	assert.False(t, cfg.WarmOnStart)
}

func TestLoadServerConfig_InvalidFallsBack(t *testing.T) {
	t.Setenv("TRACE_SAMPLE_RATIO", "2")
	t.Setenv("RATE_LIMIT_BURST", "zero")

	cfg, warnings := LoadServerConfig(nil)

	assert.Len(t, warnings, 2)
	assert.Zero(t, cfg.TraceSampleRatio)
	assert.Equal(t, 20, cfg.RateBurst)
}
