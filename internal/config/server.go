package config

import (
	"time"

	pkgconfig "pixienews/internal/pkg/config"
)

// ServerConfig tunes the HTTP API process.
type ServerConfig struct {
	Addr           string
	RequestTimeout time.Duration
	// WebhookTimeout bounds the background reply to one inbound chat message.
	WebhookTimeout time.Duration
	MaxBodyBytes   int64

	RateLimit      float64
	RateBurst      int
	TrustedProxies string

	TraceSampleRatio float64
	TraceLogSpans    bool

	// WarmOnStart refreshes every region before /ready reports ready.
	WarmOnStart bool
}

// DefaultServerConfig returns the settings used when nothing is configured.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":8080",
		RequestTimeout: 30 * time.Second,
		WebhookTimeout: 30 * time.Second,
		MaxBodyBytes:   1 << 20,
		RateLimit:      5,
		RateBurst:      20,
		WarmOnStart:    true,
	}
}

// LoadServerConfig reads the API settings from the environment with the
// same fail-open rules as LoadEngineConfig.
func LoadServerConfig(metrics *pkgconfig.ConfigMetrics) (ServerConfig, []string) {
	cfg := DefaultServerConfig()
	c := pkgconfig.NewCollector(metrics)

	cfg.Addr = pkgconfig.LoadEnvString("HTTP_ADDR", cfg.Addr)
	cfg.RequestTimeout = pkgconfig.Track(c, "request_timeout",
		pkgconfig.LoadEnvDuration("HTTP_REQUEST_TIMEOUT", cfg.RequestTimeout, pkgconfig.DurationRange(time.Second, 5*time.Minute)))
	cfg.WebhookTimeout = pkgconfig.Track(c, "webhook_timeout",
		pkgconfig.LoadEnvDuration("WEBHOOK_REPLY_TIMEOUT", cfg.WebhookTimeout, pkgconfig.DurationRange(time.Second, 5*time.Minute)))
	cfg.RateLimit = pkgconfig.Track(c, "rate_limit_rps",
		pkgconfig.LoadEnvFloat("RATE_LIMIT_RPS", cfg.RateLimit, func(v float64) error {
			return pkgconfig.ValidateFloatRange(v, 0.1, 10000)
		}))
	cfg.RateBurst = pkgconfig.Track(c, "rate_limit_burst",
		pkgconfig.LoadEnvInt("RATE_LIMIT_BURST", cfg.RateBurst, pkgconfig.IntRange(1, 10000)))
	cfg.TraceSampleRatio = pkgconfig.Track(c, "trace_sample_ratio",
		pkgconfig.LoadEnvFloat("TRACE_SAMPLE_RATIO", cfg.TraceSampleRatio, func(v float64) error {
			return pkgconfig.ValidateFloatRange(v, 0, 1)
		}))
	cfg.TraceLogSpans = pkgconfig.Track(c, "trace_log_spans",
		pkgconfig.LoadEnvBool("TRACE_LOG_SPANS", cfg.TraceLogSpans))
	cfg.WarmOnStart = pkgconfig.Track(c, "warm_on_start",
		pkgconfig.LoadEnvBool("WARM_ON_START", cfg.WarmOnStart))
	cfg.TrustedProxies = pkgconfig.LoadEnvString("TRUSTED_PROXIES", "")

	return cfg, c.Finish()
}
