package fetcher

import (
	"errors"
	"fmt"
	"time"

	"pixienews/internal/pkg/config"
)

// Config controls article downloads for summary enrichment.
type Config struct {
	Timeout      time.Duration
	MaxBodySize  int64
	MaxRedirects int
	UserAgent    string

	// DenyPrivateIPs refuses to connect to loopback, private and link-local
	// addresses, including ones reached through DNS or a redirect.
	DenyPrivateIPs bool
}

// DefaultConfig downloads at most 10 MiB within 10s over five redirects.
func DefaultConfig() Config {
	return Config{
		Timeout:        10 * time.Second,
		MaxBodySize:    10 << 20,
		MaxRedirects:   5,
		UserAgent:      "PixieNews/1.0 (AI News Aggregator)",
		DenyPrivateIPs: true,
	}
}

// Validate checks the configuration bounds.
func (c Config) Validate() error {
	var errs []error
	if err := config.ValidateDuration(c.Timeout, 100*time.Millisecond, 2*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("timeout: %w", err))
	}
	if c.MaxBodySize < 1<<10 || c.MaxBodySize > 100<<20 {
		errs = append(errs, fmt.Errorf("max body size %d outside [1KiB, 100MiB]", c.MaxBodySize))
	}
	if err := config.ValidateIntRange(c.MaxRedirects, 0, 10); err != nil {
		errs = append(errs, fmt.Errorf("max redirects: %w", err))
	}
	return errors.Join(errs...)
}
