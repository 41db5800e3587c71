// Package retry re-runs an operation with a bounded number of attempts and
// a growing wait between them. Callers decide which errors are transient
// through Config.Retryable.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"syscall"
	"time"

	"pixienews/internal/observability/logging"
)

// Config describes one retry policy.
type Config struct {
	// Name labels log lines, usually a source or platform name.
	Name string

	// MaxAttempts counts the first call. Values below one mean one.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration

	// Multiplier grows the wait after each failed attempt; 1 keeps it fixed.
	Multiplier float64

	// Jitter adds up to this fraction of the wait at random.
	Jitter float64

	// Retryable reports whether err is transient. Nil means IsRetryable.
	Retryable func(error) bool

	// OnRetry runs before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// SourceFetchConfig is the per-source policy: one retry after a fixed wait.
func SourceFetchConfig(backoff time.Duration) Config {
	return Config{
		MaxAttempts:  2,
		InitialDelay: backoff,
		MaxDelay:     backoff,
		Multiplier:   1,
	}
}

// ChatAPIConfig is the policy for outbound chat platform calls.
func ChatAPIConfig() Config {
	return Config{
		MaxAttempts:  3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		Jitter:       0.1,
	}
}

// Backoff returns the wait after the given failed attempt (1-based),
// before jitter.
func (c Config) Backoff(attempt int) time.Duration {
	d := c.InitialDelay
	mult := c.Multiplier
	if mult < 1 {
		mult = 1
	}
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * mult)
		if c.MaxDelay > 0 && d >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

func (c Config) wait(attempt int) time.Duration {
	d := c.Backoff(attempt)
	if c.Jitter <= 0 || d <= 0 {
		return d
	}
	j := min(c.Jitter, 1)
	// #nosec G404 -- jitter only spreads load
	return d + time.Duration(rand.Float64()*j*float64(d))
}

// ExhaustedError is returned when every attempt failed with a retryable error.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// WithBackoff calls fn until it succeeds, fails with a non-retryable error,
// runs out of attempts or ctx ends. A non-retryable error is returned as is.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}
	attempts := max(cfg.MaxAttempts, 1)
	logger := logging.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				logger.DebugContext(ctx, "retry succeeded",
					slog.String("operation", cfg.Name),
					slog.Int("attempt", attempt))
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt == attempts {
			return &ExhaustedError{Attempts: attempts, Err: err}
		}

		wait := cfg.wait(attempt)
		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, wait)
		}
		logger.WarnContext(ctx, "transient failure, retrying",
			slog.String("operation", cfg.Name),
			slog.Int("attempt", attempt),
			slog.Duration("wait", wait),
			slog.Any("error", err))

		if serr := sleep(ctx, wait); serr != nil {
			return fmt.Errorf("retry aborted: %w", errors.Join(serr, err))
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRetryable treats network timeouts, refused or reset connections and
// 5xx, 408 and 429 responses as transient. Context errors never are.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	for _, errno := range []error{syscall.ECONNREFUSED, syscall.ECONNRESET, syscall.ETIMEDOUT, syscall.ENETUNREACH} {
		if errors.Is(err, errno) {
			return true
		}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode >= 500:
			return true
		case httpErr.StatusCode == http.StatusTooManyRequests, httpErr.StatusCode == http.StatusRequestTimeout:
			return true
		}
	}
	return false
}

// HTTPError is a non-2xx answer from a remote server.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}
