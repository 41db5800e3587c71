// Package circuitbreaker stops calling a remote that keeps failing. Each news
// source gets its own breaker, so a dead feed is skipped immediately on the
// next refresh instead of burning a full adapter timeout.
package circuitbreaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"pixienews/internal/observability/metrics"
)

// Config tunes one breaker.
type Config struct {
	Name string

	// Probes is how many calls are let through while half-open.
	Probes uint32

	// Window resets the closed-state counts; zero never resets them.
	Window time.Duration

	// Cooldown is how long the breaker stays open before probing.
	Cooldown time.Duration

	// The breaker opens once MinRequests calls were seen in the window and
	// at least TripRatio of them failed.
	TripRatio   float64
	MinRequests uint32
}

// SourceConfig opens a source after sustained failures across several
// refresh rounds and probes it again after five minutes.
func SourceConfig(source string) Config {
	return Config{
		Name:        "source:" + source,
		Probes:      1,
		Window:      30 * time.Minute,
		Cooldown:    5 * time.Minute,
		TripRatio:   0.8,
		MinRequests: 6,
	}
}

// ContentConfig guards article page downloads, which all share one breaker.
func ContentConfig() Config {
	return Config{
		Name:        "content-fetch",
		Probes:      5,
		Window:      time.Minute,
		Cooldown:    time.Minute,
		TripRatio:   0.6,
		MinRequests: 5,
	}
}

// CircuitBreaker is a named gobreaker whose transitions are logged and
// exported as the circuit_breaker_state gauge.
type CircuitBreaker struct {
	cb *gobreaker.CircuitBreaker
}

// New creates a closed breaker.
func New(cfg Config) *CircuitBreaker {
	metrics.RecordBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return &CircuitBreaker{cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.Probes,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= cfg.MinRequests &&
				float64(c.TotalFailures) >= cfg.TripRatio*float64(c.Requests)
		},
		// caller cancellation says nothing about the remote
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			level := slog.LevelWarn
			if to == gobreaker.StateClosed {
				level = slog.LevelInfo
			}
			slog.Log(context.Background(), level, "circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			metrics.RecordBreakerState(name, int(to))
		},
	})}
}

// Do runs fn through the breaker. While open it fails fast with an error
// for which IsOpenError is true.
func Do[T any](b *CircuitBreaker, fn func() (T, error)) (T, error) {
	res, err := b.cb.Execute(func() (interface{}, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}

// Name returns the configured name.
func (b *CircuitBreaker) Name() string { return b.cb.Name() }

// State returns the current state.
func (b *CircuitBreaker) State() gobreaker.State { return b.cb.State() }

// IsOpen reports whether calls are currently rejected.
func (b *CircuitBreaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// IsOpenError reports whether err came from an open or saturated breaker.
func IsOpenError(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
