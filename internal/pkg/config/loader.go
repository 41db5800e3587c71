// Package config implements fail-open environment loading. Loaders never
// return errors: an unparseable or invalid value falls back to the default
// and produces a warning the caller can log and count.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadResult carries a loaded value together with fallback diagnostics.
//
// Example:
//
//	res := LoadEnvDuration("CACHE_TTL", 15*time.Minute, ValidatePositiveDuration)
//	for _, w := range res.Warnings {
//	    logger.Warn("configuration fallback", slog.String("warning", w))
//	}
//	ttl := res.Value
type LoadResult[T any] struct {
	Value           T
	Warnings        []string
	FallbackApplied bool
}

func ok[T any](v T) LoadResult[T] {
	return LoadResult[T]{Value: v}
}

func fallback[T any](envKey, raw string, def T, err error) LoadResult[T] {
	return LoadResult[T]{
		Value:           def,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, err, def)},
		FallbackApplied: true,
	}
}

// LoadEnvString reads envKey without validation.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback reads envKey and validates it. A nil validator
// accepts any non-empty value.
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) LoadResult[string] {
	value := os.Getenv(envKey)
	if value == "" {
		return ok(defaultValue)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, value, defaultValue, err)
		}
	}
	return ok(value)
}

// LoadEnvDuration parses envKey with time.ParseDuration, then validates.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) LoadResult[time.Duration] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(defaultValue)
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}
	return ok(value)
}

// LoadEnvInt parses envKey as a base-10 integer, then validates.
// Surrounding whitespace is not accepted.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) LoadResult[int] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(defaultValue)
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback(envKey, raw, defaultValue, err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}
	return ok(value)
}

// LoadEnvFloat parses envKey as a float64, then validates.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) LoadResult[float64] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(defaultValue)
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback(envKey, raw, defaultValue, err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, raw, defaultValue, err)
		}
	}
	return ok(value)
}

// LoadEnvBool parses envKey with strconv.ParseBool semantics
// (1/t/true/0/f/false in any case).
func LoadEnvBool(envKey string, defaultValue bool) LoadResult[bool] {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ok(defaultValue)
	}
	value, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return fallback(envKey, raw, defaultValue, err)
	}
	return ok(value)
}

// Collector accumulates warnings from several loads and reports fallbacks
// to a ConfigMetrics instance when one is attached.
type Collector struct {
	Warnings []string
	metrics  *ConfigMetrics
}

// NewCollector returns a Collector. metrics may be nil.
func NewCollector(metrics *ConfigMetrics) *Collector {
	return &Collector{metrics: metrics}
}

// Track records res under field and returns its value.
func Track[T any](c *Collector, field string, res LoadResult[T]) T {
	if res.FallbackApplied {
		c.Warnings = append(c.Warnings, res.Warnings...)
		if c.metrics != nil {
			c.metrics.RecordValidationError(field)
			c.metrics.RecordFallback(field, "default")
		}
	}
	return res.Value
}

// Finish records the load timestamp and the aggregate fallback gauge.
func (c *Collector) Finish() []string {
	if c.metrics != nil {
		c.metrics.RecordLoadTimestamp()
		c.metrics.SetFallbackActive(len(c.Warnings) > 0)
	}
	return c.Warnings
}
