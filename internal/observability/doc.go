// Package observability groups logging, metrics and tracing infrastructure.
//
// Subpackages:
//   - logging: slog loggers with request ID and context propagation
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry spans and HTTP middleware
package observability
