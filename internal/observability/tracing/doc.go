// Package tracing provides OpenTelemetry tracing integration.
//
// HTTP requests are traced by Middleware. Region refreshes and per-source
// fetches create internal spans through StartSpan so a slow or failing source
// shows up under the request that triggered it.
//
// The tracer provider is whatever has been installed with otel.SetTracerProvider;
// without one, spans are no-ops.
package tracing
