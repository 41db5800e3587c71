// Package logging provides structured logging utilities with context propagation.
//
// Servers log JSON to stdout; the CLI logs text to stderr. Both wrap their
// handler in ContextHandler, so lines logged with a context carry the
// request (or chat message) ID and the trace ID.
//
// Example usage:
//
//	logger := logging.NewLogger()
//	ctx = logging.WithLogger(ctx, logger)
//	logging.FromContext(ctx).InfoContext(ctx, "refreshing region", slog.String("region", "US"))
package logging
