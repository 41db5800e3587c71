package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"pixienews/internal/handler/http/requestid"
)

// NewLogger returns the JSON logger used by the servers. Level comes from
// LOG_LEVEL; warn and above carry the source location.
func NewLogger() *slog.Logger {
	return newLogger(os.Stdout, true)
}

// NewTextLogger writes human-readable lines to w (stderr when nil).
func NewTextLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	return newLogger(w, false)
}

func newLogger(w io.Writer, jsonOut bool) *slog.Logger {
	level := LevelFromEnv()
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if jsonOut {
		opts.AddSource = level <= slog.LevelWarn
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(ContextHandler{Handler: h})
}

// LevelFromEnv parses LOG_LEVEL. Empty or unknown values mean info.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ContextHandler stamps request_id and trace_id from the record's context
// onto every line logged through the *Context methods, unless the logger
// already carries them through With.
type ContextHandler struct {
	slog.Handler
	hasRequestID bool
	hasTraceID   bool
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := requestid.FromContext(ctx); id != "" && !h.hasRequestID {
		r.AddAttrs(slog.String("request_id", id))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() && !h.hasTraceID {
		r.AddAttrs(slog.String("trace_id", sc.TraceID().String()))
	}
	return h.Handler.Handle(ctx, r)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h
	next.Handler = h.Handler.WithAttrs(attrs)
	for _, a := range attrs {
		switch a.Key {
		case "request_id":
			next.hasRequestID = true
		case "trace_id":
			next.hasTraceID = true
		}
	}
	return next
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	next := h
	next.Handler = h.Handler.WithGroup(name)
	return next
}

// WithRequestID binds the request ID from ctx to logger, for loggers that
// outlive the request context (async webhook replies).
func WithRequestID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := requestid.FromContext(ctx); id != "" {
		return logger.With(slog.String("request_id", id))
	}
	return logger
}

type loggerKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
