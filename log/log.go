package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// NewHandler sets up a text slog.Handler tagged with the component name
func NewHandler(w io.Writer, name string, level slog.Level) slog.Handler {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return handler.WithAttrs([]slog.Attr{slog.String("component", name)})
}

// New returns a logger writing to stderr at the given level
func New(name string, level slog.Level) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, name, level))
}

// ParseLevel maps a config string to a slog level, defaulting to info
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// Discard is a logger that drops everything, for tests
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctxKey struct{}

// IntoContext adds a logger to a context. Use FromContext to
// pull the logger out.
func IntoContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns a logger from a context.Context;
// if the passed context is nil or carries none, we return fallback,
// or the default slog logger when fallback is nil.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
