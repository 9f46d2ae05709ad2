// Package logger configures structured logging via log/slog and tags
// log lines with the long-running operation (segment build, merge) that
// produced them.
package logger

import (
	"context"
	"log/slog"
	"os"
)

type contextKey struct{}

// Setup installs the default slog.Logger, choosing the handler from format
// ("json" or anything else for text) and filtering by level.
func Setup(level string, format string) {
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, opts)
	default:
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithOperationID attaches an operation ID (a segment-build or merge run) to
// ctx, so every log line derived from FromContext carries it.
func WithOperationID(ctx context.Context, operationID string) context.Context {
	return context.WithValue(ctx, contextKey{}, operationID)
}

// FromContext returns the default logger, augmented with the operation ID
// attached by WithOperationID if present.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if operationID, ok := ctx.Value(contextKey{}).(string); ok {
		logger = logger.With("operation_id", operationID)
	}
	return logger
}

// WithComponent returns the default logger tagged with a component name
// ("segment", "merge", "terms", ...).
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
