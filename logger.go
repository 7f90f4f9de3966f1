package postcodes

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with postcode-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.DiscardHandler),
	}
}

// WithIndex adds the region/index name to the logger.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("index", name),
	}
}

// LogOpen logs the construction of an index.
func (l *Logger) LogOpen(ctx context.Context, header string, points int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "postcode index open failed",
			"duration", duration,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "postcode index opened",
		"header", header,
		"points", points,
		"duration", duration,
	)
}

// LogLookup logs a lookup.
func (l *Logger) LogLookup(ctx context.Context, tokens string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "postcode lookup failed",
			"tokens", tokens,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "postcode lookup completed",
		"tokens", tokens,
		"results", results,
	)
}

// LogRelease logs the deferred release of an index's blob.
func (l *Logger) LogRelease(ctx context.Context, err error) {
	if err != nil {
		l.ErrorContext(ctx, "postcode index release failed", "error", err)
		return
	}
	l.DebugContext(ctx, "postcode index released")
}
