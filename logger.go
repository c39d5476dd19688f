package qbucket

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with qbucket-specific context.
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
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithAttribute adds a numeric attribute field to the logger.
func (l *Logger) WithAttribute(attribute string) *Logger {
	return &Logger{
		Logger: l.Logger.With("attribute", attribute),
	}
}

// WithDepth adds a max depth field to the logger.
func (l *Logger) WithDepth(depth int) *Logger {
	return &Logger{
		Logger: l.Logger.With("max_depth", depth),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogBuild logs a build.
func (l *Logger) LogBuild(ctx context.Context, entries int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"duration", duration,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"entries", entries,
			"duration", duration,
		)
	}
}

// LogQuery logs a boundary query.
func (l *Logger) LogQuery(ctx context.Context, attribute string, bucket int, key string, err error) {
	if err != nil {
		l.DebugContext(ctx, "query failed",
			"attribute", attribute,
			"bucket", bucket,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "query completed",
			"attribute", attribute,
			"bucket", bucket,
			"key", key,
		)
	}
}

// LogSave logs a catalog save.
func (l *Logger) LogSave(ctx context.Context, version uint64, path string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index saved",
			"version", version,
			"path", path,
		)
	}
}

// LogLoad logs a catalog load.
func (l *Logger) LogLoad(ctx context.Context, version uint64, entries int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"version", version,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "index loaded",
			"version", version,
			"entries", entries,
		)
	}
}
