package segbloom

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with segbloom-specific context.
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
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithSegment adds a segment field to the logger.
func (l *Logger) WithSegment(id SegmentID) *Logger {
	return &Logger{
		Logger: l.Logger.With("segment", uint64(id)),
	}
}

// WithField adds a field name to the logger.
func (l *Logger) WithField(field string) *Logger {
	return &Logger{
		Logger: l.Logger.With("field", field),
	}
}

// LogBuild logs the outcome of a filter build.
func (l *Logger) LogBuild(ctx context.Context, id SegmentID, field string, outcome BuildOutcome, d time.Duration, err error) {
	switch outcome {
	case BuildFailed:
		l.WarnContext(ctx, "failed to build membership filter",
			"segment", uint64(id),
			"field", field,
			"error", err,
		)
	case BuildRejected:
		l.WarnContext(ctx, "membership filter rejected",
			"segment", uint64(id),
			"field", field,
			"error", err,
		)
	case BuildAbandoned:
		l.DebugContext(ctx, "membership filter build abandoned",
			"segment", uint64(id),
			"field", field,
			"reason", err,
		)
	default:
		l.DebugContext(ctx, "membership filter built",
			"segment", uint64(id),
			"field", field,
			"duration", d,
		)
	}
}

// LogInvalidate logs the removal of a segment's filters.
func (l *Logger) LogInvalidate(ctx context.Context, id SegmentID, entries int, bytes int64) {
	l.DebugContext(ctx, "segment filters invalidated",
		"segment", uint64(id),
		"entries", entries,
		"bytes", bytes,
	)
}
