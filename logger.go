package matchkit

import (
	"context"
	"log/slog"
	"os"

	"github.com/subashy6/matchkit/core"
)

// Logger wraps slog.Logger with matchkit-specific context.
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
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithAttribute adds an attribute id field to the logger.
func (l *Logger) WithAttribute(id core.AttributeID) *Logger {
	return &Logger{
		Logger: l.Logger.With("attribute_id", id.String()),
	}
}

// WithTerm adds a term id field to the logger.
func (l *Logger) WithTerm(id core.TermID) *Logger {
	return &Logger{
		Logger: l.Logger.With("term_id", id.String()),
	}
}

// WithK adds a k (neighbor count) field to the logger.
func (l *Logger) WithK(k int) *Logger {
	return &Logger{
		Logger: l.Logger.With("k", k),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogSet logs a fingerprint insert or update.
func (l *Logger) LogSet(ctx context.Context, id core.AttributeID, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "set fingerprint failed",
			"attribute_id", id.String(),
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "set fingerprint completed",
			"attribute_id", id.String(),
			"dimension", dimension,
		)
	}
}

// LogBatchSet logs a batch fingerprint mutation.
func (l *Logger) LogBatchSet(ctx context.Context, count, failed int) {
	if failed > 0 {
		l.WarnContext(ctx, "batch set completed with failures",
			"total", count,
			"failed", failed,
			"success", count-failed,
		)
	} else {
		l.InfoContext(ctx, "batch set completed",
			"count", count,
		)
	}
}

// LogDelete logs a fingerprint delete.
func (l *Logger) LogDelete(ctx context.Context, id core.AttributeID, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete fingerprint failed",
			"attribute_id", id.String(),
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete fingerprint completed",
			"attribute_id", id.String(),
		)
	}
}

// LogSearch logs a neighbor search.
func (l *Logger) LogSearch(ctx context.Context, queries, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "neighbor search failed",
			"queries", queries,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "neighbor search completed",
			"queries", queries,
			"k", k,
		)
	}
}

// LogRecommend logs a recommendation.
func (l *Logger) LogRecommend(ctx context.Context, queries, suggested int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "recommend failed",
			"queries", queries,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "recommend completed",
			"queries", queries,
			"suggestions", suggested,
		)
	}
}

// LogFeedback logs a feedback batch.
func (l *Logger) LogFeedback(ctx context.Context, processed, changed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "feedback processing failed",
			"processed", processed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "feedback processed",
			"processed", processed,
			"thresholds_changed", changed,
		)
	}
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed",
			"filename", filename,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"filename", filename,
		)
	}
}
