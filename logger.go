package celldb

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with celldb-specific field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a text handler to stderr at info level.
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

// NewJSONLogger creates a Logger that writes JSON lines to w, or stderr if w
// is nil.
func NewJSONLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return NewLogger(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewTextLogger creates a Logger that writes logfmt-style text to w, or
// stderr if w is nil.
func NewTextLogger(w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return NewLogger(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// WithID adds a sample id field.
func (l *Logger) WithID(id string) *Logger {
	return &Logger{Logger: l.Logger.With("id", id)}
}

// WithDimension adds a dimension field.
func (l *Logger) WithDimension(dim int) *Logger {
	return &Logger{Logger: l.Logger.With("dimension", dim)}
}

// WithCount adds a count field.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{Logger: l.Logger.With("count", count)}
}

// WithVersion adds a committed version field.
func (l *Logger) WithVersion(version uint64) *Logger {
	return &Logger{Logger: l.Logger.With("version", version)}
}

// LogPersist logs a commit of the dataset.
func (l *Logger) LogPersist(ctx context.Context, table string, rows int, bytes int64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "persist failed",
			"table", table,
			"rows", rows,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "persist completed",
		"table", table,
		"rows", rows,
		"bytes", bytes,
		"elapsed", elapsed,
	)
}

// LogLoad logs loading a committed version.
func (l *Logger) LogLoad(ctx context.Context, table string, rows int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"table", table,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "load completed",
		"table", table,
		"rows", rows,
		"elapsed", elapsed,
	)
}

// LogQuery logs a dataset query.
func (l *Logger) LogQuery(ctx context.Context, op string, samples int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "query failed",
			"op", op,
			"samples", samples,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "query completed",
		"op", op,
		"samples", samples,
	)
}

// LogReduce logs a principal component computation or projection.
func (l *Logger) LogReduce(ctx context.Context, op string, k, samples int, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "reduce failed",
			"op", op,
			"k", k,
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "reduce completed",
		"op", op,
		"k", k,
		"samples", samples,
		"elapsed", elapsed,
	)
}
