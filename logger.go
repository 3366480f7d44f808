package fpgist

import (
	"context"
	"log/slog"
	"os"

	"github.com/tanski-labs/fpgist/gist"
)

// Logger wraps slog.Logger with fpgist-specific context.
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

// WithPageID adds a page_id field to the logger.
func (l *Logger) WithPageID(id uint64) *Logger {
	return &Logger{
		Logger: l.Logger.With("page_id", id),
	}
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(ctx context.Context, pageID uint64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "insert failed", "page_id", pageID, "error", err)
	} else {
		l.DebugContext(ctx, "insert completed", "page_id", pageID)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, strategy gist.Strategy, matches int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed", "strategy", strategy.String(), "error", err)
	} else {
		l.DebugContext(ctx, "search completed", "strategy", strategy.String(), "matches", matches)
	}
}

// LogPickSplit logs a page split.
func (l *Logger) LogPickSplit(ctx context.Context, pageID uint64, nLeft, nRight int) {
	l.DebugContext(ctx, "page split", "page_id", pageID, "left", nLeft, "right", nRight)
}

// LogSnapshot logs a snapshot operation.
func (l *Logger) LogSnapshot(ctx context.Context, filename string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "snapshot failed", "filename", filename, "error", err)
	} else {
		l.InfoContext(ctx, "snapshot saved", "filename", filename)
	}
}

// LogRecovery logs a WAL recovery operation.
func (l *Logger) LogRecovery(ctx context.Context, entriesReplayed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "WAL recovery failed", "entries_replayed", entriesReplayed, "error", err)
	} else {
		l.InfoContext(ctx, "WAL recovery completed", "entries_replayed", entriesReplayed)
	}
}
