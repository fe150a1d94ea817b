package pinstore

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with pinstore-specific helpers.
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

// WithBackend adds a backend field to the logger.
func (l *Logger) WithBackend(b Backend) *Logger {
	return &Logger{
		Logger: l.Logger.With("backend", b.String()),
	}
}

// LogAppend logs an append operation.
func (l *Logger) LogAppend(size, page int, err error) {
	if err != nil {
		l.Error("append failed",
			"size", size,
			"error", err,
		)
	} else {
		l.Debug("append completed",
			"size", size,
			"page", page,
		)
	}
}

// LogPrefetch logs the allocation of a page ahead of demand.
func (l *Logger) LogPrefetch(page int, err error) {
	if err != nil {
		l.Error("prefetch failed",
			"page", page,
			"error", err,
		)
	} else {
		l.Debug("page prefetched",
			"page", page,
		)
	}
}

// LogDecay logs a decay sweep that released pages.
func (l *Logger) LogDecay(released, remaining int) {
	l.Debug("idle pages released",
		"released", released,
		"pages", remaining,
	)
}

// LogClose logs the teardown of a store.
func (l *Logger) LogClose(pages int, appended int64, err error) {
	if err != nil {
		l.Error("close failed",
			"error", err,
		)
	} else {
		l.Info("store closed",
			"pages", pages,
			"bytes_appended", appended,
		)
	}
}
