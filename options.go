package pinstore

import (
	"log/slog"
	"time"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	memoryLimit      int64
	prefetchRate     float64
	decayInterval    time.Duration
}

// Option configures Store constructor behavior.
type Option func(*options)

// WithLogger configures structured logging for store operations.
//
// If nil is passed, logging stays disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures operational metrics collection.
//
// If nil is passed, NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithMemoryLimit caps the total bytes of committed page memory. Appends
// that would push page allocations past the limit fail with
// ErrMemoryLimitExceeded instead of blocking. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithPrefetchRateLimit caps how many pages per second may be allocated
// ahead of demand. When the limiter has no budget the prefetch is skipped;
// on-demand allocation during appends is never throttled. Zero means
// unlimited.
func WithPrefetchRateLimit(pagesPerSec float64) Option {
	return func(o *options) {
		o.prefetchRate = pagesPerSec
	}
}

// WithDecayInterval starts a background goroutine that runs a decay sweep
// every interval. Without this option decay only runs when the caller
// invokes Tick. The goroutine is stopped by Close.
func WithDecayInterval(interval time.Duration) Option {
	return func(o *options) {
		o.decayInterval = interval
	}
}
