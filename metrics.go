package pinstore

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordAppend is called after each append operation.
	// size is the blob size in bytes, duration the total time taken,
	// err is nil if successful.
	RecordAppend(size int, duration time.Duration, err error)

	// RecordGet is called after each ref resolution.
	RecordGet(size int, err error)

	// RecordPrefetch is called when a page is allocated ahead of demand.
	RecordPrefetch()

	// RecordPagesReleased is called after a decay sweep with the number of
	// pages it returned to the system.
	RecordPagesReleased(count int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordGet(int, error)                   {}
func (NoopMetricsCollector) RecordPrefetch()                        {}
func (NoopMetricsCollector) RecordPagesReleased(int)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendErrors     atomic.Int64
	AppendBytes      atomic.Int64
	AppendTotalNanos atomic.Int64
	GetCount         atomic.Int64
	GetErrors        atomic.Int64
	GetBytes         atomic.Int64
	PrefetchCount    atomic.Int64
	PagesReleased    atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(size int, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	b.AppendTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AppendErrors.Add(1)
		return
	}
	b.AppendBytes.Add(int64(size))
}

// RecordGet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGet(size int, err error) {
	b.GetCount.Add(1)
	if err != nil {
		b.GetErrors.Add(1)
		return
	}
	b.GetBytes.Add(int64(size))
}

// RecordPrefetch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPrefetch() {
	b.PrefetchCount.Add(1)
}

// RecordPagesReleased implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPagesReleased(count int) {
	b.PagesReleased.Add(int64(count))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:    b.AppendCount.Load(),
		AppendErrors:   b.AppendErrors.Load(),
		AppendBytes:    b.AppendBytes.Load(),
		AppendAvgNanos: b.getAvgAppendNanos(),
		GetCount:       b.GetCount.Load(),
		GetErrors:      b.GetErrors.Load(),
		GetBytes:       b.GetBytes.Load(),
		PrefetchCount:  b.PrefetchCount.Load(),
		PagesReleased:  b.PagesReleased.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAppendNanos() int64 {
	count := b.AppendCount.Load()
	if count == 0 {
		return 0
	}
	return b.AppendTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount    int64
	AppendErrors   int64
	AppendBytes    int64
	AppendAvgNanos int64
	GetCount       int64
	GetErrors      int64
	GetBytes       int64
	PrefetchCount  int64
	PagesReleased  int64
}
