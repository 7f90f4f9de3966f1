package postcodes

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the metrics
// package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordOpen is called once per index after its lazy construction.
	RecordOpen(duration time.Duration, err error)

	// RecordLookup is called after each lookup. tokens is the query length,
	// results the number of points returned.
	RecordLookup(tokens, results int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(time.Duration, error)             {}
func (NoopMetricsCollector) RecordLookup(int, int, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount        atomic.Int64
	OpenErrors       atomic.Int64
	LookupCount      atomic.Int64
	LookupErrors     atomic.Int64
	LookupResults    atomic.Int64
	LookupEmpty      atomic.Int64
	LookupTotalNanos atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(_ time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordLookup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLookup(_, results int, duration time.Duration, err error) {
	b.LookupCount.Add(1)
	b.LookupTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LookupErrors.Add(1)
		return
	}
	b.LookupResults.Add(int64(results))
	if results == 0 {
		b.LookupEmpty.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:      b.OpenCount.Load(),
		OpenErrors:     b.OpenErrors.Load(),
		LookupCount:    b.LookupCount.Load(),
		LookupErrors:   b.LookupErrors.Load(),
		LookupResults:  b.LookupResults.Load(),
		LookupEmpty:    b.LookupEmpty.Load(),
		LookupAvgNanos: b.getAvgLookupNanos(),
	}
}

func (b *BasicMetricsCollector) getAvgLookupNanos() int64 {
	count := b.LookupCount.Load()
	if count == 0 {
		return 0
	}
	return b.LookupTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount      int64
	OpenErrors     int64
	LookupCount    int64
	LookupErrors   int64
	LookupResults  int64
	LookupEmpty    int64
	LookupAvgNanos int64
}
