package matchkit

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    setCounter      prometheus.Counter
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordSet(duration time.Duration, err error) {
//	    p.setCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordSet is called after each fingerprint insert or update.
	// duration is the total time taken, err is nil if successful.
	RecordSet(duration time.Duration, err error)

	// RecordBatchSet is called after each batch mutation.
	// count is the number of items attempted, failed is the number that
	// failed, duration is the total time taken.
	RecordBatchSet(count, failed int, duration time.Duration)

	// RecordDelete is called after each delete operation.
	RecordDelete(duration time.Duration, err error)

	// RecordSearch is called after each neighbor search.
	// k is the number of neighbors requested per query, duration is the
	// time taken, err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordFeedback is called after each feedback batch.
	// processed is the number of feedbacks applied, changed is the
	// number of thresholds that moved.
	RecordFeedback(processed, changed int, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSet(time.Duration, error)         {}
func (NoopMetricsCollector) RecordBatchSet(int, int, time.Duration) {}
func (NoopMetricsCollector) RecordDelete(time.Duration, error)      {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordFeedback(int, int, time.Duration) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SetCount          atomic.Int64
	SetErrors         atomic.Int64
	SetTotalNanos     atomic.Int64
	BatchSetCount     atomic.Int64
	BatchSetItems     atomic.Int64
	BatchSetFailed    atomic.Int64
	DeleteCount       atomic.Int64
	DeleteErrors      atomic.Int64
	SearchCount       atomic.Int64
	SearchErrors      atomic.Int64
	SearchTotalNanos  atomic.Int64
	FeedbackCount     atomic.Int64
	FeedbackProcessed atomic.Int64
	FeedbackChanged   atomic.Int64
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(duration time.Duration, err error) {
	b.SetCount.Add(1)
	b.SetTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SetErrors.Add(1)
	}
}

// RecordBatchSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchSet(count, failed int, duration time.Duration) {
	b.BatchSetCount.Add(1)
	b.BatchSetItems.Add(int64(count))
	b.BatchSetFailed.Add(int64(failed))
}

// RecordDelete implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDelete(duration time.Duration, err error) {
	b.DeleteCount.Add(1)
	if err != nil {
		b.DeleteErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(k int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordFeedback implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFeedback(processed, changed int, duration time.Duration) {
	b.FeedbackCount.Add(1)
	b.FeedbackProcessed.Add(int64(processed))
	b.FeedbackChanged.Add(int64(changed))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SetCount:          b.SetCount.Load(),
		SetErrors:         b.SetErrors.Load(),
		SetAvgNanos:       b.getAvgSetNanos(),
		BatchSetCount:     b.BatchSetCount.Load(),
		BatchSetItems:     b.BatchSetItems.Load(),
		BatchSetFailed:    b.BatchSetFailed.Load(),
		DeleteCount:       b.DeleteCount.Load(),
		DeleteErrors:      b.DeleteErrors.Load(),
		SearchCount:       b.SearchCount.Load(),
		SearchErrors:      b.SearchErrors.Load(),
		SearchAvgNanos:    b.getAvgSearchNanos(),
		FeedbackCount:     b.FeedbackCount.Load(),
		FeedbackProcessed: b.FeedbackProcessed.Load(),
		FeedbackChanged:   b.FeedbackChanged.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSetNanos() int64 {
	count := b.SetCount.Load()
	if count == 0 {
		return 0
	}
	return b.SetTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgSearchNanos() int64 {
	count := b.SearchCount.Load()
	if count == 0 {
		return 0
	}
	return b.SearchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SetCount          int64
	SetErrors         int64
	SetAvgNanos       int64
	BatchSetCount     int64
	BatchSetItems     int64
	BatchSetFailed    int64
	DeleteCount       int64
	DeleteErrors      int64
	SearchCount       int64
	SearchErrors      int64
	SearchAvgNanos    int64
	FeedbackCount     int64
	FeedbackProcessed int64
	FeedbackChanged   int64
}
