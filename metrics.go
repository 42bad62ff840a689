package nmftune

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/nmftune/search"
)

// MetricsCollector defines an interface for collecting operational
// metrics of tuning runs. Implement it to integrate with monitoring
// systems like Prometheus.
//
// Implementations must be safe for concurrent use; trial events arrive
// from worker goroutines.
type MetricsCollector interface {
	// RecordTrial is called after each completed trial, failures
	// included.
	RecordTrial(t search.Trial)

	// RecordSearch is called once per search with the number of
	// recorded trials and the total wall time.
	RecordSearch(trials int, elapsed time.Duration)

	// RecordRefit is called after the final full-matrix refit.
	RecordRefit(elapsed time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordTrial(search.Trial)         {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration)  {}
func (NoopMetricsCollector) RecordRefit(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging without external dependencies.
type BasicMetricsCollector struct {
	TrialCount       atomic.Int64
	TrialFailures    atomic.Int64
	TrialTotalNanos  atomic.Int64
	SearchCount      atomic.Int64
	SearchTotalNanos atomic.Int64
	RefitCount       atomic.Int64
	RefitErrors      atomic.Int64
}

// RecordTrial implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTrial(t search.Trial) {
	b.TrialCount.Add(1)
	b.TrialTotalNanos.Add(t.Elapsed.Nanoseconds())
	if t.Status == search.StatusFailed {
		b.TrialFailures.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(trials int, elapsed time.Duration) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(elapsed.Nanoseconds())
}

// RecordRefit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRefit(_ time.Duration, err error) {
	b.RefitCount.Add(1)
	if err != nil {
		b.RefitErrors.Add(1)
	}
}

// collectorAdapter bridges MetricsCollector to the search engine's
// event interface.
type collectorAdapter struct {
	metrics MetricsCollector
}

func (a collectorAdapter) TrialStarted(int) {}

func (a collectorAdapter) TrialCompleted(t search.Trial) {
	a.metrics.RecordTrial(t)
}

func (a collectorAdapter) SearchCompleted(trials int, elapsed time.Duration) {
	a.metrics.RecordSearch(trials, elapsed)
}
