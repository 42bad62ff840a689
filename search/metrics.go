package search

import "time"

// Collector receives search lifecycle events. Implementations must be
// safe for concurrent use; trial events arrive from worker goroutines.
type Collector interface {
	TrialStarted(id int)
	TrialCompleted(t Trial)
	SearchCompleted(trials int, elapsed time.Duration)
}

// NoopCollector discards all events.
type NoopCollector struct{}

func (NoopCollector) TrialStarted(int)                  {}
func (NoopCollector) TrialCompleted(Trial)              {}
func (NoopCollector) SearchCompleted(int, time.Duration) {}
