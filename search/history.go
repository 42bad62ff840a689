package search

import (
	"sort"
	"sync"

	"github.com/hupe1980/nmftune/objective"
)

// History is the append-only log of completed trials. It is the only
// mutable structure shared between search workers: each worker appends
// its own completed trial, existing entries are never mutated.
type History struct {
	mu     sync.RWMutex
	trials []Trial
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{}
}

// Append records a completed trial.
func (h *History) Append(t Trial) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trials = append(h.trials, t)
}

// Len returns the number of recorded trials.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.trials)
}

// Snapshot returns a copy of the trials in submission order (by ID),
// independent of the completion order workers appended in.
func (h *History) Snapshot() []Trial {
	h.mu.RLock()
	out := make([]Trial, len(h.trials))
	copy(out, h.trials)
	h.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Viable returns the trials eligible for selection, in submission
// order.
func (h *History) Viable(includeDegraded bool) []Trial {
	var out []Trial
	for _, t := range h.Snapshot() {
		if t.Viable(includeDegraded) {
			out = append(out, t)
		}
	}
	return out
}

// Vectors returns the objective vectors of the given trials.
func Vectors(trials []Trial) []objective.Vector {
	out := make([]objective.Vector, len(trials))
	for i, t := range trials {
		out[i] = t.Objectives
	}
	return out
}
