package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
)

// Status describes the outcome of a trial.
type Status string

const (
	// StatusOK means every fold fitted and scored.
	StatusOK Status = "ok"

	// StatusDegraded means at least one fold failed numerically and
	// was excluded from the aggregate.
	StatusDegraded Status = "degraded"

	// StatusFailed means every fold failed; the trial carries no
	// usable objective vector.
	StatusFailed Status = "failed"
)

// FoldResult is the outcome of one cross-validation fold of a trial.
type FoldResult struct {
	// Fold is the fold index within the trial.
	Fold int `json:"fold"`

	// Objectives is the fold's objective vector. Zero when Err is set.
	Objectives objective.Vector `json:"objectives"`

	// Warning carries a non-fatal solver warning (convergence), if any.
	Warning string `json:"warning,omitempty"`

	// Err carries a fatal fold failure (numerical divergence), if any.
	// Folds with Err set are excluded from the trial aggregate.
	Err string `json:"error,omitempty"`

	// Elapsed is the fold's fit+score wall time.
	Elapsed time.Duration `json:"elapsed"`
}

// Trial is one evaluated hyperparameter configuration. Trials are
// append-only records; the search history preserves submission order.
type Trial struct {
	// ID is the trial's submission index within the search.
	ID int `json:"id"`

	// HP is the evaluated hyperparameter set.
	HP nmf.Hyperparameters `json:"hyperparameters"`

	// Objectives is the arithmetic mean over successful folds.
	Objectives objective.Vector `json:"objectives"`

	// Folds holds the per-fold records, failures included, so the
	// search history stays auditable.
	Folds []FoldResult `json:"folds"`

	// Status summarizes the trial outcome.
	Status Status `json:"status"`

	// Err carries the trial-level failure cause when Status is failed.
	Err string `json:"error,omitempty"`

	// Elapsed is the trial wall time.
	Elapsed time.Duration `json:"elapsed"`

	// Seed is the derived RNG seed the trial's fits ran with.
	Seed uint64 `json:"seed"`
}

// Viable reports whether the trial may enter selection.
func (t Trial) Viable(includeDegraded bool) bool {
	switch t.Status {
	case StatusOK:
		return true
	case StatusDegraded:
		return includeDegraded
	default:
		return false
	}
}

// TrialFailedError reports that every fold of a trial failed. The
// trial is still recorded in the history.
type TrialFailedError struct {
	TrialID int
	Causes  []error
}

func (e *TrialFailedError) Error() string {
	msgs := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		msgs[i] = c.Error()
	}
	return fmt.Sprintf("search: trial %d failed on all folds: %s", e.TrialID, strings.Join(msgs, "; "))
}
