package nmftune

import (
	"github.com/hupe1980/nmftune/mask"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/search"
	"github.com/hupe1980/nmftune/selection"
)

// The error taxonomy, re-exported so callers can match failures
// without importing the subpackages.
//
// Fold-level numerical failures are absorbed at the trial level
// (degrade, don't crash); trial-level failures are absorbed at the
// search level (recorded, don't crash); only total search exhaustion
// surfaces to the caller.

// ErrNoViableTrial is returned when no trial survived to selection.
// Fatal for the whole search.
var ErrNoViableTrial = selection.ErrNoViableTrial

// InsufficientDataError reports too few eligible matrix entries to
// mask. Fatal for the window; pipelines typically skip it.
type InsufficientDataError = mask.InsufficientDataError

// ConvergenceWarning reports a solver that hit max_iter. Non-fatal;
// the fold's score is still usable.
type ConvergenceWarning = nmf.ConvergenceWarning

// NumericalError reports a diverged or non-finite fit. Fatal for the
// fold; the fold is excluded from its trial's aggregate.
type NumericalError = nmf.NumericalError

// TrialFailedError reports a trial whose folds all failed. The trial
// is recorded as failed and the search continues.
type TrialFailedError = search.TrialFailedError
