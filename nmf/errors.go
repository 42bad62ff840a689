package nmf

import "fmt"

// ConvergenceWarning reports that the solver reached MaxIter before
// meeting its tolerance. Non-fatal: the accompanying Model is usable
// and its score simply reflects the unconverged state.
type ConvergenceWarning struct {
	MaxIter   int
	Tolerance float64
	Loss      float64
}

func (e *ConvergenceWarning) Error() string {
	return fmt.Sprintf("nmf: solver hit max_iter=%d before tolerance %g (loss %g)", e.MaxIter, e.Tolerance, e.Loss)
}

// NumericalError reports that the solver diverged: a factor entry
// became NaN or Inf. The fold that produced it must be discarded.
type NumericalError struct {
	Factor    string // "W" or "H"
	Iteration int
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("nmf: non-finite value in %s at iteration %d", e.Factor, e.Iteration)
}
