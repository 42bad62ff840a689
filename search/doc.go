// Package search drives the cross-validated hyperparameter search for
// windowed NMF.
//
// A Runner executes one trial (split, fit every fold, score, aggregate)
// and an Engine drives many trials, either over a full grid or through
// Bayesian proposals, with bounded parallelism and an append-only trial
// history as the only shared state.
//
// Determinism: every trial derives its own RNG seed from the global
// seed and the trial index, so repeated runs with the same seed produce
// identical trial scores regardless of goroutine scheduling. In
// Bayesian mode, proposals are drawn in waves of NJobs from a stable
// history snapshot, which keeps proposal inputs deterministic for a
// fixed parallelism level.
package search
