package nmf

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Model holds the non-negative factors of one fit. Reconstruction is
// W*H. Models are immutable; refitting produces a new instance.
type Model struct {
	// W is the (bins x k) weight matrix: per-component bin profiles.
	W *mat.Dense

	// H is the (k x scans) sample matrix: per-component scan profiles.
	H *mat.Dense

	// HP is the hyperparameter set the model was fitted with, after
	// component clamping.
	HP Hyperparameters

	// Loss is the achieved training objective (mean squared
	// reconstruction error over all entries plus regularization).
	Loss float64

	// Iterations is the number of solver iterations performed.
	Iterations int
}

// Components returns the effective number of components k.
func (m *Model) Components() int {
	_, k := m.W.Dims()
	return k
}

// Reconstruct returns W*H.
func (m *Model) Reconstruct() *mat.Dense {
	var r mat.Dense
	r.Mul(m.W, m.H)
	return &r
}

// Fitter is the black-box factorization capability. Implementations
// must be safe for concurrent use: one Fit call per trial fold may run
// in parallel.
//
// The train matrix arrives with held-out entries already zeroed; the
// fitter never learns which zeros are structural and which are masked.
// Fit must be deterministic for a fixed seed.
//
// A ConvergenceWarning return is non-fatal: the model is still valid
// and carries the achieved loss. Any other error invalidates the fold.
type Fitter interface {
	Fit(ctx context.Context, train *mat.Dense, hp Hyperparameters, seed uint64) (*Model, error)
}
