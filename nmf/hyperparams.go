package nmf

import "fmt"

// Solver selects the factorization algorithm of the built-in fitter.
type Solver string

const (
	// SolverMU is multiplicative updates on the Frobenius objective.
	SolverMU Solver = "mu"

	// SolverPG is alternating non-negative least squares by projected
	// gradients.
	SolverPG Solver = "pg"
)

// Hyperparameters is one candidate configuration of the factorization.
type Hyperparameters struct {
	// NComponents is the number of latent components k. Fitters clamp
	// it to min(bins, scans) of the matrix at hand.
	NComponents int `json:"n_components"`

	// AlphaW and AlphaH scale the regularization applied to W and H.
	AlphaW float64 `json:"alpha_w"`
	AlphaH float64 `json:"alpha_h"`

	// L1Ratio mixes L1 (1.0) against L2 (0.0) regularization.
	L1Ratio float64 `json:"l1_ratio"`

	// Solver names the factorization algorithm.
	Solver Solver `json:"solver"`

	// MaxIter bounds the solver's main loop.
	MaxIter int `json:"max_iter"`
}

// Validate reports the first invalid field, if any.
func (hp Hyperparameters) Validate() error {
	switch {
	case hp.NComponents < 1:
		return fmt.Errorf("nmf: n_components must be >= 1, got %d", hp.NComponents)
	case hp.AlphaW < 0 || hp.AlphaH < 0:
		return fmt.Errorf("nmf: alpha_w/alpha_h must be >= 0, got %g/%g", hp.AlphaW, hp.AlphaH)
	case hp.L1Ratio < 0 || hp.L1Ratio > 1:
		return fmt.Errorf("nmf: l1_ratio must be in [0, 1], got %g", hp.L1Ratio)
	case hp.MaxIter < 1:
		return fmt.Errorf("nmf: max_iter must be >= 1, got %d", hp.MaxIter)
	}
	switch hp.Solver {
	case SolverMU, SolverPG:
	default:
		return fmt.Errorf("nmf: unknown solver %q", hp.Solver)
	}
	return nil
}

func (hp Hyperparameters) String() string {
	return fmt.Sprintf("k=%d alpha_w=%g alpha_h=%g l1_ratio=%g solver=%s max_iter=%d",
		hp.NComponents, hp.AlphaW, hp.AlphaH, hp.L1Ratio, hp.Solver, hp.MaxIter)
}
