package nmf

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

const (
	defaultTolerance = 1e-4
	checkEvery       = 10

	// divergedLoss is reported for fits on degenerate (empty) input.
	divergedLoss = 1e6

	eps = 1e-12
)

// DefaultFitter is the built-in factorization backend. It implements
// Frobenius-objective NMF with L1/L2 regularization on both factors,
// by multiplicative updates (SolverMU) or alternating projected
// gradient descent (SolverPG).
//
// The zero value is ready to use. Safe for concurrent use; every Fit
// call owns its own state.
type DefaultFitter struct {
	// Tolerance is the relative loss-change stopping criterion.
	// Zero means 1e-4.
	Tolerance float64
}

var _ Fitter = (*DefaultFitter)(nil)

// Fit factorizes train into non-negative W and H.
//
// NComponents is clamped to min(bins, scans). A degenerate matrix with
// an empty dimension yields zero factors with a sentinel loss instead
// of an error, so a pathological window degrades a fold rather than
// crashing a trial.
func (f *DefaultFitter) Fit(ctx context.Context, train *mat.Dense, hp Hyperparameters, seed uint64) (*Model, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}

	rows, cols := train.Dims()
	k := hp.NComponents
	if m := min(rows, cols); k > m {
		k = m
	}
	if k < 1 {
		w := mat.NewDense(max(rows, 1), hp.NComponents, nil)
		h := mat.NewDense(hp.NComponents, max(cols, 1), nil)
		return &Model{W: w, H: h, HP: hp, Loss: divergedLoss}, nil
	}
	hp.NComponents = k

	tol := f.Tolerance
	if tol <= 0 {
		tol = defaultTolerance
	}

	w, h := randomInit(train, k, seed)

	var (
		prev = math.Inf(1)
		loss float64
		iter int
	)

	for iter = 0; iter < hp.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch hp.Solver {
		case SolverMU:
			stepMU(train, w, h, hp)
		case SolverPG:
			stepPG(train, w, h, hp)
		}

		if (iter+1)%checkEvery != 0 && iter != hp.MaxIter-1 {
			continue
		}

		if name, bad := firstNonFinite(w, h); bad {
			return nil, &NumericalError{Factor: name, Iteration: iter + 1}
		}

		loss = frobeniusMSE(train, w, h)
		if !math.IsInf(prev, 1) && prev-loss >= 0 && (prev-loss) <= tol*math.Max(prev, eps) {
			return &Model{W: w, H: h, HP: hp, Loss: loss, Iterations: iter + 1}, nil
		}
		prev = loss
	}

	model := &Model{W: w, H: h, HP: hp, Loss: loss, Iterations: iter}
	return model, &ConvergenceWarning{MaxIter: hp.MaxIter, Tolerance: tol, Loss: loss}
}

// randomInit seeds W and H with uniform values scaled so W*H matches
// the data magnitude, the usual random init for multiplicative updates.
func randomInit(v *mat.Dense, k int, seed uint64) (w, h *mat.Dense) {
	rows, cols := v.Dims()

	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sum += v.At(i, j)
		}
	}
	mean := sum / float64(rows*cols)
	scale := math.Sqrt(math.Max(mean, eps) / float64(k))

	rng := rand.New(rand.NewPCG(seed, uint64(k)))

	w = mat.NewDense(rows, k, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < k; j++ {
			w.Set(i, j, rng.Float64()*scale)
		}
	}
	h = mat.NewDense(k, cols, nil)
	for i := 0; i < k; i++ {
		for j := 0; j < cols; j++ {
			h.Set(i, j, rng.Float64()*scale)
		}
	}
	return w, h
}

// stepMU performs one multiplicative update of W then H:
//
//	W <- W * (V Ht) / (W H Ht + aW*l1 + aW*(1-l1)*W)
//	H <- H * (Wt V) / (Wt W H + aH*l1 + aH*(1-l1)*H)
func stepMU(v, w, h *mat.Dense, hp Hyperparameters) {
	var hht, numerW, wh, denomW mat.Dense
	hht.Mul(h, h.T())
	numerW.Mul(v, h.T())
	wh.Mul(w, &hht)
	denomW.CloneFrom(&wh)
	applyReg(&denomW, w, hp.AlphaW, hp.L1Ratio)
	mulDivElem(w, &numerW, &denomW)

	var wtw, numerH, wwh, denomH mat.Dense
	wtw.Mul(w.T(), w)
	numerH.Mul(w.T(), v)
	wwh.Mul(&wtw, h)
	denomH.CloneFrom(&wwh)
	applyReg(&denomH, h, hp.AlphaH, hp.L1Ratio)
	mulDivElem(h, &numerH, &denomH)
}

// stepPG performs one alternating projected-gradient update with
// Lipschitz step sizes, projecting back onto the non-negative orthant.
func stepPG(v, w, h *mat.Dense, hp Hyperparameters) {
	var wtw mat.Dense
	wtw.Mul(w.T(), w)
	stepH := 1 / (frobenius(&wtw) + hp.AlphaH*(1-hp.L1Ratio) + eps)

	var gradH, wtv mat.Dense
	gradH.Mul(&wtw, h)
	wtv.Mul(w.T(), v)
	gradH.Sub(&gradH, &wtv)
	addReg(&gradH, h, hp.AlphaH, hp.L1Ratio)
	projectedStep(h, &gradH, stepH)

	var hht mat.Dense
	hht.Mul(h, h.T())
	stepW := 1 / (frobenius(&hht) + hp.AlphaW*(1-hp.L1Ratio) + eps)

	var gradW, vht mat.Dense
	gradW.Mul(w, &hht)
	vht.Mul(v, h.T())
	gradW.Sub(&gradW, &vht)
	addReg(&gradW, w, hp.AlphaW, hp.L1Ratio)
	projectedStep(w, &gradW, stepW)
}

// applyReg adds alpha*l1 + alpha*(1-l1)*factor to every denom entry.
func applyReg(denom, factor *mat.Dense, alpha, l1 float64) {
	rows, cols := denom.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			denom.Set(i, j, denom.At(i, j)+alpha*l1+alpha*(1-l1)*factor.At(i, j))
		}
	}
}

// addReg adds the regularization gradient alpha*l1 + alpha*(1-l1)*x.
func addReg(grad, x *mat.Dense, alpha, l1 float64) {
	rows, cols := grad.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			grad.Set(i, j, grad.At(i, j)+alpha*l1+alpha*(1-l1)*x.At(i, j))
		}
	}
}

// mulDivElem updates x <- x * numer / (denom + eps) elementwise.
func mulDivElem(x, numer, denom *mat.Dense) {
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x.Set(i, j, x.At(i, j)*numer.At(i, j)/(denom.At(i, j)+eps))
		}
	}
}

// projectedStep updates x <- max(0, x - step*grad).
func projectedStep(x, grad *mat.Dense, step float64) {
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := x.At(i, j) - step*grad.At(i, j)
			if v < 0 {
				v = 0
			}
			x.Set(i, j, v)
		}
	}
}

// frobeniusMSE returns mean((V - W*H)^2).
func frobeniusMSE(v, w, h *mat.Dense) float64 {
	rows, cols := v.Dims()
	var r mat.Dense
	r.Mul(w, h)

	var sum float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := v.At(i, j) - r.At(i, j)
			sum += d * d
		}
	}
	return sum / float64(rows*cols)
}

func frobenius(m *mat.Dense) float64 {
	return mat.Norm(m, 2)
}

func firstNonFinite(w, h *mat.Dense) (string, bool) {
	for name, m := range map[string]*mat.Dense{"W": w, "H": h} {
		rows, cols := m.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
					return name, true
				}
			}
		}
	}
	return "", false
}
