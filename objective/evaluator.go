package objective

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nmftune/mask"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/spectral"
)

const (
	// errFloor guards log and ratio computations against zero errors.
	errFloor = 1e-12

	// activeEps is the relative threshold below which a factor entry
	// counts as zero for sparsity and activity purposes.
	activeEps = 1e-9
)

// Evaluator computes the objective vector of one fitted model against
// the original (unmasked) matrix and the fold's train/test masks.
//
// The zero value uses a component sigma of 3 scans.
type Evaluator struct {
	// ComponentSigma is the expected scan-scale of a localized chemical
	// component, in scans. A component whose scan profile has a
	// (mass-weighted) standard deviation of at most ComponentSigma
	// counts as window-local. Zero means 3.
	ComponentSigma float64
}

// Score evaluates model against the full matrix under the given fold.
// The full matrix is the original data; masked test entries were never
// seen by the fitter.
func (e *Evaluator) Score(model *nmf.Model, full *spectral.Matrix, fold mask.Fold) Vector {
	recon := model.Reconstruct()

	testErr := maskedMSE(full, recon, fold.Test)
	trainErr := maskedMSE(full, recon, fold.Train)

	sigma := e.ComponentSigma
	if sigma <= 0 {
		sigma = 3
	}

	v := Vector{
		TestReconstructionError:  testErr,
		TrainReconstructionError: trainErr,
		NegLogRatio:              -math.Log2(math.Max(trainErr, errFloor) / math.Max(testErr, errFloor)),
		WeightOrthogonality:      gramDeviation(colGram(model.W)),
		SampleOrthogonality:      gramDeviation(rowGram(model.H)),
	}

	v.NonzeroComponentFraction, v.FractionWindowComponent = componentStats(model, sigma)
	v.MeanWeightSparsity = colSparsity(model.W)
	v.MeanSampleSparsity = rowSparsity(model.H)

	return v
}

// maskedMSE is the mean squared difference restricted to mask entries,
// normalized by the entry count.
func maskedMSE(full *spectral.Matrix, recon *mat.Dense, m *mask.Mask) float64 {
	n := m.Cardinality()
	if n == 0 {
		return 0
	}
	var sum float64
	m.Range(func(i, j int) bool {
		d := full.At(i, j) - recon.At(i, j)
		sum += d * d
		return true
	})
	return sum / float64(n)
}

// colGram returns the Gram matrix of the L2-normalized columns of m.
func colGram(m *mat.Dense) *mat.Dense {
	rows, k := m.Dims()
	norm := mat.NewDense(rows, k, nil)
	for j := 0; j < k; j++ {
		var ss float64
		for i := 0; i < rows; i++ {
			ss += m.At(i, j) * m.At(i, j)
		}
		s := math.Sqrt(ss)
		if s < activeEps {
			continue
		}
		for i := 0; i < rows; i++ {
			norm.Set(i, j, m.At(i, j)/s)
		}
	}
	var g mat.Dense
	g.Mul(norm.T(), norm)
	return &g
}

// rowGram returns the Gram matrix of the L2-normalized rows of m.
func rowGram(m *mat.Dense) *mat.Dense {
	k, cols := m.Dims()
	norm := mat.NewDense(k, cols, nil)
	for i := 0; i < k; i++ {
		var ss float64
		for j := 0; j < cols; j++ {
			ss += m.At(i, j) * m.At(i, j)
		}
		s := math.Sqrt(ss)
		if s < activeEps {
			continue
		}
		for j := 0; j < cols; j++ {
			norm.Set(i, j, m.At(i, j)/s)
		}
	}
	var g mat.Dense
	g.Mul(norm, norm.T())
	return &g
}

// gramDeviation measures departure from orthogonality as off-diagonal
// mass over diagonal mass of a Gram matrix. 0 means fully orthogonal
// profiles; values grow as profiles overlap.
func gramDeviation(g *mat.Dense) float64 {
	k, _ := g.Dims()
	var diag, off float64
	for i := 0; i < k; i++ {
		for j := 0; j < k; j++ {
			v := math.Abs(g.At(i, j))
			if i == j {
				diag += v
			} else {
				off += v
			}
		}
	}
	if diag < activeEps {
		return 0
	}
	return off / diag
}

// componentStats returns the fraction of active components and the
// fraction of active components that are window-local. A component is
// active when its scan profile carries mass; it is window-local when
// the mass-weighted standard deviation of the profile is at most sigma
// scans, i.e. its 4-sigma support behaves like a localized signal
// rather than a diffuse one.
func componentStats(model *nmf.Model, sigma float64) (active, local float64) {
	k, cols := model.H.Dims()
	if k == 0 {
		return 0, 0
	}

	maxEntry := mat.Max(model.H)
	if maxEntry <= 0 {
		return 0, 0
	}

	var nActive, nLocal int
	for c := 0; c < k; c++ {
		var mass, mean float64
		for j := 0; j < cols; j++ {
			mass += model.H.At(c, j)
		}
		if mass <= activeEps*maxEntry*float64(cols) {
			continue
		}
		nActive++

		for j := 0; j < cols; j++ {
			mean += float64(j) * model.H.At(c, j) / mass
		}
		var variance float64
		for j := 0; j < cols; j++ {
			d := float64(j) - mean
			variance += d * d * model.H.At(c, j) / mass
		}
		if math.Sqrt(variance) <= sigma {
			nLocal++
		}
	}

	active = float64(nActive) / float64(k)
	if nActive > 0 {
		local = float64(nLocal) / float64(nActive)
	}
	return active, local
}

// colSparsity is the mean fraction of near-zero entries per column.
func colSparsity(m *mat.Dense) float64 {
	rows, k := m.Dims()
	if k == 0 || rows == 0 {
		return 0
	}
	threshold := activeEps * math.Max(mat.Max(m), activeEps)
	var zeros int
	for j := 0; j < k; j++ {
		for i := 0; i < rows; i++ {
			if m.At(i, j) <= threshold {
				zeros++
			}
		}
	}
	return float64(zeros) / float64(rows*k)
}

// rowSparsity is the mean fraction of near-zero entries per row.
func rowSparsity(m *mat.Dense) float64 {
	k, cols := m.Dims()
	if k == 0 || cols == 0 {
		return 0
	}
	threshold := activeEps * math.Max(mat.Max(m), activeEps)
	var zeros int
	for i := 0; i < k; i++ {
		for j := 0; j < cols; j++ {
			if m.At(i, j) <= threshold {
				zeros++
			}
		}
	}
	return float64(zeros) / float64(k*cols)
}
