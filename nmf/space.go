package nmf

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// FloatSpec is the tagged search-space variant for one float-valued
// hyperparameter: an explicit value list, or a continuous range sampled
// uniformly on a linear or logarithmic scale.
type FloatSpec interface {
	// Sample draws one value from the spec.
	Sample(rng *rand.Rand) float64

	// Enumerate returns all values for grid enumeration, or false for
	// continuous specs.
	Enumerate() ([]float64, bool)
}

// Discrete is a fixed list of candidate values.
type Discrete []float64

// Sample draws one of the listed values.
func (d Discrete) Sample(rng *rand.Rand) float64 { return d[rng.IntN(len(d))] }

// Enumerate returns the listed values.
func (d Discrete) Enumerate() ([]float64, bool) { return d, true }

// Uniform samples uniformly from [Lo, Hi].
type Uniform struct{ Lo, Hi float64 }

// Sample draws uniformly from the range.
func (u Uniform) Sample(rng *rand.Rand) float64 { return u.Lo + rng.Float64()*(u.Hi-u.Lo) }

// Enumerate reports that the spec is continuous.
func (u Uniform) Enumerate() ([]float64, bool) { return nil, false }

// LogUniform samples uniformly on a log scale from [Lo, Hi]. Lo must be
// positive.
type LogUniform struct{ Lo, Hi float64 }

// Sample draws log-uniformly from the range.
func (u LogUniform) Sample(rng *rand.Rand) float64 {
	lo, hi := math.Log(u.Lo), math.Log(u.Hi)
	return math.Exp(lo + rng.Float64()*(hi-lo))
}

// Enumerate reports that the spec is continuous.
func (u LogUniform) Enumerate() ([]float64, bool) { return nil, false }

// Space is the hyperparameter search domain. Unset fields fall back to
// the corresponding Defaults value and are not searched.
type Space struct {
	NComponents []int
	AlphaW      FloatSpec
	AlphaH      FloatSpec
	L1Ratio     FloatSpec
	Solvers     []Solver
	MaxIter     []int

	// Defaults fills every dimension that is not part of the space.
	Defaults Hyperparameters
}

// Grid enumerates the full cartesian product of the space. It fails if
// any searched float dimension is continuous.
func (s Space) Grid() ([]Hyperparameters, error) {
	nc := s.NComponents
	if len(nc) == 0 {
		nc = []int{s.Defaults.NComponents}
	}
	solvers := s.Solvers
	if len(solvers) == 0 {
		solvers = []Solver{s.Defaults.Solver}
	}
	maxIter := s.MaxIter
	if len(maxIter) == 0 {
		maxIter = []int{s.Defaults.MaxIter}
	}

	enumerate := func(name string, spec FloatSpec, def float64) ([]float64, error) {
		if spec == nil {
			return []float64{def}, nil
		}
		vals, ok := spec.Enumerate()
		if !ok {
			return nil, fmt.Errorf("nmf: %s is continuous; grid enumeration requires discrete specs", name)
		}
		return vals, nil
	}

	alphaW, err := enumerate("alpha_w", s.AlphaW, s.Defaults.AlphaW)
	if err != nil {
		return nil, err
	}
	alphaH, err := enumerate("alpha_h", s.AlphaH, s.Defaults.AlphaH)
	if err != nil {
		return nil, err
	}
	l1, err := enumerate("l1_ratio", s.L1Ratio, s.Defaults.L1Ratio)
	if err != nil {
		return nil, err
	}

	var grid []Hyperparameters
	for _, k := range nc {
		for _, aw := range alphaW {
			for _, ah := range alphaH {
				for _, l := range l1 {
					for _, sv := range solvers {
						for _, mi := range maxIter {
							grid = append(grid, Hyperparameters{
								NComponents: k,
								AlphaW:      aw,
								AlphaH:      ah,
								L1Ratio:     l,
								Solver:      sv,
								MaxIter:     mi,
							})
						}
					}
				}
			}
		}
	}
	return grid, nil
}

// Sample draws one hyperparameter point from the space.
func (s Space) Sample(rng *rand.Rand) Hyperparameters {
	hp := s.Defaults
	if len(s.NComponents) > 0 {
		hp.NComponents = s.NComponents[rng.IntN(len(s.NComponents))]
	}
	if s.AlphaW != nil {
		hp.AlphaW = s.AlphaW.Sample(rng)
	}
	if s.AlphaH != nil {
		hp.AlphaH = s.AlphaH.Sample(rng)
	}
	if s.L1Ratio != nil {
		hp.L1Ratio = s.L1Ratio.Sample(rng)
	}
	if len(s.Solvers) > 0 {
		hp.Solver = s.Solvers[rng.IntN(len(s.Solvers))]
	}
	if len(s.MaxIter) > 0 {
		hp.MaxIter = s.MaxIter[rng.IntN(len(s.MaxIter))]
	}
	return hp
}
