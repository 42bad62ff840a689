package objective

import "math"

// scalarizeConstant keeps the harmonic mean finite when a min-max
// scaled score hits zero.
const scalarizeConstant = 0.001

// Scalarize collapses the multi-objective vectors of a trial
// population into one comparable scalar per trial: each listed field is
// scored against its target, min-max scaled across the population, and
// the per-trial scores are combined by harmonic mean. The harmonic
// mean punishes trials that excel on some objectives while collapsing
// on others, which is exactly the failure mode of single-objective NMF
// tuning.
//
// The result is only meaningful relative to the given population; it
// is recomputed whenever the population grows. An empty field list or
// empty population yields nil.
func Scalarize(vectors []Vector, fields []string, targets Targets) []float64 {
	if len(vectors) == 0 || len(fields) == 0 {
		return nil
	}

	// Per-field target scores across the population.
	scored := make([][]float64, len(fields))
	for fi, field := range fields {
		col := make([]float64, len(vectors))
		for ti, v := range vectors {
			raw, err := v.Field(field)
			if err != nil {
				// Unknown fields contribute a flat zero for every
				// trial and cancel out of the ranking.
				col[ti] = 0
				continue
			}
			col[ti] = targets.Score(field, raw)
		}
		minMaxScale(col)
		scored[fi] = col
	}

	out := make([]float64, len(vectors))
	for ti := range vectors {
		var invSum float64
		for fi := range fields {
			invSum += 1 / (scored[fi][ti] + scalarizeConstant)
		}
		out[ti] = float64(len(fields)) / invSum
	}
	return out
}

// minMaxScale rescales col to [0, 1] in place. A constant column maps
// to all zeros.
func minMaxScale(col []float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range col {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i, v := range col {
		if span <= 0 {
			col[i] = 0
			continue
		}
		col[i] = (v - lo) / span
	}
}
