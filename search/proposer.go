package search

import (
	"math"
	"math/rand/v2"

	"github.com/hupe1980/nmftune/nmf"
)

// Proposer suggests the next hyperparameter point. It is the black-box
// Bayesian-proposal boundary: the engine hands it the viable history
// and the scalarized score of every history entry (larger is better),
// and the proposer returns the next point to evaluate.
//
// Implementations must be pure functions of their inputs and the given
// rng, so the proposal sequence is reproducible.
type Proposer interface {
	Propose(rng *rand.Rand, space nmf.Space, history []Trial, scores []float64) nmf.Hyperparameters
}

// RandomProposer samples the space uniformly, ignoring history.
// Useful as a search baseline and for the warmup phase of smarter
// proposers.
type RandomProposer struct{}

// Propose draws one point from the space.
func (RandomProposer) Propose(rng *rand.Rand, space nmf.Space, _ []Trial, _ []float64) nmf.Hyperparameters {
	return space.Sample(rng)
}

// AcquisitionProposer suggests points by maximizing a kernel-smoothed
// acquisition over sampled candidates: each candidate's value is
// estimated as the Gaussian-kernel weighted mean of the history scores
// in normalized hyperparameter space, plus an exploration bonus
// proportional to the distance to the nearest evaluated point.
type AcquisitionProposer struct {
	// Warmup is the number of initial random trials before the
	// surrogate kicks in. Zero means 5.
	Warmup int

	// Candidates is the number of sampled candidates per proposal.
	// Zero means 100.
	Candidates int

	// Bandwidth is the kernel bandwidth in normalized space. Zero
	// means 0.2.
	Bandwidth float64

	// Explore scales the exploration bonus. Zero means 0.1.
	Explore float64
}

// Propose returns the candidate with the highest acquisition value.
func (p *AcquisitionProposer) Propose(rng *rand.Rand, space nmf.Space, history []Trial, scores []float64) nmf.Hyperparameters {
	warmup := p.Warmup
	if warmup <= 0 {
		warmup = 5
	}
	if len(history) < warmup || len(scores) != len(history) {
		return space.Sample(rng)
	}

	candidates := p.Candidates
	if candidates <= 0 {
		candidates = 100
	}
	bandwidth := p.Bandwidth
	if bandwidth <= 0 {
		bandwidth = 0.2
	}
	explore := p.Explore
	if explore <= 0 {
		explore = 0.1
	}

	evaluated := make([][]float64, len(history))
	for i, t := range history {
		evaluated[i] = encode(t.HP, space)
	}

	var (
		best      nmf.Hyperparameters
		bestValue = math.Inf(-1)
	)
	for c := 0; c < candidates; c++ {
		hp := space.Sample(rng)
		x := encode(hp, space)

		var wSum, vSum, nearest float64
		nearest = math.Inf(1)
		for i, xe := range evaluated {
			d2 := squaredDistance(x, xe)
			w := math.Exp(-d2 / (2 * bandwidth * bandwidth))
			wSum += w
			vSum += w * scores[i]
			nearest = math.Min(nearest, math.Sqrt(d2))
		}

		value := explore * nearest
		if wSum > 0 {
			value += vSum / wSum
		}

		if value > bestValue {
			bestValue = value
			best = hp
		}
	}
	return best
}

// encode maps a hyperparameter point into [0,1]^d using the bounds of
// the searched space dimensions.
func encode(hp nmf.Hyperparameters, space nmf.Space) []float64 {
	var x []float64
	if len(space.NComponents) > 1 {
		lo, hi := minMaxInts(space.NComponents)
		x = append(x, normLinear(float64(hp.NComponents), float64(lo), float64(hi)))
	}
	if space.AlphaW != nil {
		x = append(x, normSpec(space.AlphaW, hp.AlphaW))
	}
	if space.AlphaH != nil {
		x = append(x, normSpec(space.AlphaH, hp.AlphaH))
	}
	if space.L1Ratio != nil {
		x = append(x, normSpec(space.L1Ratio, hp.L1Ratio))
	}
	return x
}

func normSpec(spec nmf.FloatSpec, v float64) float64 {
	switch s := spec.(type) {
	case nmf.Uniform:
		return normLinear(v, s.Lo, s.Hi)
	case nmf.LogUniform:
		return normLinear(math.Log(v), math.Log(s.Lo), math.Log(s.Hi))
	case nmf.Discrete:
		if len(s) == 0 {
			return 0
		}
		lo, hi := s[0], s[0]
		for _, d := range s {
			lo = math.Min(lo, d)
			hi = math.Max(hi, d)
		}
		return normLinear(v, lo, hi)
	default:
		return 0
	}
}

func normLinear(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	n := (v - lo) / (hi - lo)
	return math.Max(0, math.Min(1, n))
}

func minMaxInts(vals []int) (lo, hi int) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

func squaredDistance(a, b []float64) float64 {
	var d2 float64
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return d2
}
