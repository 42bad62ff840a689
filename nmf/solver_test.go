package nmf

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// lowRankMatrix builds a non-negative rank-2 matrix with a little noise.
func lowRankMatrix(rows, cols int, seed uint64) *mat.Dense {
	rng := rand.New(rand.NewPCG(seed, 0))

	w := mat.NewDense(rows, 2, nil)
	h := mat.NewDense(2, cols, nil)
	for i := 0; i < rows; i++ {
		w.Set(i, 0, rng.Float64())
		w.Set(i, 1, rng.Float64())
	}
	for j := 0; j < cols; j++ {
		h.Set(0, j, rng.Float64())
		h.Set(1, j, rng.Float64())
	}

	var v mat.Dense
	v.Mul(w, h)
	v.Apply(func(_, _ int, x float64) float64 { return x + 0.01*rng.Float64() }, &v)
	return &v
}

func defaultHP() Hyperparameters {
	return Hyperparameters{
		NComponents: 2,
		AlphaW:      1e-5,
		AlphaH:      1e-4,
		L1Ratio:     0.5,
		Solver:      SolverMU,
		MaxIter:     500,
	}
}

func TestDefaultFitter_FactorsAreNonNegative(t *testing.T) {
	for _, solver := range []Solver{SolverMU, SolverPG} {
		t.Run(string(solver), func(t *testing.T) {
			hp := defaultHP()
			hp.Solver = solver

			f := &DefaultFitter{}
			model, err := f.Fit(context.Background(), lowRankMatrix(40, 30, 1), hp, 42)
			var cw *ConvergenceWarning
			if err != nil && !errors.As(err, &cw) {
				t.Fatalf("unexpected fit error: %v", err)
			}
			require.NotNil(t, model)

			for _, m := range []*mat.Dense{model.W, model.H} {
				rows, cols := m.Dims()
				for i := 0; i < rows; i++ {
					for j := 0; j < cols; j++ {
						require.GreaterOrEqual(t, m.At(i, j), 0.0)
					}
				}
			}
		})
	}
}

func TestDefaultFitter_ReconstructsLowRankData(t *testing.T) {
	v := lowRankMatrix(50, 40, 2)

	hp := defaultHP()
	hp.AlphaW, hp.AlphaH = 0, 0
	hp.MaxIter = 2000

	f := &DefaultFitter{}
	model, err := f.Fit(context.Background(), v, hp, 7)
	var cw *ConvergenceWarning
	if err != nil && !errors.As(err, &cw) {
		t.Fatalf("unexpected fit error: %v", err)
	}

	require.Less(t, model.Loss, 0.01, "rank-2 data should reconstruct with small error")
}

func TestDefaultFitter_Deterministic(t *testing.T) {
	v := lowRankMatrix(20, 20, 3)
	hp := defaultHP()
	hp.MaxIter = 100

	f := &DefaultFitter{}
	a, errA := f.Fit(context.Background(), v, hp, 99)
	b, errB := f.Fit(context.Background(), v, hp, 99)
	require.Equal(t, errA == nil, errB == nil)
	require.True(t, mat.Equal(a.W, b.W))
	require.True(t, mat.Equal(a.H, b.H))
	require.Equal(t, a.Loss, b.Loss)
}

func TestDefaultFitter_ClampsComponents(t *testing.T) {
	v := lowRankMatrix(3, 30, 4)
	hp := defaultHP()
	hp.NComponents = 10

	f := &DefaultFitter{}
	model, err := f.Fit(context.Background(), v, hp, 1)
	var cw *ConvergenceWarning
	if err != nil && !errors.As(err, &cw) {
		t.Fatalf("unexpected fit error: %v", err)
	}
	require.Equal(t, 3, model.Components())
}

func TestDefaultFitter_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &DefaultFitter{}
	_, err := f.Fit(ctx, lowRankMatrix(10, 10, 5), defaultHP(), 1)
	require.ErrorIs(t, err, context.Canceled)
}

func TestSpace_GridEnumeratesCartesianProduct(t *testing.T) {
	s := Space{
		NComponents: []int{5, 10},
		AlphaW:      Discrete{0.001, 0.01},
		AlphaH:      Discrete{0.01, 0.1},
		Defaults:    defaultHP(),
	}

	grid, err := s.Grid()
	require.NoError(t, err)
	require.Len(t, grid, 8)

	seen := make(map[string]bool)
	for _, hp := range grid {
		require.Equal(t, 0.5, hp.L1Ratio, "unsearched dims use defaults")
		require.False(t, seen[hp.String()], "duplicate grid point %s", hp)
		seen[hp.String()] = true
	}
}

func TestSpace_GridRejectsContinuousSpecs(t *testing.T) {
	s := Space{
		AlphaW:   LogUniform{Lo: 1e-5, Hi: 1},
		Defaults: defaultHP(),
	}
	_, err := s.Grid()
	require.Error(t, err)
}

func TestSpace_SampleStaysInBounds(t *testing.T) {
	s := Space{
		NComponents: []int{3, 5, 8},
		AlphaW:      LogUniform{Lo: 1e-5, Hi: 1e-1},
		L1Ratio:     Uniform{Lo: 0.2, Hi: 0.9},
		Defaults:    defaultHP(),
	}

	rng := rand.New(rand.NewPCG(42, 0))
	for i := 0; i < 200; i++ {
		hp := s.Sample(rng)
		require.Contains(t, []int{3, 5, 8}, hp.NComponents)
		require.GreaterOrEqual(t, hp.AlphaW, 1e-5)
		require.LessOrEqual(t, hp.AlphaW, 1e-1)
		require.GreaterOrEqual(t, hp.L1Ratio, 0.2)
		require.LessOrEqual(t, hp.L1Ratio, 0.9)
		require.NoError(t, hp.Validate())
	}
}
