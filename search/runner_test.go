package search

import (
	"context"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nmftune/mask"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
	"github.com/hupe1980/nmftune/spectral"
)

// testMatrix builds a deterministic rank-2 non-negative matrix so that
// small fits recover structure quickly.
func testMatrix(t *testing.T, bins, scans int) *spectral.Matrix {
	t.Helper()

	window, err := spectral.NewScanWindow(0, scans)
	require.NoError(t, err)

	data := mat.NewDense(bins, scans, nil)
	for i := 0; i < bins; i++ {
		for j := 0; j < scans; j++ {
			a := math.Exp(-float64((i-bins/4)*(i-bins/4)) / 18.0)
			b := math.Exp(-float64((i-3*bins/4)*(i-3*bins/4)) / 18.0)
			data.Set(i, j, a*float64(j+1)+b*float64(scans-j))
		}
	}

	m, err := spectral.NewMatrix(window, data, nil)
	require.NoError(t, err)
	return m
}

func testRunner(fitter nmf.Fitter) *Runner {
	return &Runner{
		Splitter: &mask.Splitter{
			NSplits:          3,
			SamplingFraction: 1.0 / 3.0,
			SamplingFloor:    1,
			Seed:             42,
		},
		Fitter:    fitter,
		Evaluator: &objective.Evaluator{ComponentSigma: 3},
	}
}

// failingFitter always reports numerical divergence.
type failingFitter struct{}

func (failingFitter) Fit(_ context.Context, _ *mat.Dense, _ nmf.Hyperparameters, _ uint64) (*nmf.Model, error) {
	return nil, &nmf.NumericalError{Factor: "W", Iteration: 1}
}

// flakyFitter fails its first call and delegates afterwards.
type flakyFitter struct {
	calls    atomic.Int64
	delegate nmf.Fitter
}

func (f *flakyFitter) Fit(ctx context.Context, train *mat.Dense, hp nmf.Hyperparameters, seed uint64) (*nmf.Model, error) {
	if f.calls.Add(1) == 1 {
		return nil, &nmf.NumericalError{Factor: "H", Iteration: 7}
	}
	return f.delegate.Fit(ctx, train, hp, seed)
}

func testHP() nmf.Hyperparameters {
	return nmf.Hyperparameters{
		NComponents: 2,
		AlphaW:      1e-5,
		AlphaH:      0.01,
		L1Ratio:     0.5,
		Solver:      nmf.SolverMU,
		MaxIter:     200,
	}
}

func TestRunnerRun(t *testing.T) {
	m := testMatrix(t, 32, 24)
	ctx := context.Background()

	t.Run("all folds succeed", func(t *testing.T) {
		r := testRunner(&nmf.DefaultFitter{})

		trial, err := r.Run(ctx, m, testHP(), 0, 1)
		require.NoError(t, err)
		require.Equal(t, StatusOK, trial.Status)
		require.Len(t, trial.Folds, 3)
		require.True(t, trial.Viable(false))

		for _, fr := range trial.Folds {
			require.Empty(t, fr.Err)
			require.False(t, math.IsNaN(fr.Objectives.TestReconstructionError))
			require.Greater(t, fr.Objectives.TestReconstructionError, 0.0)
		}
		require.Greater(t, trial.Objectives.TrainReconstructionError, 0.0)
	})

	t.Run("one failed fold degrades the trial", func(t *testing.T) {
		r := testRunner(&flakyFitter{delegate: &nmf.DefaultFitter{}})

		trial, err := r.Run(ctx, m, testHP(), 1, 1)
		require.NoError(t, err)
		require.Equal(t, StatusDegraded, trial.Status)

		failed := 0
		for _, fr := range trial.Folds {
			if fr.Err != "" {
				failed++
			}
		}
		require.Equal(t, 1, failed)

		require.True(t, trial.Viable(true))
		require.False(t, trial.Viable(false))
	})

	t.Run("all folds failed", func(t *testing.T) {
		r := testRunner(failingFitter{})

		trial, err := r.Run(ctx, m, testHP(), 2, 1)

		var tfe *TrialFailedError
		require.ErrorAs(t, err, &tfe)
		require.Equal(t, 2, tfe.TrialID)
		require.Len(t, tfe.Causes, 3)

		require.Equal(t, StatusFailed, trial.Status)
		require.NotEmpty(t, trial.Err)
		require.False(t, trial.Viable(true))
	})

	t.Run("split failure yields a failed record", func(t *testing.T) {
		window, err := spectral.NewScanWindow(0, 10)
		require.NoError(t, err)
		empty, err := spectral.NewMatrix(window, mat.NewDense(10, 10, nil), nil)
		require.NoError(t, err)

		r := testRunner(&nmf.DefaultFitter{})

		trial, err := r.Run(ctx, empty, testHP(), 3, 1)

		var ide *mask.InsufficientDataError
		require.ErrorAs(t, err, &ide)
		require.Equal(t, StatusFailed, trial.Status)
	})

	t.Run("deterministic for fixed seed", func(t *testing.T) {
		r := testRunner(&nmf.DefaultFitter{})

		a, err := r.Run(ctx, m, testHP(), 4, 99)
		require.NoError(t, err)
		b, err := r.Run(ctx, m, testHP(), 4, 99)
		require.NoError(t, err)
		require.Equal(t, a.Objectives, b.Objectives)

		c, err := r.Run(ctx, m, testHP(), 4, 100)
		require.NoError(t, err)
		require.NotEqual(t, a.Objectives, c.Objectives)
	})

	t.Run("parallel folds match sequential", func(t *testing.T) {
		seq := testRunner(&nmf.DefaultFitter{})
		par := testRunner(&nmf.DefaultFitter{})
		par.FoldConcurrency = 3

		a, err := seq.Run(ctx, m, testHP(), 5, 7)
		require.NoError(t, err)
		b, err := par.Run(ctx, m, testHP(), 5, 7)
		require.NoError(t, err)
		require.Equal(t, a.Objectives, b.Objectives)
		for k := range a.Folds {
			require.Equal(t, a.Folds[k].Objectives, b.Folds[k].Objectives)
		}
	})

	t.Run("cancelled context fails the trial", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		r := testRunner(&nmf.DefaultFitter{})
		trial, err := r.Run(cancelled, m, testHP(), 6, 1)
		require.ErrorIs(t, err, context.Canceled)
		require.Equal(t, StatusFailed, trial.Status)
	})
}

func TestDeriveSeed(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := uint64(0); i < 1000; i++ {
		s := deriveSeed(42, i)
		require.False(t, seen[s], "seed collision at %d", i)
		seen[s] = true
	}
	require.Equal(t, deriveSeed(42, 7), deriveSeed(42, 7))
	require.NotEqual(t, deriveSeed(42, 7), deriveSeed(43, 7))
}
