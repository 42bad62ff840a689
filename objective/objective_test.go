package objective

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nmftune/mask"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/spectral"
)

// perfectFold splits a small all-ones matrix once and returns the
// matrix with its fold.
func perfectFold(t *testing.T) (*spectral.Matrix, mask.Fold) {
	t.Helper()

	data := mat.NewDense(6, 8, nil)
	for i := 0; i < 6; i++ {
		for j := 0; j < 8; j++ {
			data.Set(i, j, 1)
		}
	}
	w, err := spectral.NewScanWindow(0, 8)
	require.NoError(t, err)
	m, err := spectral.NewMatrix(w, data, nil)
	require.NoError(t, err)

	s := &mask.Splitter{NSplits: 1, TestFraction: 0.25, Seed: 5}
	res, err := s.Split(m)
	require.NoError(t, err)
	return m, res.Folds[0]
}

func TestEvaluator_PerfectReconstructionScoresZeroError(t *testing.T) {
	m, fold := perfectFold(t)

	// W*H == all-ones exactly: W = ones(6,1), H = ones(1,8).
	w := mat.NewDense(6, 1, []float64{1, 1, 1, 1, 1, 1})
	h := mat.NewDense(1, 8, []float64{1, 1, 1, 1, 1, 1, 1, 1})
	model := &nmf.Model{W: w, H: h, HP: nmf.Hyperparameters{NComponents: 1}}

	e := &Evaluator{}
	v := e.Score(model, m, fold)

	require.Zero(t, v.TestReconstructionError)
	require.Zero(t, v.TrainReconstructionError)
	require.Equal(t, 1.0, v.NonzeroComponentFraction)
	require.Zero(t, v.WeightOrthogonality, "a single component is trivially orthogonal")
	require.Zero(t, v.SampleOrthogonality)
}

func TestEvaluator_TestErrorRestrictedToTestMask(t *testing.T) {
	m, fold := perfectFold(t)

	// Reconstruction of all zeros: every masked entry contributes 1.
	w := mat.NewDense(6, 1, nil)
	h := mat.NewDense(1, 8, nil)
	model := &nmf.Model{W: w, H: h, HP: nmf.Hyperparameters{NComponents: 1}}

	e := &Evaluator{}
	v := e.Score(model, m, fold)

	require.Equal(t, 1.0, v.TestReconstructionError)
	require.Equal(t, 1.0, v.TrainReconstructionError)
	require.Zero(t, v.NonzeroComponentFraction)
}

func TestEvaluator_OrthogonalityDistinguishesProfiles(t *testing.T) {
	m, fold := perfectFold(t)

	// Orthogonal components: disjoint scan supports.
	hOrtho := mat.NewDense(2, 8, []float64{
		1, 1, 1, 1, 0, 0, 0, 0,
		0, 0, 0, 0, 1, 1, 1, 1,
	})
	// Identical components: fully overlapping supports.
	hOverlap := mat.NewDense(2, 8, []float64{
		1, 1, 1, 1, 1, 1, 1, 1,
		1, 1, 1, 1, 1, 1, 1, 1,
	})
	wAny := mat.NewDense(6, 2, []float64{
		1, 0, 1, 0, 1, 0,
		0, 1, 0, 1, 0, 1,
	})

	e := &Evaluator{}
	ortho := e.Score(&nmf.Model{W: wAny, H: hOrtho}, m, fold)
	overlap := e.Score(&nmf.Model{W: wAny, H: hOverlap}, m, fold)

	require.Zero(t, ortho.SampleOrthogonality)
	require.Greater(t, overlap.SampleOrthogonality, 0.9)
}

func TestEvaluator_FractionWindowComponent(t *testing.T) {
	m, fold := perfectFold(t)

	// One narrow component (single scan, sigma 0) and one flat one.
	h := mat.NewDense(2, 8, []float64{
		0, 0, 0, 5, 0, 0, 0, 0,
		1, 1, 1, 1, 1, 1, 1, 1,
	})
	w := mat.NewDense(6, 2, nil)
	for i := 0; i < 6; i++ {
		w.Set(i, 0, 1)
		w.Set(i, 1, 1)
	}

	e := &Evaluator{ComponentSigma: 1}
	v := e.Score(&nmf.Model{W: w, H: h}, m, fold)

	// The flat profile over 8 scans has std ~2.29 > 1; the spike has 0.
	require.Equal(t, 0.5, v.FractionWindowComponent)
}

func TestTargets_Score(t *testing.T) {
	tg := DefaultTargets()

	// Orthogonality: target 0, closer is better.
	require.Greater(t, tg.Score(FieldWeightOrthogonality, 0.1), tg.Score(FieldWeightOrthogonality, 0.5))

	// Reconstruction error: no target, smaller is better.
	require.Greater(t, tg.Score(FieldTestReconstructionError, 0.1), tg.Score(FieldTestReconstructionError, 0.5))

	// Nonzero component fraction: target 8/20.
	best := tg.Score(FieldNonzeroComponentFraction, 0.4)
	require.Greater(t, best, tg.Score(FieldNonzeroComponentFraction, 1.0))
	require.Greater(t, best, tg.Score(FieldNonzeroComponentFraction, 0.0))

	// L2 squares the distance.
	tg.Error = ErrorL2
	require.InDelta(t, -0.01, tg.Score(FieldWeightOrthogonality, 0.1), 1e-12)
}

func TestScalarize_RanksDominantTrialFirst(t *testing.T) {
	vectors := []Vector{
		{TestReconstructionError: 0.1, WeightOrthogonality: 0.1, SampleOrthogonality: 0.1},
		{TestReconstructionError: 0.9, WeightOrthogonality: 0.8, SampleOrthogonality: 0.7},
	}
	fields := []string{FieldTestReconstructionError, FieldWeightOrthogonality, FieldSampleOrthogonality}

	scores := Scalarize(vectors, fields, DefaultTargets())
	require.Len(t, scores, 2)
	require.Greater(t, scores[0], scores[1])

	// With two trials, min-max scaling pins the better trial at 1 and
	// the worse at 0 on every field, so the harmonic means reduce to
	// 1.001 and 0.001 exactly.
	require.InDelta(t, 1.001, scores[0], 1e-12)
	require.InDelta(t, 0.001, scores[1], 1e-12)
}

func TestScalarize_HarmonicMeanPunishesCollapse(t *testing.T) {
	// Trial 0 is mediocre everywhere; trial 1 is perfect on one
	// objective but worst on the other. Plain averaging would favor
	// trial 1; the harmonic mean must not.
	vectors := []Vector{
		{TestReconstructionError: 0.4, WeightOrthogonality: 0.3},
		{TestReconstructionError: 0.0, WeightOrthogonality: 1.0},
		{TestReconstructionError: 1.0, WeightOrthogonality: 0.0},
	}
	fields := []string{FieldTestReconstructionError, FieldWeightOrthogonality}

	scores := Scalarize(vectors, fields, DefaultTargets())
	require.Greater(t, scores[0], scores[1])
	require.Greater(t, scores[0], scores[2])
}

func TestMean_AggregatesFolds(t *testing.T) {
	m := Mean([]Vector{
		{TestReconstructionError: 1, NegLogRatio: -2},
		{TestReconstructionError: 3, NegLogRatio: 4},
	})
	require.Equal(t, 2.0, m.TestReconstructionError)
	require.Equal(t, 1.0, m.NegLogRatio)

	require.Equal(t, Vector{}, Mean(nil))
}

func TestVector_FieldLookup(t *testing.T) {
	v := Vector{SampleOrthogonality: 0.25}
	got, err := v.Field(FieldSampleOrthogonality)
	require.NoError(t, err)
	require.Equal(t, 0.25, got)

	_, err = v.Field("bogus")
	require.Error(t, err)

	for _, f := range Fields() {
		_, err := v.Field(f)
		require.NoError(t, err, f)
	}
}
