package artifact

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/nmftune/blobstore"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
	"github.com/hupe1980/nmftune/search"
)

func testRun() *Run {
	hp := nmf.Hyperparameters{
		NComponents: 2,
		AlphaW:      1e-5,
		AlphaH:      0.0375,
		L1Ratio:     0.75,
		Solver:      nmf.SolverMU,
		MaxIter:     500,
	}

	return &Run{
		Trials: []search.Trial{
			{
				ID:     0,
				HP:     hp,
				Status: search.StatusOK,
				Seed:   7,
				Objectives: objective.Vector{
					TestReconstructionError:  0.02,
					TrainReconstructionError: 0.01,
				},
			},
			{ID: 1, HP: hp, Status: search.StatusFailed, Err: "diverged"},
		},
		Model: &nmf.Model{
			W:          mat.NewDense(3, 2, []float64{1, 0, 0.5, 0.5, 0, 1}),
			H:          mat.NewDense(2, 4, []float64{1, 2, 3, 4, 4, 3, 2, 1}),
			HP:         hp,
			Loss:       0.013,
			Iterations: 137,
		},
		Config:      json.RawMessage(`{"n_splits":5,"test_fraction":0.2}`),
		BestTrialID: 0,
	}
}

func TestWriterRoundTrip(t *testing.T) {
	ctx := context.Background()
	w := &Writer{Store: blobstore.NewMemoryStore()}

	id, err := w.SaveRun(ctx, testRun())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := w.LoadRun(ctx, id)
	require.NoError(t, err)

	want := testRun()
	require.Equal(t, id, got.ID)
	require.Equal(t, want.Trials, got.Trials)
	require.Equal(t, want.BestTrialID, got.BestTrialID)
	require.JSONEq(t, string(want.Config), string(got.Config))

	require.True(t, mat.Equal(want.Model.W, got.Model.W))
	require.True(t, mat.Equal(want.Model.H, got.Model.H))
	require.Equal(t, want.Model.HP, got.Model.HP)
	require.Equal(t, want.Model.Loss, got.Model.Loss)
	require.Equal(t, want.Model.Iterations, got.Model.Iterations)
}

func TestWriterOptionalBlobs(t *testing.T) {
	ctx := context.Background()
	w := &Writer{Store: blobstore.NewMemoryStore()}

	run := testRun()
	run.Model = nil
	run.Config = nil

	id, err := w.SaveRun(ctx, run)
	require.NoError(t, err)

	got, err := w.LoadRun(ctx, id)
	require.NoError(t, err)
	require.Nil(t, got.Model)
	require.Nil(t, got.Config)
	require.Len(t, got.Trials, 2)
}

func TestWriterManifestCommitsTheRun(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	w := &Writer{Store: store}

	id, err := w.SaveRun(ctx, testRun())
	require.NoError(t, err)

	// A run without its manifest does not exist.
	require.NoError(t, store.Delete(ctx, runPath(id, manifestBlob)))
	_, err = w.LoadRun(ctx, id)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	ids, err := w.ListRuns(ctx)
	require.NoError(t, err)
	require.NotContains(t, ids, id)
}

func TestWriterListAndDelete(t *testing.T) {
	ctx := context.Background()
	w := &Writer{Store: blobstore.NewMemoryStore()}

	a, err := w.SaveRun(ctx, testRun())
	require.NoError(t, err)
	b, err := w.SaveRun(ctx, testRun())
	require.NoError(t, err)

	ids, err := w.ListRuns(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{a, b}, ids)

	require.NoError(t, w.DeleteRun(ctx, a))

	ids, err = w.ListRuns(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{b}, ids)

	// Every blob of the deleted run is gone.
	names, err := w.Store.List(ctx, "runs/"+a+"/")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestWriterCompressedStore(t *testing.T) {
	ctx := context.Background()

	store, err := blobstore.NewCompressedStore(blobstore.NewMemoryStore(), blobstore.CompressionZstd)
	require.NoError(t, err)
	w := &Writer{Store: store}

	id, err := w.SaveRun(ctx, testRun())
	require.NoError(t, err)

	got, err := w.LoadRun(ctx, id)
	require.NoError(t, err)
	require.Len(t, got.Trials, 2)
}

func TestWriterRejectsUnknownCodec(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	w := &Writer{Store: store}

	id, err := w.SaveRun(ctx, testRun())
	require.NoError(t, err)

	// Corrupt the manifest with a codec this build does not know.
	raw, err := store.Get(ctx, runPath(id, manifestBlob))
	require.NoError(t, err)
	var m manifest
	require.NoError(t, json.Unmarshal(raw, &m))
	m.Codec = "msgpack"
	raw, err = json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, runPath(id, manifestBlob), raw))

	_, err = w.LoadRun(ctx, id)
	require.Error(t, err)
}
