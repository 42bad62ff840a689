// Package nmftune tunes non-negative matrix factorization
// hyperparameters for windowed mass-spectrometry data.
//
// The input is a spectral matrix: m/z bins by scans, non-negative
// intensities, one matrix per scan window. Tuning masks a fraction of
// the non-zero entries, fits candidate hyperparameter sets on the
// remainder, and scores each candidate on reconstruction of the
// held-out entries plus a set of structural objectives (component
// orthogonality, peak locality, sparsity). The winner is refit on the
// full matrix.
//
// # Quick Start
//
//	cfg := config.Default()
//	tuner, _ := nmftune.New(cfg)
//
//	result, history, err := tuner.TuneWindow(ctx, matrix)
//	if err != nil {
//	    // nmftune.ErrNoViableTrial: every candidate failed numerically
//	}
//	model := result.Model // W, H, winning hyperparameters
//
// Search runs in grid mode over a discrete space, or in Bayesian mode
// (cfg.Tuning.Optuna) over continuous ranges with a proposal loop.
// Both modes are deterministic for a fixed cfg.General.RandomSeed,
// independent of cfg.Tuning.NJobs.
//
// # Persistence
//
// With a blob store attached, every tuning run is saved under a fresh
// run id — full trial history, refit model and configuration snapshot:
//
//	store, _ := blobstore.NewLocalStore("./runs")
//	tuner, _ := nmftune.New(cfg, nmftune.WithArtifactStore(store))
//
// S3 and MinIO backends live in blobstore/s3 and blobstore/minio.
package nmftune
