package search

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/nmftune/mask"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
	"github.com/hupe1980/nmftune/spectral"
)

// Splitter produces the train/test fold masks of one window matrix.
// mask.Splitter and mask.ScanSplitter both implement it.
type Splitter interface {
	Split(m *spectral.Matrix) (*mask.Result, error)
}

// Runner executes one hyperparameter trial: split the window matrix
// once, fit and score every fold, and aggregate the per-fold objective
// vectors by arithmetic mean.
//
// The splitter carries its own fixed seed, so every trial of a search
// sees the same fold partition and objective vectors stay comparable
// across trials. Only the fitter's seed varies per trial.
type Runner struct {
	// Splitter produces the train/test masks. Required.
	Splitter Splitter

	// Fitter is the factorization backend. Required.
	Fitter nmf.Fitter

	// Evaluator scores fitted models. Required.
	Evaluator *objective.Evaluator

	// FoldConcurrency bounds how many folds of one trial fit in
	// parallel. Zero or one means sequential.
	FoldConcurrency int

	// Logger receives fold-level warnings. Nil discards.
	Logger *slog.Logger
}

// Run executes the trial and returns its record. The returned error is
// non-nil only when the whole trial failed (*TrialFailedError, or a
// split failure); even then the returned Trial is a valid failed
// record for the history.
func (r *Runner) Run(ctx context.Context, m *spectral.Matrix, hp nmf.Hyperparameters, trialID int, seed uint64) (Trial, error) {
	start := time.Now()
	logger := r.logger()

	trial := Trial{ID: trialID, HP: hp, Seed: seed}

	split, err := r.Splitter.Split(m)
	if err != nil {
		trial.Status = StatusFailed
		trial.Err = err.Error()
		trial.Elapsed = time.Since(start)
		return trial, err
	}
	if split.Clamped {
		logger.Warn("held-out size clamped to eligible entries",
			slog.Int("trial", trialID),
			slog.Int("eligible", split.Eligible),
			slog.Int("held_out", split.HeldOut))
	}

	trial.Folds = make([]FoldResult, len(split.Folds))

	g, gctx := errgroup.WithContext(ctx)
	if r.FoldConcurrency > 1 {
		g.SetLimit(r.FoldConcurrency)
	} else {
		g.SetLimit(1)
	}

	for k := range split.Folds {
		g.Go(func() error {
			trial.Folds[k] = r.runFold(gctx, m, split.Folds[k], k, hp, deriveSeed(seed, uint64(k)))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		trial.Status = StatusFailed
		trial.Err = err.Error()
		trial.Elapsed = time.Since(start)
		return trial, err
	}

	var (
		ok     []objective.Vector
		causes []error
	)
	for k, fr := range trial.Folds {
		if fr.Err != "" {
			causes = append(causes, errors.New(fr.Err))
			logger.Warn("fold excluded from aggregate",
				slog.Int("trial", trialID), slog.Int("fold", k), slog.String("error", fr.Err))
			continue
		}
		ok = append(ok, fr.Objectives)
	}

	trial.Elapsed = time.Since(start)

	switch {
	case len(ok) == 0:
		trial.Status = StatusFailed
		tfe := &TrialFailedError{TrialID: trialID, Causes: causes}
		trial.Err = tfe.Error()
		return trial, tfe
	case len(causes) > 0:
		trial.Status = StatusDegraded
	default:
		trial.Status = StatusOK
	}

	trial.Objectives = objective.Mean(ok)
	return trial, nil
}

// runFold fits one fold and scores it. Convergence warnings are
// recorded but do not invalidate the fold; numerical failures do.
func (r *Runner) runFold(ctx context.Context, m *spectral.Matrix, fold mask.Fold, k int, hp nmf.Hyperparameters, seed uint64) FoldResult {
	start := time.Now()
	fr := FoldResult{Fold: k}

	train := fold.Test.Zero(m.Dense())

	model, err := r.Fitter.Fit(ctx, train, hp, seed)
	if err != nil {
		var cw *nmf.ConvergenceWarning
		if !errors.As(err, &cw) {
			fr.Err = err.Error()
			fr.Elapsed = time.Since(start)
			return fr
		}
		fr.Warning = cw.Error()
	}

	fr.Objectives = r.Evaluator.Score(model, m, fold)
	fr.Elapsed = time.Since(start)
	return fr
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.New(slog.DiscardHandler)
}
