package search

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
	"github.com/hupe1980/nmftune/spectral"
)

// Engine drives N trials over a hyperparameter space, in grid or
// Bayesian mode, with at most NJobs trials fitting concurrently.
//
// All workers share only the append-only History. Per-trial seeds are
// derived from Seed and the trial index, so the recorded scores are
// independent of scheduling order. Cancellation stops dispatching new
// trials; in-flight trials run to completion.
type Engine struct {
	// Runner executes individual trials. Required.
	Runner *Runner

	// NJobs bounds concurrent trials. <= 0 means GOMAXPROCS.
	NJobs int

	// Seed is the global determinism seed.
	Seed uint64

	// ObjectiveParams lists the objective fields used to scalarize the
	// history for Bayesian proposals. Empty means test reconstruction
	// error only.
	ObjectiveParams []string

	// Targets supplies the per-field target values for scalarization.
	Targets objective.Targets

	// Logger receives trial lifecycle logs. Nil discards.
	Logger *slog.Logger

	// Metrics receives search events. Nil discards.
	Metrics Collector
}

// Grid evaluates the full cartesian product of the space, one trial
// per combination, in submission order. Failed trials are recorded,
// not dropped. The returned history is complete even when ctx is
// cancelled mid-search; the error then reports the cancellation.
func (e *Engine) Grid(ctx context.Context, m *spectral.Matrix, space nmf.Space) (*History, error) {
	grid, err := space.Grid()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	history := NewHistory()

	pool := newWorkerPool(e.NJobs)
	defer pool.close()

	var wg sync.WaitGroup
	for i, hp := range grid {
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		task := e.trialTask(ctx, m, hp, i, history, &wg)
		if err := pool.submit(ctx, task); err != nil {
			wg.Done()
			break
		}
	}
	wg.Wait()

	e.metrics().SearchCompleted(history.Len(), time.Since(start))
	return history, ctx.Err()
}

// Bayesian evaluates nIter proposed trials. Proposals are drawn in
// waves of NJobs from the history completed so far, so the sequence of
// proposals is deterministic for a fixed seed and parallelism level.
func (e *Engine) Bayesian(ctx context.Context, m *spectral.Matrix, space nmf.Space, proposer Proposer, nIter int) (*History, error) {
	start := time.Now()
	history := NewHistory()

	pool := newWorkerPool(e.NJobs)
	defer pool.close()

	wave := e.NJobs
	if wave < 1 {
		wave = 1
	}

	for done := 0; done < nIter && ctx.Err() == nil; {
		n := min(wave, nIter-done)

		completed := history.Viable(true)
		scores := objective.Scalarize(Vectors(completed), e.objectiveParams(), e.Targets)

		var wg sync.WaitGroup
		for w := 0; w < n; w++ {
			id := done + w
			rng := rand.New(rand.NewPCG(deriveSeed(e.Seed, uint64(id)), uint64(id)))
			hp := proposer.Propose(rng, space, completed, scores)

			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			task := e.trialTask(ctx, m, hp, id, history, &wg)
			if err := pool.submit(ctx, task); err != nil {
				wg.Done()
				break
			}
		}
		wg.Wait()
		done += n
	}

	e.metrics().SearchCompleted(history.Len(), time.Since(start))
	return history, ctx.Err()
}

// trialTask wraps one trial execution for the worker pool.
func (e *Engine) trialTask(ctx context.Context, m *spectral.Matrix, hp nmf.Hyperparameters, id int, history *History, wg *sync.WaitGroup) func() {
	return func() {
		defer wg.Done()

		e.metrics().TrialStarted(id)
		e.logger().Debug("trial starting", slog.Int("trial", id), slog.String("params", hp.String()))

		trial, err := e.Runner.Run(ctx, m, hp, id, deriveSeed(e.Seed, uint64(id)))
		history.Append(trial)
		e.metrics().TrialCompleted(trial)

		switch {
		case err != nil:
			e.logger().Error("trial failed", slog.Int("trial", id), slog.String("error", err.Error()))
		case trial.Status == StatusDegraded:
			e.logger().Warn("trial degraded", slog.Int("trial", id), slog.String("params", hp.String()))
		default:
			e.logger().Info("trial completed",
				slog.Int("trial", id),
				slog.String("params", hp.String()),
				slog.Float64("test_error", trial.Objectives.TestReconstructionError),
				slog.Duration("elapsed", trial.Elapsed))
		}
	}
}

func (e *Engine) objectiveParams() []string {
	if len(e.ObjectiveParams) > 0 {
		return e.ObjectiveParams
	}
	return []string{objective.FieldTestReconstructionError}
}

func (e *Engine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (e *Engine) metrics() Collector {
	if e.Metrics != nil {
		return e.Metrics
	}
	return NoopCollector{}
}
