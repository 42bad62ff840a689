package nmftune

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hupe1980/nmftune/artifact"
	"github.com/hupe1980/nmftune/config"
	"github.com/hupe1980/nmftune/mask"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
	"github.com/hupe1980/nmftune/search"
	"github.com/hupe1980/nmftune/selection"
	"github.com/hupe1980/nmftune/spectral"
)

// Tuner runs the full tuning pipeline for one scan window at a time:
// mask, search, select, refit, and (optionally) persist.
//
// A Tuner is safe for concurrent TuneWindow calls; each call carries
// its own search state.
type Tuner struct {
	cfg      config.Config
	space    nmf.Space
	fitter   nmf.Fitter
	proposer search.Proposer
	logger   *Logger
	metrics  MetricsCollector
	writer   *artifact.Writer
}

// New creates a Tuner from the configuration.
func New(cfg config.Config, optFns ...Option) (*Tuner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, fn := range optFns {
		fn(&o)
	}

	t := &Tuner{
		cfg:      cfg,
		fitter:   o.fitter,
		proposer: o.proposer,
		logger:   o.logger,
		metrics:  o.metrics,
	}
	if t.fitter == nil {
		t.fitter = &nmf.DefaultFitter{}
	}
	if t.proposer == nil {
		t.proposer = &search.AcquisitionProposer{}
	}
	if t.logger == nil {
		t.logger = NoopLogger()
	}
	if t.metrics == nil {
		t.metrics = NoopMetricsCollector{}
	}

	if o.space != nil {
		t.space = *o.space
	}
	t.space.Defaults = cfg.NMF.Hyperparameters()

	if o.store != nil {
		t.writer = &artifact.Writer{
			Store:  o.store,
			Codec:  o.codec,
			Logger: t.logger.Logger,
		}
	}

	return t, nil
}

// TuneWindow tunes the factorization of one window matrix and returns
// the selection result (winning trial plus full-matrix refit model)
// and the complete search history.
//
// The history is returned even when selection fails, so callers can
// audit what went wrong; on ErrNoViableTrial it holds only failed
// trials.
func (t *Tuner) TuneWindow(ctx context.Context, m *spectral.Matrix) (*selection.Result, *search.History, error) {
	cfg := t.cfg
	window := m.Window()
	logger := t.logger.WithWindow(window.Start(), window.End())

	var splitter search.Splitter
	switch cfg.Tuning.SplitterType {
	case config.SplitterSample:
		splitter = &mask.ScanSplitter{
			NSplits:          cfg.Tuning.NSplits,
			TestFraction:     cfg.Tuning.TestFraction,
			SamplingFraction: cfg.Tuning.WindowSamplingFraction,
			ExcludeEdges:     cfg.Tuning.ExcludeScanWindowEdges,
			Seed:             cfg.General.RandomSeed,
		}
	default:
		splitter = &mask.Splitter{
			NSplits:          cfg.Tuning.NSplits,
			TestFraction:     cfg.Tuning.TestFraction,
			SamplingFraction: cfg.Tuning.WindowSamplingFraction,
			SamplingFloor:    cfg.Tuning.WindowSamplingN,
			ExcludeEdges:     cfg.Tuning.ExcludeScanWindowEdges,
			BalanceSignal:    cfg.Tuning.BalanceMaskSignal,
			MaskAll:          !cfg.Tuning.MaskSignal,
			Seed:             cfg.General.RandomSeed,
		}
	}

	engine := &search.Engine{
		Runner: &search.Runner{
			Splitter: splitter,
			Fitter:    t.fitter,
			Evaluator: &objective.Evaluator{ComponentSigma: cfg.Tuning.ComponentSigma},
			Logger:    logger.Logger,
		},
		NJobs:           cfg.Tuning.NJobs,
		Seed:            cfg.General.RandomSeed,
		ObjectiveParams: cfg.Tuning.ObjectiveParams,
		Targets:         cfg.Targets(),
		Logger:          logger.Logger,
		Metrics:         collectorAdapter{metrics: t.metrics},
	}

	var (
		history *search.History
		err     error
	)
	if cfg.Tuning.Optuna {
		history, err = engine.Bayesian(ctx, m, t.space, t.proposer, cfg.Tuning.NIter)
	} else {
		history, err = engine.Grid(ctx, m, t.space)
	}
	if err != nil {
		return nil, history, err
	}

	selector := &selection.Selector{
		Policy:          selection.HarmonicMean{Fields: cfg.Tuning.ObjectiveParams},
		Targets:         cfg.Targets(),
		IncludeDegraded: cfg.Tuning.IncludeDegraded,
		Fitter:          t.fitter,
		Logger:          logger.Logger,
	}

	refitStart := time.Now()
	result, err := selector.SelectAndRefit(ctx, m, history)
	t.metrics.RecordRefit(time.Since(refitStart), err)
	if err != nil {
		return nil, history, err
	}

	if t.writer != nil {
		if err := t.saveRun(ctx, history, result); err != nil {
			// The tuned model is intact; persistence failure is the
			// caller's call to retry or ignore.
			return result, history, fmt.Errorf("nmftune: persist run: %w", err)
		}
	}

	return result, history, nil
}

func (t *Tuner) saveRun(ctx context.Context, history *search.History, result *selection.Result) error {
	cfgData, err := json.Marshal(t.cfg)
	if err != nil {
		return err
	}

	id, err := t.writer.SaveRun(ctx, &artifact.Run{
		Trials:      history.Snapshot(),
		Model:       result.Model,
		Config:      cfgData,
		BestTrialID: result.Best.ID,
	})
	if err != nil {
		return err
	}

	t.logger.WithRun(id).Info("tuning run persisted", "trials", history.Len())
	return nil
}
