package nmftune

import (
	"github.com/hupe1980/nmftune/blobstore"
	"github.com/hupe1980/nmftune/codec"
	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/search"
)

type options struct {
	logger   *Logger
	metrics  MetricsCollector
	fitter   nmf.Fitter
	proposer search.Proposer
	space    *nmf.Space
	store    blobstore.Store
	codec    codec.Codec
}

// Option configures Tuner constructor behavior.
type Option func(*options)

// WithLogger sets the logger. Nil restores the default (discard).
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector.
func WithMetricsCollector(m MetricsCollector) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithFitter replaces the built-in factorization backend.
func WithFitter(f nmf.Fitter) Option {
	return func(o *options) {
		o.fitter = f
	}
}

// WithProposer replaces the Bayesian proposal strategy. Only used when
// cfg.Tuning.Optuna is set.
func WithProposer(p search.Proposer) Option {
	return func(o *options) {
		o.proposer = p
	}
}

// WithSpace sets the hyperparameter search space. Without it, the
// space degenerates to the configured defaults: one trial in grid
// mode.
func WithSpace(s nmf.Space) Option {
	return func(o *options) {
		o.space = &s
	}
}

// WithArtifactStore attaches a blob store; every tuning run is then
// persisted with its history, refit model and configuration snapshot.
func WithArtifactStore(s blobstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithCodec configures the codec used for run artifacts.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}
