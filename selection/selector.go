package selection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
	"github.com/hupe1980/nmftune/search"
	"github.com/hupe1980/nmftune/spectral"
)

// ErrNoViableTrial is returned when the history contains no trial
// eligible for selection.
var ErrNoViableTrial = errors.New("selection: no viable trial in history")

// Policy ranks a viable trial population and returns the index of the
// winner. The population is never empty and arrives in submission
// order; ties break toward the earlier trial.
type Policy interface {
	Rank(trials []search.Trial, targets objective.Targets) (int, error)
}

// HarmonicMean ranks trials by the harmonic mean of their min-max
// scaled target scores over Fields. Trials that collapse on any single
// objective rank near the bottom regardless of the others.
type HarmonicMean struct {
	// Fields lists the objective fields entering the scalarization.
	Fields []string
}

// Rank returns the index of the trial with the highest scalarized
// score.
func (p HarmonicMean) Rank(trials []search.Trial, targets objective.Targets) (int, error) {
	if len(p.Fields) == 0 {
		return 0, errors.New("selection: harmonic mean policy requires at least one objective field")
	}

	scores := objective.Scalarize(search.Vectors(trials), p.Fields, targets)

	best := 0
	for i, s := range scores {
		if s > scores[best] {
			best = i
		}
	}
	return best, nil
}

// Lexicographic ranks trials by comparing target scores field by
// field: the first field decides, later fields only break ties.
type Lexicographic struct {
	// Fields lists the objective fields in priority order.
	Fields []string
}

// Rank returns the index of the lexicographically best trial.
func (p Lexicographic) Rank(trials []search.Trial, targets objective.Targets) (int, error) {
	if len(p.Fields) == 0 {
		return 0, errors.New("selection: lexicographic policy requires at least one objective field")
	}

	best := 0
	for i := 1; i < len(trials); i++ {
		better, err := p.less(trials[best], trials[i], targets)
		if err != nil {
			return 0, err
		}
		if better {
			best = i
		}
	}
	return best, nil
}

// less reports whether b beats a.
func (p Lexicographic) less(a, b search.Trial, targets objective.Targets) (bool, error) {
	for _, field := range p.Fields {
		av, err := a.Objectives.Field(field)
		if err != nil {
			return false, fmt.Errorf("selection: %w", err)
		}
		bv, err := b.Objectives.Field(field)
		if err != nil {
			return false, fmt.Errorf("selection: %w", err)
		}

		as, bs := targets.Score(field, av), targets.Score(field, bv)
		if bs > as {
			return true, nil
		}
		if bs < as {
			return false, nil
		}
	}
	return false, nil
}

// Pareto ranks trials by dominance over the target scores of Fields:
// a trial is dominated when another trial is at least as good on every
// field and strictly better on one. Among the non-dominated front the
// fields break ties in listed order.
type Pareto struct {
	// Fields lists the objective fields, priority order for
	// tie-breaking.
	Fields []string
}

// Rank returns the index of the tie-broken best non-dominated trial.
func (p Pareto) Rank(trials []search.Trial, targets objective.Targets) (int, error) {
	if len(p.Fields) == 0 {
		return 0, errors.New("selection: pareto policy requires at least one objective field")
	}

	scores := make([][]float64, len(trials))
	for i, t := range trials {
		scores[i] = make([]float64, len(p.Fields))
		for f, field := range p.Fields {
			v, err := t.Objectives.Field(field)
			if err != nil {
				return 0, fmt.Errorf("selection: %w", err)
			}
			scores[i][f] = targets.Score(field, v)
		}
	}

	dominates := func(a, b []float64) bool {
		strict := false
		for f := range a {
			if a[f] < b[f] {
				return false
			}
			if a[f] > b[f] {
				strict = true
			}
		}
		return strict
	}

	best := -1
	for i := range trials {
		dominated := false
		for j := range trials {
			if j != i && dominates(scores[j], scores[i]) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		// Lexicographic tie-break within the front.
		for f := range p.Fields {
			if scores[i][f] > scores[best][f] {
				best = i
				break
			}
			if scores[i][f] < scores[best][f] {
				break
			}
		}
	}
	return best, nil
}

// Result is the outcome of a selection: the winning trial and, after a
// refit, the final model fitted on the full unmasked matrix.
type Result struct {
	// Best is the winning trial record.
	Best search.Trial

	// Model is the refit model, nil when only selection was requested.
	Model *nmf.Model
}

// Selector picks the best trial of a search history. Selection is a
// pure function of the history: selecting twice from the same history
// yields the same winner.
type Selector struct {
	// Policy ranks the viable trials. Required.
	Policy Policy

	// Targets supplies per-field target values for ranking.
	Targets objective.Targets

	// IncludeDegraded admits trials with partially failed folds.
	IncludeDegraded bool

	// Fitter performs the final refit. Required for SelectAndRefit.
	Fitter nmf.Fitter

	// Logger receives selection logs. Nil discards.
	Logger *slog.Logger
}

// Select returns the winning trial without refitting. It returns
// ErrNoViableTrial when nothing in the history is eligible.
func (s *Selector) Select(history *search.History) (*Result, error) {
	viable := history.Viable(s.IncludeDegraded)
	if len(viable) == 0 {
		return nil, ErrNoViableTrial
	}

	best, err := s.Policy.Rank(viable, s.Targets)
	if err != nil {
		return nil, err
	}
	if best < 0 || best >= len(viable) {
		return nil, fmt.Errorf("selection: policy returned index %d for %d trials", best, len(viable))
	}

	winner := viable[best]
	s.logger().Info("trial selected",
		slog.Int("trial", winner.ID),
		slog.String("params", winner.HP.String()),
		slog.Int("candidates", len(viable)))

	return &Result{Best: winner}, nil
}

// SelectAndRefit selects the winning trial and refits its
// hyperparameters on the full unmasked matrix, using the winning
// trial's seed so the final model is reproducible from the history
// record alone.
func (s *Selector) SelectAndRefit(ctx context.Context, m *spectral.Matrix, history *search.History) (*Result, error) {
	res, err := s.Select(history)
	if err != nil {
		return nil, err
	}

	model, err := s.Fitter.Fit(ctx, m.Dense(), res.Best.HP, res.Best.Seed)
	if err != nil {
		var cw *nmf.ConvergenceWarning
		if !errors.As(err, &cw) {
			return nil, fmt.Errorf("selection: refit trial %d: %w", res.Best.ID, err)
		}
		s.logger().Warn("refit did not converge",
			slog.Int("trial", res.Best.ID),
			slog.Float64("loss", cw.Loss))
	}

	res.Model = model
	return res, nil
}

func (s *Selector) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
