// Package config groups the tuning options the way the surrounding
// pipeline passes them: one struct per recognized option group, with
// defaults matching the historical tuning setup.
package config

import (
	"fmt"

	"github.com/hupe1980/nmftune/nmf"
	"github.com/hupe1980/nmftune/objective"
)

// Recognized splitter_type values.
const (
	// SplitterMask holds out individual matrix entries.
	SplitterMask = "Mask"

	// SplitterSample holds out whole scans.
	SplitterSample = "Sample"
)

// Tuning controls the search itself: mode, budget, cross-validation
// and ranking.
type Tuning struct {
	// Optuna selects Bayesian search; false means grid search.
	Optuna bool `json:"optuna"`

	// NIter is the Bayesian trial budget.
	NIter int `json:"n_iter"`

	// NJobs bounds concurrent trials. <= 0 means GOMAXPROCS.
	NJobs int `json:"n_jobs"`

	// NSplits is the cross-validation fold count.
	NSplits int `json:"n_splits"`

	// TestFraction is the holdout fraction in single-split mode.
	TestFraction float64 `json:"test_fraction"`

	// WindowSamplingN is the lower bound on per-fold held-out entries.
	WindowSamplingN int `json:"window_sampling_n"`

	// WindowSamplingFraction is the per-fold held-out proportion of
	// eligible entries in K-fold mode.
	WindowSamplingFraction float64 `json:"window_sampling_fraction"`

	// ExcludeScanWindowEdges excludes the first and last n scan
	// columns from mask sampling.
	ExcludeScanWindowEdges int `json:"exclude_scan_window_edges"`

	// SplitterType selects the cross-validation strategy: SplitterMask
	// (entry-level holdout, the default) or SplitterSample (scan-level
	// holdout). Empty means SplitterMask.
	SplitterType string `json:"splitter_type"`

	// MaskSignal restricts entry-level masking to signal (non-zero)
	// cells. False samples from every interior cell.
	MaskSignal bool `json:"mask_signal"`

	// BalanceMaskSignal additionally holds out structural zeros in
	// test masks at the realized signal rate, so test error is not
	// estimated on signal cells alone.
	BalanceMaskSignal bool `json:"balance_mask_signal"`

	// ObjectiveParams orders the objective fields used for ranking.
	ObjectiveParams []string `json:"objective_params"`

	// ComponentsInWindow is the expected number of chemical components
	// per scan window, driving the objective targets.
	ComponentsInWindow float64 `json:"components_in_window"`

	// ComponentSigma is the expected component peak scale in scans.
	ComponentSigma float64 `json:"component_sigma"`

	// IncludeDegraded admits trials with partially failed folds into
	// selection.
	IncludeDegraded bool `json:"include_degraded"`
}

// NMF carries the default hyperparameters used for every dimension the
// search space leaves fixed.
type NMF struct {
	NComponents int     `json:"n_components"`
	AlphaW      float64 `json:"alpha_w"`
	AlphaH      float64 `json:"alpha_h"`
	L1Ratio     float64 `json:"l1_ratio"`
	MaxIter     int     `json:"max_iter"`
	Solver      string  `json:"solver"`
}

// Hyperparameters converts the group into the solver's parameter set.
func (n NMF) Hyperparameters() nmf.Hyperparameters {
	return nmf.Hyperparameters{
		NComponents: n.NComponents,
		AlphaW:      n.AlphaW,
		AlphaH:      n.AlphaH,
		L1Ratio:     n.L1Ratio,
		MaxIter:     n.MaxIter,
		Solver:      nmf.Solver(n.Solver),
	}
}

// Discretization configures the m/z binning of the spectral matrix
// producer.
type Discretization struct {
	// MzLow and MzHigh bound the binned m/z range.
	MzLow  float64 `json:"mz_low"`
	MzHigh float64 `json:"mz_high"`

	// Tolerance is the instrument mass accuracy in ppm.
	Tolerance float64 `json:"tolerance"`

	// Steps is the number of bins per tolerance width.
	Steps int `json:"steps"`
}

// ScanFilter configures the scan windowing of the producer.
type ScanFilter struct {
	// ScanWidth is the window width in scans.
	ScanWidth int `json:"scan_width"`

	// ScanOverlap is the overlap between adjacent windows in scans.
	ScanOverlap int `json:"scan_overlap"`
}

// General holds cross-cutting options.
type General struct {
	// RandomSeed is the global determinism seed.
	RandomSeed uint64 `json:"random_seed"`
}

// Config is the full tuning configuration.
type Config struct {
	Tuning         Tuning         `json:"tuning"`
	NMF            NMF            `json:"nmf"`
	Discretization Discretization `json:"discretization"`
	ScanFilter     ScanFilter     `json:"scan_filter"`
	General        General        `json:"general"`
}

// Default returns the historical tuning defaults.
func Default() Config {
	return Config{
		Tuning: Tuning{
			NIter:                  100,
			NSplits:                5,
			TestFraction:           0.2,
			WindowSamplingN:        50,
			WindowSamplingFraction: 0.2,
			SplitterType:           SplitterMask,
			MaskSignal:             true,
			BalanceMaskSignal:      true,
			ObjectiveParams: []string{
				objective.FieldTestReconstructionError,
				objective.FieldWeightOrthogonality,
				objective.FieldFractionWindowComponent,
				objective.FieldNonzeroComponentFraction,
			},
			ComponentsInWindow: 8,
			ComponentSigma:     3,
		},
		NMF: NMF{
			NComponents: 20,
			AlphaW:      1e-5,
			AlphaH:      0.0375,
			L1Ratio:     0.75,
			MaxIter:     500,
			Solver:      string(nmf.SolverMU),
		},
		Discretization: Discretization{
			MzLow:     200,
			MzHigh:    1800,
			Tolerance: 10,
			Steps:     3,
		},
		ScanFilter: ScanFilter{
			ScanWidth:   150,
			ScanOverlap: 30,
		},
		General: General{
			RandomSeed: 42,
		},
	}
}

// Validate checks cross-field consistency.
func (c Config) Validate() error {
	t := c.Tuning
	if t.NSplits < 1 {
		return fmt.Errorf("config: n_splits must be >= 1, got %d", t.NSplits)
	}
	if t.TestFraction <= 0 || t.TestFraction >= 1 {
		return fmt.Errorf("config: test_fraction must be in (0, 1), got %g", t.TestFraction)
	}
	if t.WindowSamplingFraction < 0 || t.WindowSamplingFraction > 1 {
		return fmt.Errorf("config: window_sampling_fraction must be in [0, 1], got %g", t.WindowSamplingFraction)
	}
	if t.WindowSamplingN < 0 {
		return fmt.Errorf("config: window_sampling_n must be >= 0, got %d", t.WindowSamplingN)
	}
	if t.ExcludeScanWindowEdges < 0 {
		return fmt.Errorf("config: exclude_scan_window_edges must be >= 0, got %d", t.ExcludeScanWindowEdges)
	}
	switch t.SplitterType {
	case "", SplitterMask, SplitterSample:
	default:
		return fmt.Errorf("config: unknown splitter_type %q", t.SplitterType)
	}
	if t.Optuna && t.NIter < 1 {
		return fmt.Errorf("config: n_iter must be >= 1 for bayesian search, got %d", t.NIter)
	}
	for _, field := range t.ObjectiveParams {
		if _, err := (objective.Vector{}).Field(field); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if t.ComponentSigma <= 0 {
		return fmt.Errorf("config: component_sigma must be > 0, got %g", t.ComponentSigma)
	}

	if err := c.NMF.Hyperparameters().Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	d := c.Discretization
	if d.MzLow >= d.MzHigh {
		return fmt.Errorf("config: mz_low %g must be below mz_high %g", d.MzLow, d.MzHigh)
	}
	if d.Tolerance <= 0 {
		return fmt.Errorf("config: tolerance must be > 0 ppm, got %g", d.Tolerance)
	}
	if d.Steps < 1 {
		return fmt.Errorf("config: steps must be >= 1, got %d", d.Steps)
	}

	s := c.ScanFilter
	if s.ScanWidth < 1 {
		return fmt.Errorf("config: scan_width must be >= 1, got %d", s.ScanWidth)
	}
	if s.ScanOverlap < 0 || s.ScanOverlap >= s.ScanWidth {
		return fmt.Errorf("config: scan_overlap must be in [0, scan_width), got %d", s.ScanOverlap)
	}

	return nil
}

// Targets derives the objective target values from the configuration.
func (c Config) Targets() objective.Targets {
	return objective.Targets{
		ComponentsInWindow: c.Tuning.ComponentsInWindow,
		NComponents:        float64(c.NMF.NComponents),
		ScanWidth:          float64(c.ScanFilter.ScanWidth),
		ComponentSigma:     c.Tuning.ComponentSigma,
		Error:              objective.ErrorL1,
	}
}
