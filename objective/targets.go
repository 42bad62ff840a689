package objective

import "math"

// ErrorMetric selects how distance to a target value is penalized.
type ErrorMetric string

const (
	// ErrorL1 penalizes the absolute distance to the target.
	ErrorL1 ErrorMetric = "l1"

	// ErrorL2 penalizes the squared distance to the target.
	ErrorL2 ErrorMetric = "l2"
)

// Targets turns raw objective values into comparable scores where
// larger is always better. Fields with a known target value score by
// (negated) distance to that target; fields without one (the
// reconstruction errors and the overfit ratio) score by negation, so
// smaller raw values win.
type Targets struct {
	// ComponentsInWindow is the expected number of chemical components
	// per window.
	ComponentsInWindow float64

	// NComponents is the total number of fitted components.
	NComponents float64

	// ScanWidth is the scan window width in scans.
	ScanWidth float64

	// ComponentSigma is the expected component scale in scans.
	ComponentSigma float64

	// Error selects L1 or L2 distance penalties. Empty means L1.
	Error ErrorMetric
}

// DefaultTargets mirrors the historical tuning defaults: 8 components
// expected in a 150-scan window of 20 fitted components, sigma 3.
func DefaultTargets() Targets {
	return Targets{
		ComponentsInWindow: 8,
		NComponents:        20,
		ScanWidth:          150,
		ComponentSigma:     3,
		Error:              ErrorL1,
	}
}

// target returns the target value for a field, or ok=false when the
// field is scored by plain negation.
func (t Targets) target(field string) (float64, bool) {
	switch field {
	case FieldWeightOrthogonality, FieldSampleOrthogonality:
		return 0, true
	case FieldNonzeroComponentFraction:
		if t.NComponents <= 0 {
			return 0, false
		}
		return t.ComponentsInWindow / t.NComponents, true
	case FieldFractionWindowComponent:
		if t.ScanWidth <= 0 {
			return 0, false
		}
		return t.ComponentsInWindow * 4 * t.ComponentSigma / t.ScanWidth, true
	case FieldMeanWeightSparsity, FieldMeanSampleSparsity:
		return 1, true
	default:
		return 0, false
	}
}

// Score maps the raw value of a field to a comparable score where
// larger is better.
func (t Targets) Score(field string, value float64) float64 {
	target, ok := t.target(field)
	if !ok {
		return -value
	}
	d := value - target
	if t.Error == ErrorL2 {
		return -d * d
	}
	return -math.Abs(d)
}
