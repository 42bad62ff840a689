package objective

import "fmt"

// Canonical objective field names, as used in configuration
// (objective_params) and in persisted trial records.
const (
	FieldTestReconstructionError  = "test_reconstruction_errors"
	FieldTrainReconstructionError = "train_reconstruction_errors"
	FieldNegLogRatio              = "neglog_ratio_train_test_reconstruction_error"
	FieldSampleOrthogonality      = "sample_orthogonality"
	FieldWeightOrthogonality      = "weight_orthogonality"
	FieldFractionWindowComponent  = "fraction_window_component"
	FieldNonzeroComponentFraction = "nonzero_component_fraction"
	FieldMeanWeightSparsity       = "mean_weight_sparsity"
	FieldMeanSampleSparsity       = "mean_sample_sparsity"
)

// Fields lists all objective field names in canonical order.
func Fields() []string {
	return []string{
		FieldTestReconstructionError,
		FieldTrainReconstructionError,
		FieldNegLogRatio,
		FieldSampleOrthogonality,
		FieldWeightOrthogonality,
		FieldFractionWindowComponent,
		FieldNonzeroComponentFraction,
		FieldMeanWeightSparsity,
		FieldMeanSampleSparsity,
	}
}

// Vector is the multi-objective score of one fit (or the fold-mean of
// one trial). All values are raw metrics; direction and targets are
// applied by Targets when ranking.
type Vector struct {
	// TestReconstructionError is the mean squared reconstruction error
	// over held-out entries.
	TestReconstructionError float64 `json:"test_reconstruction_errors"`

	// TrainReconstructionError is the mean squared reconstruction error
	// over training entries.
	TrainReconstructionError float64 `json:"train_reconstruction_errors"`

	// NegLogRatio is -log2(train/test error); large positive values
	// indicate overfitting.
	NegLogRatio float64 `json:"neglog_ratio_train_test_reconstruction_error"`

	// SampleOrthogonality is the Gram deviation of the scan profiles
	// (rows of H): off-diagonal mass over diagonal mass, 0 = orthogonal.
	SampleOrthogonality float64 `json:"sample_orthogonality"`

	// WeightOrthogonality is the same measure on the bin profiles
	// (columns of W).
	WeightOrthogonality float64 `json:"weight_orthogonality"`

	// FractionWindowComponent is the fraction of active components
	// whose scan support is concentrated within the window.
	FractionWindowComponent float64 `json:"fraction_window_component"`

	// NonzeroComponentFraction is the fraction of components carrying
	// any signal at all.
	NonzeroComponentFraction float64 `json:"nonzero_component_fraction"`

	// MeanWeightSparsity and MeanSampleSparsity are the mean fraction
	// of near-zero entries per component in W and H.
	MeanWeightSparsity float64 `json:"mean_weight_sparsity"`
	MeanSampleSparsity float64 `json:"mean_sample_sparsity"`
}

// Field returns the named objective value.
func (v Vector) Field(name string) (float64, error) {
	switch name {
	case FieldTestReconstructionError:
		return v.TestReconstructionError, nil
	case FieldTrainReconstructionError:
		return v.TrainReconstructionError, nil
	case FieldNegLogRatio:
		return v.NegLogRatio, nil
	case FieldSampleOrthogonality:
		return v.SampleOrthogonality, nil
	case FieldWeightOrthogonality:
		return v.WeightOrthogonality, nil
	case FieldFractionWindowComponent:
		return v.FractionWindowComponent, nil
	case FieldNonzeroComponentFraction:
		return v.NonzeroComponentFraction, nil
	case FieldMeanWeightSparsity:
		return v.MeanWeightSparsity, nil
	case FieldMeanSampleSparsity:
		return v.MeanSampleSparsity, nil
	default:
		return 0, fmt.Errorf("objective: unknown field %q", name)
	}
}

// Mean aggregates fold vectors by arithmetic mean. An empty input
// yields the zero vector.
func Mean(vs []Vector) Vector {
	if len(vs) == 0 {
		return Vector{}
	}
	var m Vector
	for _, v := range vs {
		m.TestReconstructionError += v.TestReconstructionError
		m.TrainReconstructionError += v.TrainReconstructionError
		m.NegLogRatio += v.NegLogRatio
		m.SampleOrthogonality += v.SampleOrthogonality
		m.WeightOrthogonality += v.WeightOrthogonality
		m.FractionWindowComponent += v.FractionWindowComponent
		m.NonzeroComponentFraction += v.NonzeroComponentFraction
		m.MeanWeightSparsity += v.MeanWeightSparsity
		m.MeanSampleSparsity += v.MeanSampleSparsity
	}
	n := float64(len(vs))
	m.TestReconstructionError /= n
	m.TrainReconstructionError /= n
	m.NegLogRatio /= n
	m.SampleOrthogonality /= n
	m.WeightOrthogonality /= n
	m.FractionWindowComponent /= n
	m.NonzeroComponentFraction /= n
	m.MeanWeightSparsity /= n
	m.MeanSampleSparsity /= n
	return m
}
