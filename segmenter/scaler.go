package segmenter

import "fmt"

// ScalerParams is a fitted standardization transform.
type ScalerParams struct {
	FeatureNames []string  `json:"feature_names,omitempty"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// Dims returns the number of features the scaler was fitted on.
func (s ScalerParams) Dims() int {
	return len(s.Mean)
}

// Check verifies shape and that no scale factor is zero.
func (s ScalerParams) Check() error {
	if len(s.Mean) != len(s.Scale) {
		return fmt.Errorf("scaler has %d means but %d scales", len(s.Mean), len(s.Scale))
	}
	if len(s.FeatureNames) > 0 && len(s.FeatureNames) != len(s.Mean) {
		return fmt.Errorf("scaler has %d feature names but %d means", len(s.FeatureNames), len(s.Mean))
	}
	for i, sc := range s.Scale {
		if sc == 0 {
			return &DegenerateScalerError{Feature: s.featureName(i), Index: i}
		}
	}
	return nil
}

// Transform standardizes values: (value - mean) / scale per field.
func (s ScalerParams) Transform(values []float64) ([]float64, error) {
	if len(values) != len(s.Mean) || len(values) != len(s.Scale) {
		return nil, fmt.Errorf("scaler expects %d values, got %d", len(s.Mean), len(values))
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if s.Scale[i] == 0 {
			return nil, &DegenerateScalerError{Feature: s.featureName(i), Index: i}
		}
		out[i] = (v - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

func (s ScalerParams) featureName(i int) string {
	if i < len(s.FeatureNames) {
		return s.FeatureNames[i]
	}
	if i < len(FeatureNames) {
		return FeatureNames[i]
	}
	return fmt.Sprintf("#%d", i)
}
