package segmenter

import (
	"errors"
	"fmt"
)

// ClusterID identifies a segment. Valid ids are 0..K-1.
type ClusterID int

// Assigner maps a standardized vector to a cluster id.
type Assigner interface {
	Assign(scaled []float64) (ClusterID, error)
	Clusters() int
	Close() error
}

// ClusterModel is a fitted k-means model reduced to its centroids.
type ClusterModel struct {
	Centroids [][]float64 `json:"cluster_centers"`
}

var _ Assigner = ClusterModel{}

// Clusters returns K.
func (m ClusterModel) Clusters() int {
	return len(m.Centroids)
}

// Dims returns the centroid dimensionality, or 0 for an empty model.
func (m ClusterModel) Dims() int {
	if len(m.Centroids) == 0 {
		return 0
	}
	return len(m.Centroids[0])
}

// Check verifies that the model has centroids of a single dimensionality.
func (m ClusterModel) Check() error {
	if len(m.Centroids) == 0 {
		return errors.New("model has no centroids")
	}
	dims := len(m.Centroids[0])
	if dims == 0 {
		return errors.New("centroid 0 is empty")
	}
	for k, c := range m.Centroids {
		if len(c) != dims {
			return fmt.Errorf("centroid %d has %d dimensions, centroid 0 has %d", k, len(c), dims)
		}
	}
	return nil
}

// Assign returns the index of the nearest centroid by squared Euclidean distance.
// Ties resolve to the lowest index.
func (m ClusterModel) Assign(scaled []float64) (ClusterID, error) {
	if len(m.Centroids) == 0 {
		return 0, errors.New("model has no centroids")
	}
	best := -1
	var bestDist float64
	for k, c := range m.Centroids {
		if len(c) != len(scaled) {
			return 0, fmt.Errorf("centroid %d has %d dimensions, input has %d", k, len(c), len(scaled))
		}
		d := squaredDistance(scaled, c)
		if best < 0 || d < bestDist {
			best = k
			bestDist = d
		}
	}
	return ClusterID(best), nil
}

// Close is a no-op; centroid models hold no resources.
func (ClusterModel) Close() error { return nil }

func squaredDistance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Predict standardizes fv with scaler and assigns it to the nearest centroid of model.
func Predict(fv FeatureVector, scaler ScalerParams, model ClusterModel) (ClusterID, error) {
	return predictWith(fv, scaler, model)
}

func predictWith(fv FeatureVector, scaler ScalerParams, assigner Assigner) (ClusterID, error) {
	scaled, err := scaler.Transform(fv.Values())
	if err != nil {
		return 0, err
	}
	id, err := assigner.Assign(scaled)
	if err != nil {
		return 0, fmt.Errorf("assign cluster: %w", err)
	}
	return id, nil
}
