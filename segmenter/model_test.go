package segmenter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformStandardizes(t *testing.T) {
	sc := ScalerParams{Mean: []float64{0}, Scale: []float64{2}}
	got, err := sc.Transform([]float64{4})
	require.NoError(t, err)
	assert.Equal(t, []float64{2.0}, got)

	for i := range FeatureCount {
		t.Run(FeatureNames[i], func(t *testing.T) {
			mean := make([]float64, FeatureCount)
			scale := []float64{1, 1, 1, 1, 1, 1, 1}
			values := make([]float64, FeatureCount)
			scale[i] = 2
			values[i] = 4
			got, err := ScalerParams{Mean: mean, Scale: scale}.Transform(values)
			require.NoError(t, err)
			assert.InDelta(t, 2.0, got[i], 1e-12)
		})
	}
}

func TestTransformSubtractsMean(t *testing.T) {
	sc := ScalerParams{Mean: []float64{10, -5}, Scale: []float64{5, 0.5}}
	got, err := sc.Transform([]float64{20, -4})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2, 2}, got, 1e-12)

	_, err = sc.Transform([]float64{1})
	assert.Error(t, err)
}

func TestDegenerateScaler(t *testing.T) {
	for i := range FeatureCount {
		t.Run(FeatureNames[i], func(t *testing.T) {
			scale := []float64{1, 1, 1, 1, 1, 1, 1}
			scale[i] = 0
			sc := ScalerParams{Mean: make([]float64, FeatureCount), Scale: scale}

			_, err := sc.Transform(DefaultFeatureVector().Values())
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDegenerateScaler))
			var dse *DegenerateScalerError
			require.ErrorAs(t, err, &dse)
			assert.Equal(t, i, dse.Index)
			assert.Equal(t, FeatureNames[i], dse.Feature)

			assert.ErrorIs(t, sc.Check(), ErrDegenerateScaler)
		})
	}
}

func TestAssignNearestCentroid(t *testing.T) {
	m := ClusterModel{Centroids: [][]float64{{0, 0}, {10, 10}, {-5, 5}}}
	tests := []struct {
		in   []float64
		want ClusterID
	}{
		{in: []float64{1, 1}, want: 0},
		{in: []float64{9, 8}, want: 1},
		{in: []float64{-4, 6}, want: 2},
	}
	for _, tt := range tests {
		got, err := m.Assign(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestAssignTieBreaksToLowestIndex(t *testing.T) {
	m := ClusterModel{Centroids: [][]float64{{1, 0}, {-1, 0}}}
	for range 10 {
		got, err := m.Assign([]float64{0, 0})
		require.NoError(t, err)
		assert.Equal(t, ClusterID(0), got)
	}

	// A farther centroid first, then three equidistant ones.
	m = ClusterModel{Centroids: [][]float64{{5, 5}, {0, 1}, {1, 0}, {0, -1}}}
	got, err := m.Assign([]float64{0, 0})
	require.NoError(t, err)
	assert.Equal(t, ClusterID(1), got)
}

func TestAssignDimensionMismatch(t *testing.T) {
	m := ClusterModel{Centroids: [][]float64{{0, 0}}}
	_, err := m.Assign([]float64{1, 2, 3})
	assert.Error(t, err)

	_, err = ClusterModel{}.Assign([]float64{1})
	assert.Error(t, err)
}

func TestClusterModelCheck(t *testing.T) {
	assert.NoError(t, ClusterModel{Centroids: [][]float64{{1, 2}, {3, 4}}}.Check())
	assert.Error(t, ClusterModel{}.Check())
	assert.Error(t, ClusterModel{Centroids: [][]float64{{}}}.Check())
	assert.Error(t, ClusterModel{Centroids: [][]float64{{1, 2}, {3}}}.Check())
}

func TestPredictRangeAndDeterminism(t *testing.T) {
	scaler, model := loadFixture(t)
	inputs := []FeatureVector{
		DefaultFeatureVector(),
		AssembleFeatures(18, 0, 0, 0, 0, 0, 0),
		AssembleFeatures(100, 200000, 10000, 100, 100, 100, 365),
		AssembleFeatures(60, 120000, 4000, 30, 2, 1, 200),
		AssembleFeatures(25, 15000, 20, 0, 1, 20, 10),
	}
	for _, fv := range inputs {
		first, err := Predict(fv, scaler, model)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, int(first), 0)
		assert.Less(t, int(first), model.Clusters())
		for range 5 {
			again, err := Predict(fv, scaler, model)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestPredictFixtureScenarios(t *testing.T) {
	scaler, model := loadFixture(t)
	tests := []struct {
		name string
		fv   FeatureVector
		want ClusterID
	}{
		{name: "form defaults", fv: AssembleFeatures(35, 50000, 1000, 10, 10, 5, 30), want: 3},
		{name: "high earner", fv: AssembleFeatures(55, 90000, 1600, 6, 10, 3, 49), want: 1},
		{name: "lapsed browser", fv: AssembleFeatures(47, 48000, 360, 3, 5, 6, 80), want: 2},
		{name: "low spender", fv: AssembleFeatures(29, 20000, 50, 1, 2, 7, 45), want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Predict(tt.fv, scaler, model)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func loadFixture(t *testing.T) (ScalerParams, ClusterModel) {
	t.Helper()
	scaler, err := LoadScaler("testdata/scaler.json")
	require.NoError(t, err)
	model, err := LoadModel("testdata/kmeans_model.json")
	require.NoError(t, err)
	return scaler, model
}
