package profiling

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baymv/domain/energy"
)

func TestProfileSeries_SummaryStatistics(t *testing.T) {
	analyzer := NewAnalyzer()
	data := []float64{10, 20, 30, 40, 50}

	profile, err := analyzer.ProfileSeries(data, "energy")
	require.NoError(t, err)

	assert.Equal(t, "energy", profile.Name)
	assert.Equal(t, 5, profile.N)
	assert.InDelta(t, 30, profile.Mean, 1e-9)
	assert.InDelta(t, 10, profile.Min, 1e-9)
	assert.InDelta(t, 50, profile.Max, 1e-9)
	assert.InDelta(t, 30, profile.Median, 1e-9)
	assert.Equal(t, 0, profile.OutlierCount)
}

func TestProfileSeries_NormalData(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	data := make([]float64, 500)
	for i := range data {
		data[i] = 100 + 15*rng.NormFloat64()
	}

	profile, err := NewAnalyzer().ProfileSeries(data, "energy")
	require.NoError(t, err)

	assert.True(t, profile.IsNormal, "seeded normal data should pass the screen (p=%g)", profile.NormalityP)
	assert.InDelta(t, 0, profile.Skewness, 0.3)
	assert.InDelta(t, 3, profile.Kurtosis, 0.6)
}

func TestProfileSeries_SkewedData(t *testing.T) {
	rng := rand.New(rand.NewSource(22))
	data := make([]float64, 500)
	for i := range data {
		v := rng.NormFloat64()
		data[i] = v * v * v * v // heavily right-skewed
	}

	profile, err := NewAnalyzer().ProfileSeries(data, "energy")
	require.NoError(t, err)

	assert.False(t, profile.IsNormal)
	assert.Greater(t, profile.Skewness, 1.0)
}

func TestProfileSeries_DetectsOutliers(t *testing.T) {
	data := []float64{10, 11, 12, 10, 11, 12, 10, 11, 500}

	profile, err := NewAnalyzer().ProfileSeries(data, "energy")
	require.NoError(t, err)
	assert.Equal(t, 1, profile.OutlierCount)
}

func TestProfileDataset(t *testing.T) {
	obs := []energy.Observation{
		{Temperature: 30, Energy: 150},
		{Temperature: 40, Energy: 125},
		{Temperature: 50, Energy: 100},
		{Temperature: 60, Energy: 100},
		{Temperature: 70, Energy: 101},
	}

	profile, err := NewAnalyzer().ProfileDataset(obs)
	require.NoError(t, err)

	assert.Equal(t, "temperature", profile.Temperature.Name)
	assert.Equal(t, "energy", profile.Energy.Name)
	assert.InDelta(t, 50, profile.Temperature.Mean, 1e-9)
	assert.Equal(t, 5, profile.Energy.N)
}

func TestProfileSeries_EmptySeries(t *testing.T) {
	_, err := NewAnalyzer().ProfileSeries(nil, "empty")
	assert.Error(t, err)
}
