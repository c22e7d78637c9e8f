package bayes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baymv/domain/energy"
)

func fittedPosterior(t *testing.T) *Posterior {
	t.Helper()
	temps := tempGrid(25, 65, 1)
	y := heatingData(temps, 2, 5)
	post, err := Regress(energy.DesignMatrix(temps, energy.ShapeHeating, 40, 0), y, vaguePrior(2))
	require.NoError(t, err)
	return post
}

func TestParameterPosterior_Summary(t *testing.T) {
	post := fittedPosterior(t)

	summary := ParameterPosterior(post, 0, "baseload")

	assert.Equal(t, "baseload", summary.Name)
	assert.Equal(t, post.Mean[0], summary.Mean)
	require.Len(t, summary.Curve, curvePoints)
	require.Len(t, summary.Intervals, 3)

	// Intervals are nested around the mean and widen with level.
	for i, interval := range summary.Intervals {
		assert.Less(t, interval.Lower, summary.Mean)
		assert.Greater(t, interval.Upper, summary.Mean)
		if i > 0 {
			prev := summary.Intervals[i-1]
			assert.Less(t, interval.Lower, prev.Lower)
			assert.Greater(t, interval.Upper, prev.Upper)
		}
	}

	// The density curve peaks at the location for a symmetric marginal.
	peak := summary.Curve[0]
	for _, pt := range summary.Curve {
		if pt.Density > peak.Density {
			peak = pt
		}
	}
	assert.InDelta(t, summary.Mean, peak.Value, (summary.Curve[1].Value-summary.Curve[0].Value)*1.5)
}

func TestParameterPosterior_PanicsOutOfRange(t *testing.T) {
	post := fittedPosterior(t)
	assert.Panics(t, func() { ParameterPosterior(post, 2, "nope") })
	assert.Panics(t, func() { ParameterPosterior(post, -1, "nope") })
}

func TestParameterPrior_WiderThanPosterior(t *testing.T) {
	post := fittedPosterior(t)
	prior := vaguePrior(2)

	priorSummary := ParameterPrior(prior, 0, "baseload")
	postSummary := ParameterPosterior(post, 0, "baseload")

	priorWidth := priorSummary.Intervals[2].Upper - priorSummary.Intervals[2].Lower
	postWidth := postSummary.Intervals[2].Upper - postSummary.Intervals[2].Lower
	assert.Greater(t, priorWidth, postWidth, "a vague prior must be wider than the data posterior")
}

func TestPredictiveFan_Shape(t *testing.T) {
	post := fittedPosterior(t)

	fan := PredictiveFan(post, energy.ShapeHeating, 40, 0, 25, 65)
	require.Len(t, fan, fanPoints)

	assert.InDelta(t, 25-fanMargin, fan[0].Temperature, 1e-9)
	assert.InDelta(t, 65+fanMargin, fan[len(fan)-1].Temperature, 1e-9)

	for _, pt := range fan {
		want := energy.Predict(post.Mean, energy.ShapeHeating, 40, 0, pt.Temperature)
		assert.InDelta(t, want, pt.Mean, 1e-9)
		require.Len(t, pt.Intervals, 3)
		for _, interval := range pt.Intervals {
			assert.Less(t, interval.Lower, pt.Mean)
			assert.Greater(t, interval.Upper, pt.Mean)
		}
	}
}

func TestPredictiveFan_WiderAtExtrapolation(t *testing.T) {
	post := fittedPosterior(t)
	fan := PredictiveFan(post, energy.ShapeHeating, 40, 0, 25, 65)

	width := func(pt PredictivePoint) float64 {
		return pt.Intervals[2].Upper - pt.Intervals[2].Lower
	}
	center := fan[len(fan)/2]
	edge := fan[0]
	assert.Greater(t, width(edge), width(center),
		"predictive bands widen away from the bulk of the data")
}
