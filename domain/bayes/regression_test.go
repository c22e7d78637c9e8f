package bayes

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"baymv/domain/energy"
	"baymv/domain/linalg"
)

// heatingData builds y = 100 + 5*max(0, 40-t) over the given temperatures,
// optionally with seeded Gaussian noise.
func heatingData(temps []float64, noiseStd float64, seed int64) linalg.Vector {
	rng := rand.New(rand.NewSource(seed))
	y := make(linalg.Vector, len(temps))
	for i, t := range temps {
		y[i] = 100 + 5*energy.HingeBelow(40, t)
		if noiseStd > 0 {
			y[i] += noiseStd * rng.NormFloat64()
		}
	}
	return y
}

func tempGrid(lo, hi, step float64) []float64 {
	var temps []float64
	for t := lo; t <= hi; t += step {
		temps = append(temps, t)
	}
	return temps
}

func vaguePrior(p int) Prior {
	strengths := make(linalg.Vector, p)
	for i := range strengths {
		strengths[i] = 1e-4
	}
	return Prior{
		Mean:      make(linalg.Vector, p),
		Precision: linalg.Diagonal(strengths),
		Shape:     1.0,
		Scale:     1.0,
	}
}

func TestRegress_RecoversNoiselessCoefficients(t *testing.T) {
	temps := tempGrid(25, 65, 2)
	y := heatingData(temps, 0, 0)
	X := energy.DesignMatrix(temps, energy.ShapeHeating, 40, 0)

	post, err := Regress(X, y, vaguePrior(2))
	require.NoError(t, err)

	assert.InDelta(t, 100, post.Mean[0], 1e-2)
	assert.InDelta(t, 5, post.Mean[1], 1e-2)
	assert.Equal(t, 1.0+float64(len(temps))/2, post.Shape)
	// Noiseless data leaves essentially nothing in the residual sum, so the
	// posterior noise variance is dominated by the b0=1 prior mass.
	assert.Less(t, post.NoiseVariance(), 0.2)
	assert.False(t, math.IsNaN(post.LogML))
	assert.False(t, math.IsInf(post.LogML, 0))
}

func TestRegress_PosteriorContractsWithData(t *testing.T) {
	prior := vaguePrior(2)

	small := tempGrid(25, 65, 8)
	large := tempGrid(25, 65, 1)

	postSmall, err := Regress(energy.DesignMatrix(small, energy.ShapeHeating, 40, 0), heatingData(small, 3, 7), prior)
	require.NoError(t, err)
	postLarge, err := Regress(energy.DesignMatrix(large, energy.ShapeHeating, 40, 0), heatingData(large, 3, 7), prior)
	require.NoError(t, err)

	varSmall := postSmall.NoiseVariance() * postSmall.Covariance[0][0]
	varLarge := postLarge.NoiseVariance() * postLarge.Covariance[0][0]
	assert.Less(t, varLarge, varSmall, "more data should shrink the baseload marginal variance")
}

func TestRegress_VaguePriorMatchesOLS(t *testing.T) {
	temps := tempGrid(25, 65, 1.5)
	y := heatingData(temps, 2, 11)
	X := energy.DesignMatrix(temps, energy.ShapeHeating, 40, 0)

	post, err := Regress(X, y, vaguePrior(2))
	require.NoError(t, err)
	ols, err := OLS(X, y)
	require.NoError(t, err)

	for j := range post.Mean {
		rel := math.Abs(post.Mean[j]-ols.Coefficients[j]) / math.Abs(ols.Coefficients[j])
		assert.Less(t, rel, 1e-3, "coefficient %d", j)
	}
}

func TestOLS_Diagnostics(t *testing.T) {
	temps := tempGrid(25, 65, 2)
	y := heatingData(temps, 0, 0)
	X := energy.DesignMatrix(temps, energy.ShapeHeating, 40, 0)

	fit, err := OLS(X, y)
	require.NoError(t, err)

	assert.InDelta(t, 100, fit.Coefficients[0], 1e-8)
	assert.InDelta(t, 5, fit.Coefficients[1], 1e-8)
	assert.InDelta(t, 0, fit.RSS, 1e-6)
	assert.InDelta(t, 1, fit.RSquared, 1e-9)
	assert.InDelta(t, 0, fit.CVRMSE, 1e-6)
}

func TestOLS_SingularDesign(t *testing.T) {
	// Duplicate columns make the normal equations rank deficient.
	X := linalg.Matrix{{1, 1}, {2, 2}, {3, 3}}
	y := linalg.Vector{1, 2, 3}

	_, err := OLS(X, y)
	require.Error(t, err)
}

func TestRegress_DefaultPriorEndToEnd(t *testing.T) {
	temps := tempGrid(25, 65, 2)
	y := heatingData(temps, 1, 3)

	prior, err := DefaultPrior(temps, y, energy.ShapeHeating, DefaultPriorConfig())
	require.NoError(t, err)
	require.Len(t, prior.Mean, 2)

	post, err := Regress(energy.DesignMatrix(temps, energy.ShapeHeating, 40, 0), y, prior)
	require.NoError(t, err)
	assert.InDelta(t, 100, post.Mean[0], 2)
	assert.InDelta(t, 5, post.Mean[1], 0.5)
}
