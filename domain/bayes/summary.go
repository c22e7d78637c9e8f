package bayes

import (
	"fmt"
	"math"

	"baymv/domain/energy"
	"baymv/domain/linalg"
	"baymv/domain/specfn"
)

const (
	// curvePoints is the resolution of a marginal density curve.
	curvePoints = 200
	// curveHalfWidth spans the curve this many posterior scales either side
	// of the location.
	curveHalfWidth = 4.0

	// fanPoints is the temperature resolution of a predictive fan.
	fanPoints = 100
	// fanMargin extends the fan slightly beyond the observed range.
	fanMargin = 3.0
)

// credibleLevels are the nested interval levels reported for marginals.
var credibleLevels = []float64{0.50, 0.80, 0.95}

// CurvePoint is one sample of a density curve.
type CurvePoint struct {
	Value   float64 `json:"value"`
	Density float64 `json:"density"`
}

// Interval is a central credible interval at the given level.
type Interval struct {
	Level float64 `json:"level"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// MarginalSummary describes one coefficient's marginal posterior: its
// Student-t density curve, mean, and central credible intervals.
type MarginalSummary struct {
	Name      string       `json:"name"`
	Curve     []CurvePoint `json:"curve"`
	Mean      float64      `json:"mean"`
	Intervals []Interval   `json:"intervals"`
}

// ParameterPosterior summarizes the marginal posterior of coefficient j.
// Under the NIG posterior each coefficient is Student-t with nu = 2 aN
// degrees of freedom, location muN[j], and scale sqrt(bN/aN * Cov[j][j]).
//
// Panics if j is outside the coefficient range; callers index by the shape's
// ParamCount, so an out-of-range j is a programming error.
func ParameterPosterior(post *Posterior, j int, name string) MarginalSummary {
	if j < 0 || j >= len(post.Mean) {
		panic(fmt.Sprintf("bayes: coefficient index %d out of range [0,%d)", j, len(post.Mean)))
	}

	dist := specfn.StudentT{
		Nu:       2 * post.Shape,
		Location: post.Mean[j],
		Scale:    math.Sqrt(post.NoiseVariance() * post.Covariance[j][j]),
	}
	return summarize(dist, name)
}

// ParameterPrior summarizes the marginal prior of coefficient j, for plotting
// prior-versus-posterior overlays. The prior marginal is Student-t with
// nu = 2 a0 and scale sqrt(b0/a0 * Lambda0^-1[j][j]).
//
// Panics on an out-of-range index or a singular prior precision; both are
// programming errors, since priors are constructed diagonal positive.
func ParameterPrior(prior Prior, j int, name string) MarginalSummary {
	if j < 0 || j >= len(prior.Mean) {
		panic(fmt.Sprintf("bayes: coefficient index %d out of range [0,%d)", j, len(prior.Mean)))
	}
	cov, err := prior.Precision.Inverse()
	if err != nil {
		panic("bayes: prior precision is singular")
	}

	dist := specfn.StudentT{
		Nu:       2 * prior.Shape,
		Location: prior.Mean[j],
		Scale:    math.Sqrt(prior.Scale / prior.Shape * cov[j][j]),
	}
	return summarize(dist, name)
}

func summarize(dist specfn.StudentT, name string) MarginalSummary {
	lo := dist.Location - curveHalfWidth*dist.Scale
	hi := dist.Location + curveHalfWidth*dist.Scale
	step := (hi - lo) / float64(curvePoints-1)

	curve := make([]CurvePoint, curvePoints)
	for i := range curve {
		v := lo + float64(i)*step
		curve[i] = CurvePoint{Value: v, Density: dist.PDF(v)}
	}

	intervals := make([]Interval, len(credibleLevels))
	for i, level := range credibleLevels {
		tail := (1 - level) / 2
		intervals[i] = Interval{
			Level: level,
			Lower: dist.Quantile(tail),
			Upper: dist.Quantile(1 - tail),
		}
	}

	return MarginalSummary{
		Name:      name,
		Curve:     curve,
		Mean:      dist.Location,
		Intervals: intervals,
	}
}

// PredictivePoint is the posterior predictive at one temperature: the mean
// response and central credible bands.
type PredictivePoint struct {
	Temperature float64    `json:"temperature"`
	Mean        float64    `json:"mean"`
	Intervals   []Interval `json:"intervals"`
}

// PredictiveFan evaluates the posterior predictive distribution on a
// temperature grid spanning the observed range plus a small margin. At each
// temperature the predictive is Student-t with nu = 2 aN, location x' muN,
// and scale sqrt(bN/aN * (1 + x' LambdaN^-1 x)), which includes both
// coefficient uncertainty and observation noise.
func PredictiveFan(post *Posterior, shape energy.ModelShape, cp1, cp2, tMin, tMax float64) []PredictivePoint {
	lo := tMin - fanMargin
	hi := tMax + fanMargin
	step := (hi - lo) / float64(fanPoints-1)
	noiseVar := post.NoiseVariance()

	fan := make([]PredictivePoint, fanPoints)
	for i := range fan {
		t := lo + float64(i)*step
		x := energy.DesignRow(t, shape, cp1, cp2)

		dist := specfn.StudentT{
			Nu:       2 * post.Shape,
			Location: linalg.Dot(x, post.Mean),
			Scale:    math.Sqrt(noiseVar * (1 + linalg.QuadraticForm(post.Covariance, x))),
		}

		intervals := make([]Interval, len(credibleLevels))
		for k, level := range credibleLevels {
			tail := (1 - level) / 2
			intervals[k] = Interval{
				Level: level,
				Lower: dist.Quantile(tail),
				Upper: dist.Quantile(1 - tail),
			}
		}
		fan[i] = PredictivePoint{
			Temperature: t,
			Mean:        dist.Location,
			Intervals:   intervals,
		}
	}
	return fan
}
