package specfn

import "math"

const (
	// quantileBracketScales is the half-width of the bisection bracket in
	// scale units. Posterior marginals never place meaningful mass outside it.
	quantileBracketScales = 50.0
	// quantileIterations halves the bracket to ~4e-14 of its width, past
	// float64 resolution for the scales in play. Monotonicity of the CDF
	// makes plain bisection sufficient.
	quantileIterations = 80
)

// StudentT is a location-scale Student-t distribution. Nu and Scale must be
// positive.
type StudentT struct {
	Nu       float64 // degrees of freedom
	Location float64
	Scale    float64
}

// PDF returns the density at x.
func (d StudentT) PDF(x float64) float64 {
	z := (x - d.Location) / d.Scale
	logDensity := LogGamma((d.Nu+1)/2) - LogGamma(d.Nu/2) -
		0.5*math.Log(d.Nu*math.Pi) - math.Log(d.Scale) -
		(d.Nu+1)/2*math.Log(1+z*z/d.Nu)
	return math.Exp(logDensity)
}

// CDF returns P(X <= x) via the incomplete beta relation
// P(T <= t) = 1 - I_{nu/(nu+t^2)}(nu/2, 1/2) / 2 for t > 0.
func (d StudentT) CDF(x float64) float64 {
	z := (x - d.Location) / d.Scale
	if z == 0 {
		return 0.5
	}
	tail := RegularizedIncompleteBeta(d.Nu/2, 0.5, d.Nu/(d.Nu+z*z)) / 2
	if z > 0 {
		return 1 - tail
	}
	return tail
}

// Quantile returns the p-th quantile by bisection over a wide bracket around
// the location. p must lie in (0, 1).
func (d StudentT) Quantile(p float64) float64 {
	lo := d.Location - quantileBracketScales*d.Scale
	hi := d.Location + quantileBracketScales*d.Scale
	for i := 0; i < quantileIterations; i++ {
		mid := (lo + hi) / 2
		if d.CDF(mid) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}
