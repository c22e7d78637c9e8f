// Package specfn implements the special functions behind the Student-t family
// used by the posterior summaries: log-gamma, the regularized incomplete beta
// function, and the standard density closed forms.
//
// Domain preconditions (positive scale, positive degrees of freedom, positive
// shape/rate) are caller contracts and are not re-validated per call.
package specfn

import "math"

// Lanczos coefficients for g=7, n=9.
var lanczosCoefficients = [9]float64{
	0.99999999999980993,
	676.5203681218851,
	-1259.1392167224028,
	771.32342877765313,
	-176.61502916214059,
	12.507343278686905,
	-0.13857109526572012,
	9.9843695780195716e-6,
	1.5056327351493116e-7,
}

const halfLogTwoPi = 0.91893853320467274178 // log(2*pi)/2

// LogGamma computes log|Gamma(z)| with the Lanczos approximation. Arguments
// below 0.5 go through the reflection formula, which recurses at most once.
func LogGamma(z float64) float64 {
	if z < 0.5 {
		// Gamma(z) * Gamma(1-z) = pi / sin(pi*z)
		return math.Log(math.Pi/math.Sin(math.Pi*z)) - LogGamma(1-z)
	}

	z -= 1
	sum := lanczosCoefficients[0]
	for i := 1; i < len(lanczosCoefficients); i++ {
		sum += lanczosCoefficients[i] / (z + float64(i))
	}
	t := z + 7.5
	return halfLogTwoPi + (z+0.5)*math.Log(t) - t + math.Log(sum)
}
