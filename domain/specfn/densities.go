package specfn

import "math"

// NormalPDF returns the normal density with the given mean and standard
// deviation at x.
func NormalPDF(x, mean, stdDev float64) float64 {
	z := (x - mean) / stdDev
	return math.Exp(-z*z/2) / (stdDev * math.Sqrt(2*math.Pi))
}

// InverseGammaPDF returns the inverse-gamma density with the given shape and
// scale at x. The density is zero for x <= 0.
func InverseGammaPDF(x, shape, scale float64) float64 {
	if x <= 0 {
		return 0
	}
	logDensity := shape*math.Log(scale) - LogGamma(shape) -
		(shape+1)*math.Log(x) - scale/x
	return math.Exp(logDensity)
}
