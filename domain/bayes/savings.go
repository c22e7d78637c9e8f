package bayes

import (
	"math"
	"math/rand"
	"sort"

	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/domain/linalg"
)

const (
	// DefaultSampleCount is the Monte Carlo draw count when the caller does
	// not specify one.
	DefaultSampleCount = 5000

	// histogramBins is the fixed bin count of the savings histogram.
	histogramBins = 50
)

// savingsLevels are the credible interval levels reported on savings.
var savingsLevels = []float64{0.80, 0.95}

// HistogramBin is one bar of the savings histogram.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// SavingsDistribution is the Monte Carlo posterior over total avoided energy
// across a reporting period. Samples are sorted ascending; intervals are
// read off sample indices, not a parametric fit.
type SavingsDistribution struct {
	Samples   []float64      `json:"-"`
	Mean      float64        `json:"mean"`
	Median    float64        `json:"median"`
	Intervals []Interval     `json:"intervals"`
	Histogram []HistogramBin `json:"histogram"`
}

// SavingsPosterior propagates the full parameter posterior through the
// reporting period. Each draw samples a noise variance from the marginal
// Inverse-Gamma, then coefficients from the conditional multivariate normal
// via the Cholesky factor of the posterior covariance, and accumulates
// predicted-minus-actual energy over every reporting observation. The result
// is the exact posterior over total savings up to Monte Carlo error.
//
// The caller owns the random source; reusing a seeded *rand.Rand reproduces
// the draw sequence exactly. A non-positive sampleCount falls back to
// DefaultSampleCount.
func SavingsPosterior(post *Posterior, shape energy.ModelShape, cp1, cp2 float64, reporting []energy.Observation, sampleCount int, rng *rand.Rand) (*SavingsDistribution, error) {
	if len(reporting) == 0 {
		return nil, core.ErrInsufficientData
	}
	if sampleCount <= 0 {
		sampleCount = DefaultSampleCount
	}

	p := len(post.Mean)
	chol := post.Covariance.Cholesky()

	// Design rows are fixed across draws; build them once.
	rows := make([]linalg.Vector, len(reporting))
	for i, obs := range reporting {
		rows[i] = energy.DesignRow(obs.Temperature, shape, cp1, cp2)
	}

	samples := make([]float64, sampleCount)
	z := make(linalg.Vector, p)
	beta := make(linalg.Vector, p)
	for s := range samples {
		// sigma^2 ~ InvGamma(aN, bN) via the reciprocal of a Gamma draw.
		variance := post.Scale / gammaSample(rng, post.Shape)
		sigma := math.Sqrt(variance)

		for j := range z {
			z[j] = normalSample(rng)
		}
		// beta = muN + sigma * L z
		for j := 0; j < p; j++ {
			sum := 0.0
			for k := 0; k <= j; k++ {
				sum += chol[j][k] * z[k]
			}
			beta[j] = post.Mean[j] + sigma*sum
		}

		total := 0.0
		for i, obs := range reporting {
			total += linalg.Dot(rows[i], beta) - obs.Energy
		}
		samples[s] = total
	}

	sort.Float64s(samples)
	return summarizeSavings(samples), nil
}

func summarizeSavings(sorted []float64) *SavingsDistribution {
	n := len(sorted)

	mean := 0.0
	for _, v := range sorted {
		mean += v
	}
	mean /= float64(n)

	intervals := make([]Interval, len(savingsLevels))
	for i, level := range savingsLevels {
		tail := (1 - level) / 2
		intervals[i] = Interval{
			Level: level,
			Lower: sorted[quantileIndex(n, tail)],
			Upper: sorted[quantileIndex(n, 1-tail)],
		}
	}

	return &SavingsDistribution{
		Samples:   sorted,
		Mean:      mean,
		Median:    sorted[quantileIndex(n, 0.5)],
		Intervals: intervals,
		Histogram: buildHistogram(sorted),
	}
}

func quantileIndex(n int, q float64) int {
	idx := int(q * float64(n))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

func buildHistogram(sorted []float64) []HistogramBin {
	lo, hi := sorted[0], sorted[len(sorted)-1]
	width := (hi - lo) / histogramBins
	if width <= 0 {
		// Degenerate distribution: one bin holding everything.
		return []HistogramBin{{Lower: lo, Upper: hi, Count: len(sorted)}}
	}

	bins := make([]HistogramBin, histogramBins)
	for i := range bins {
		bins[i].Lower = lo + float64(i)*width
		bins[i].Upper = lo + float64(i+1)*width
	}
	for _, v := range sorted {
		i := int((v - lo) / width)
		if i >= histogramBins {
			i = histogramBins - 1
		}
		bins[i].Count++
	}
	return bins
}

// normalSample draws a standard normal via Box-Muller.
func normalSample(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// gammaSample draws from Gamma(shape, 1) using the Marsaglia-Tsang squeeze
// method. Shapes below one are boosted through the Gamma(shape+1) identity.
func gammaSample(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		// Gamma(a) = Gamma(a+1) * U^(1/a)
		u := rng.Float64()
		for u == 0 {
			u = rng.Float64()
		}
		return gammaSample(rng, shape+1) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1 / math.Sqrt(9*d)
	for {
		x := normalSample(rng)
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if u > 0 && math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
