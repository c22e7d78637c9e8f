// Package profiling computes data-quality summaries of ingested observation
// series before they reach the inference engine. A skewed or outlier-heavy
// energy series is a hint the change-point model may be the wrong tool.
package profiling

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"baymv/domain/energy"
)

// SeriesProfile summarizes the shape of one numeric series.
type SeriesProfile struct {
	Name         string  `json:"name"`
	N            int     `json:"n"`
	Mean         float64 `json:"mean"`
	StdDev       float64 `json:"std_dev"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Median       float64 `json:"median"`
	Q25          float64 `json:"q25"`
	Q75          float64 `json:"q75"`
	Skewness     float64 `json:"skewness"`
	Kurtosis     float64 `json:"kurtosis"`
	OutlierCount int     `json:"outlier_count"`
	IsNormal     bool    `json:"is_normal"`
	NormalityP   float64 `json:"normality_p"`
}

// DatasetProfile pairs the temperature and energy series summaries.
type DatasetProfile struct {
	Temperature SeriesProfile `json:"temperature"`
	Energy      SeriesProfile `json:"energy"`
}

// Analyzer computes series profiles.
type Analyzer struct{}

// NewAnalyzer creates a new analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// ProfileDataset profiles both series of an observation set.
func (a *Analyzer) ProfileDataset(observations []energy.Observation) (DatasetProfile, error) {
	temps, energies := energy.Split(observations)

	tempProfile, err := a.ProfileSeries(temps, "temperature")
	if err != nil {
		return DatasetProfile{}, err
	}
	energyProfile, err := a.ProfileSeries(energies, "energy")
	if err != nil {
		return DatasetProfile{}, err
	}

	return DatasetProfile{
		Temperature: tempProfile,
		Energy:      energyProfile,
	}, nil
}

// ProfileSeries computes the full summary for one series.
func (a *Analyzer) ProfileSeries(data []float64, name string) (SeriesProfile, error) {
	profile := SeriesProfile{Name: name, N: len(data)}

	mean, err := stats.Mean(data)
	if err != nil {
		return profile, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return profile, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return profile, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return profile, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return profile, err
	}
	q25, err := stats.Percentile(data, 25)
	if err != nil {
		return profile, err
	}
	q75, err := stats.Percentile(data, 75)
	if err != nil {
		return profile, err
	}

	profile.Mean = mean
	profile.StdDev = stdDev
	profile.Min = min
	profile.Max = max
	profile.Median = median
	profile.Q25 = q25
	profile.Q75 = q75
	profile.Skewness = sampleSkewness(data, mean, stdDev)
	profile.Kurtosis = sampleKurtosis(data, mean, stdDev)
	profile.OutlierCount = countOutliers(data, q25, q75)
	profile.IsNormal, profile.NormalityP = testNormality(data, profile.Skewness, profile.Kurtosis)

	return profile, nil
}

// sampleSkewness computes the adjusted Fisher-Pearson coefficient.
func sampleSkewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumCubed := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sumCubed += d * d * d
	}

	skewness := sumCubed / n
	correction := math.Sqrt(n*(n-1)) / (n - 2)
	return skewness * correction
}

// sampleKurtosis computes sample kurtosis (3 for a normal distribution).
func sampleKurtosis(data []float64, mean, stdDev float64) float64 {
	if len(data) < 4 || stdDev == 0 {
		return 0
	}

	n := float64(len(data))
	sumFourth := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sumFourth += d * d * d * d
	}

	kurtosis := sumFourth / n
	excess := kurtosis - 3
	if n > 3 {
		correction := (n - 1) / ((n - 2) * (n - 3))
		excess = excess*correction + 6/(n+1)
	}
	return excess + 3
}

// testNormality is a Jarque-Bera style check on skewness and kurtosis. It is
// a screen, not a formal test; borderline series still run through the
// engine.
func testNormality(data []float64, skewness, kurtosis float64) (isNormal bool, pValue float64) {
	if len(data) < 8 {
		return false, 1.0
	}

	n := float64(len(data))
	jb := n / 6 * (skewness*skewness + (kurtosis-3)*(kurtosis-3)/4)

	chiDist := distuv.ChiSquared{K: 2}
	pValue = 1 - chiDist.CDF(jb)

	isNormal = pValue > 0.05
	return isNormal, pValue
}

// countOutliers identifies outliers using the 1.5 IQR rule.
func countOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	count := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			count++
		}
	}
	return count
}
