package bayes

import (
	"errors"
	"math"

	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/domain/linalg"
)

const (
	// DefaultStep is the grid resolution of the change-point scan, in the
	// same units as the temperature series.
	DefaultStep = 0.5

	// scanMargin keeps candidates this far inside the observed temperature
	// range so every segment retains support.
	scanMargin = 3.0

	// minThresholdSeparation is the smallest allowed gap between the heating
	// and cooling change points of the 5P model.
	minThresholdSeparation = 6.0
)

// Candidate is one change-point location evaluated during the scan, with its
// log marginal likelihood, normalized posterior probability, and full
// conditional posterior. ChangePoint2 is zero for single-threshold shapes.
type Candidate struct {
	ChangePoint1 float64    `json:"change_point_1"`
	ChangePoint2 float64    `json:"change_point_2,omitempty"`
	LogML        float64    `json:"log_marginal_likelihood"`
	Probability  float64    `json:"probability"`
	Posterior    *Posterior `json:"-"`
}

// ScanChangePoints evaluates the exact marginal likelihood on a grid of
// candidate change points and normalizes it into a discrete posterior over
// locations via log-sum-exp. Grid points whose design matrix is singular
// (all observations on one side of the threshold) are skipped silently. A
// non-positive step falls back to DefaultStep.
//
// Returns core.ErrNoCandidates when the temperature range is too narrow to
// admit any grid point.
func ScanChangePoints(observations []energy.Observation, shape energy.ModelShape, prior Prior, step float64) ([]Candidate, error) {
	if !shape.Valid() {
		return nil, core.ErrUnknownShape
	}
	if step <= 0 {
		step = DefaultStep
	}

	temperatures, energies := energy.Split(observations)
	tMin, tMax := energy.TemperatureRange(observations)
	lo := tMin + scanMargin
	hi := tMax - scanMargin

	y := linalg.Vector(energies)
	var candidates []Candidate

	if shape == energy.ShapeHeatingCooling {
		for cp1 := lo; cp1 <= hi; cp1 += step {
			for cp2 := cp1 + minThresholdSeparation; cp2 <= hi; cp2 += step {
				X := energy.DesignMatrix(temperatures, shape, cp1, cp2)
				post, err := Regress(X, y, prior)
				if err != nil {
					if errors.Is(err, core.ErrSingularSystem) {
						continue
					}
					return nil, err
				}
				candidates = append(candidates, Candidate{
					ChangePoint1: cp1,
					ChangePoint2: cp2,
					LogML:        post.LogML,
					Posterior:    post,
				})
			}
		}
	} else {
		for cp := lo; cp <= hi; cp += step {
			X := energy.DesignMatrix(temperatures, shape, cp, 0)
			post, err := Regress(X, y, prior)
			if err != nil {
				if errors.Is(err, core.ErrSingularSystem) {
					continue
				}
				return nil, err
			}
			candidates = append(candidates, Candidate{
				ChangePoint1: cp,
				LogML:        post.LogML,
				Posterior:    post,
			})
		}
	}

	if len(candidates) == 0 {
		return nil, core.ErrNoCandidates
	}

	normalize(candidates)
	return candidates, nil
}

// normalize converts log marginal likelihoods into probabilities summing to
// one, subtracting the maximum first so the exponentials stay in range.
func normalize(candidates []Candidate) {
	maxLog := candidates[0].LogML
	for _, c := range candidates[1:] {
		if c.LogML > maxLog {
			maxLog = c.LogML
		}
	}

	total := 0.0
	for i := range candidates {
		candidates[i].Probability = math.Exp(candidates[i].LogML - maxLog)
		total += candidates[i].Probability
	}
	for i := range candidates {
		candidates[i].Probability /= total
	}
}

// MAP returns the maximum a posteriori candidate. Ties break toward the
// earliest grid point in scan order, which keeps the result deterministic.
func MAP(candidates []Candidate) Candidate {
	if len(candidates) == 0 {
		panic("bayes: MAP called with no candidates")
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.LogML > best.LogML {
			best = c
		}
	}
	return best
}
