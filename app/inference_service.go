// Package app wires the inference engine to repositories, random streams,
// and the API surface. The engine itself stays pure; everything stateful
// lives here.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"baymv/domain/bayes"
	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/domain/run"
	"baymv/internal"
	"baymv/ports"
)

// InferenceService runs change-point sweeps and savings estimates against
// stored datasets.
type InferenceService struct {
	datasets ports.DatasetRepository
	runs     ports.RunRepository
	rng      ports.RNGPort
	logger   *internal.Logger

	// shapeSem bounds how many model shapes evaluate concurrently. Each
	// shape's scan is single-threaded; parallelism exists only across shapes.
	shapeSem *semaphore.Weighted
}

// NewInferenceService creates an inference service with the given shape
// concurrency bound.
func NewInferenceService(datasets ports.DatasetRepository, runs ports.RunRepository, rng ports.RNGPort, logger *internal.Logger, concurrency int) *InferenceService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &InferenceService{
		datasets: datasets,
		runs:     runs,
		rng:      rng,
		logger:   logger,
		shapeSem: semaphore.NewWeighted(int64(concurrency)),
	}
}

// SweepRequest defines the inputs for a model sweep across shapes.
type SweepRequest struct {
	DatasetID core.DatasetID
	Shapes    []energy.ModelShape // defaults to all shapes
	Step      float64             // defaults to bayes.DefaultStep
	Seed      int64
	Prior     *bayes.PriorConfig // defaults to bayes.DefaultPriorConfig
}

// ShapeResult is the outcome of one shape's change-point scan.
type ShapeResult struct {
	Shape      energy.ModelShape      `json:"shape"`
	RunID      core.RunID             `json:"run_id"`
	Candidates []bayes.Candidate      `json:"candidates"`
	MAP        bayes.Candidate        `json:"map"`
	OLS        *bayes.OLSFit          `json:"ols,omitempty"`
	Marginals  []bayes.MarginalSummary `json:"marginals"`
	Err        string                 `json:"error,omitempty"`
}

// SweepResult contains all shape results for one dataset sweep, ordered by
// descending MAP log marginal likelihood so the best model comes first.
type SweepResult struct {
	DatasetID core.DatasetID `json:"dataset_id"`
	Results   []ShapeResult  `json:"results"`
	RuntimeMs int64          `json:"runtime_ms"`
}

// RunSweep scans every requested shape, persists a run manifest per shape,
// and returns the results best-first. A shape whose scan fails (too little
// data, no candidates) is reported in its result rather than failing the
// sweep.
func (s *InferenceService) RunSweep(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	startTime := time.Now()

	ds, err := s.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}

	shapes := req.Shapes
	if len(shapes) == 0 {
		shapes = energy.AllShapes()
	}
	step := req.Step
	if step <= 0 {
		step = bayes.DefaultStep
	}
	priorCfg := bayes.DefaultPriorConfig()
	if req.Prior != nil {
		priorCfg = *req.Prior
	}

	s.logger.Info("Starting sweep: dataset=%s shapes=%d observations=%d step=%.2f",
		ds.ID, len(shapes), len(ds.Observations), step)

	results := make([]ShapeResult, len(shapes))
	var wg sync.WaitGroup
	for i, shape := range shapes {
		if err := s.shapeSem.Acquire(ctx, 1); err != nil {
			return nil, fmt.Errorf("acquire shape slot: %w", err)
		}
		wg.Add(1)
		go func(i int, shape energy.ModelShape) {
			defer wg.Done()
			defer s.shapeSem.Release(1)
			results[i] = s.evaluateShape(ctx, ds, shape, step, req.Seed, priorCfg)
		}(i, shape)
	}
	wg.Wait()

	ordered := orderByEvidence(results)
	result := &SweepResult{
		DatasetID: ds.ID,
		Results:   ordered,
		RuntimeMs: time.Since(startTime).Milliseconds(),
	}

	s.logger.Info("Sweep complete: dataset=%s runtime=%dms", ds.ID, result.RuntimeMs)
	return result, nil
}

// evaluateShape scans one shape and persists its run manifest.
func (s *InferenceService) evaluateShape(ctx context.Context, ds *energy.Dataset, shape energy.ModelShape, step float64, seed int64, priorCfg bayes.PriorConfig) ShapeResult {
	shapeStart := time.Now()
	result := ShapeResult{Shape: shape}

	temps, energies := energy.Split(ds.Observations)
	prior, err := bayes.DefaultPrior(temps, energies, shape, priorCfg)
	if err != nil {
		result.Err = err.Error()
		return result
	}

	candidates, err := bayes.ScanChangePoints(ds.Observations, shape, prior, step)
	if err != nil {
		s.logger.Warn("Scan failed: dataset=%s shape=%s: %v", ds.ID, shape, err)
		result.Err = err.Error()
		return result
	}

	best := bayes.MAP(candidates)
	result.Candidates = candidates
	result.MAP = best

	// OLS at the MAP change point, for side-by-side reporting only.
	X := energy.DesignMatrix(temps, shape, best.ChangePoint1, best.ChangePoint2)
	if ols, err := bayes.OLS(X, energies); err == nil {
		result.OLS = ols
	}

	names := shape.ParamNames()
	result.Marginals = make([]bayes.MarginalSummary, len(names))
	for j, name := range names {
		result.Marginals[j] = bayes.ParameterPosterior(best.Posterior, j, name)
	}

	manifest := run.NewManifest(ds.ID, shape, step, seed)
	manifest.CandidateCount = len(candidates)
	manifest.ChangePoint1 = best.ChangePoint1
	manifest.ChangePoint2 = best.ChangePoint2
	manifest.LogML = best.LogML
	manifest.RuntimeMs = time.Since(shapeStart).Milliseconds()
	if err := s.runs.Create(ctx, manifest); err != nil {
		s.logger.Error("Failed to persist run manifest: %v", err)
		result.Err = err.Error()
		return result
	}
	result.RunID = manifest.RunID

	s.logger.Debug("Shape %s: %d candidates, MAP cp=(%.1f, %.1f) logML=%.2f in %dms",
		shape, len(candidates), best.ChangePoint1, best.ChangePoint2, best.LogML, manifest.RuntimeMs)
	return result
}

// orderByEvidence sorts successful results best-first and pushes failures to
// the end, preserving shape order within each group.
func orderByEvidence(results []ShapeResult) []ShapeResult {
	ordered := make([]ShapeResult, 0, len(results))
	for _, r := range results {
		if r.Err == "" {
			ordered = append(ordered, r)
		}
	}
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].MAP.LogML > ordered[j-1].MAP.LogML; j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	for _, r := range results {
		if r.Err != "" {
			ordered = append(ordered, r)
		}
	}
	return ordered
}

// FitRequest asks for the full posterior of one shape at a fixed change
// point, with the predictive fan.
type FitRequest struct {
	DatasetID    core.DatasetID
	Shape        energy.ModelShape
	ChangePoint1 float64
	ChangePoint2 float64
	Prior        *bayes.PriorConfig
}

// FitResult is the posterior detail for one fixed-threshold fit.
type FitResult struct {
	Shape     energy.ModelShape       `json:"shape"`
	Posterior *bayes.Posterior        `json:"posterior"`
	OLS       *bayes.OLSFit           `json:"ols,omitempty"`
	Marginals []bayes.MarginalSummary `json:"marginals"`
	Priors    []bayes.MarginalSummary `json:"priors"`
	Fan       []bayes.PredictivePoint `json:"fan"`
}

// Fit computes the posterior at a caller-chosen change point.
func (s *InferenceService) Fit(ctx context.Context, req FitRequest) (*FitResult, error) {
	ds, err := s.datasets.GetByID(ctx, req.DatasetID)
	if err != nil {
		return nil, err
	}
	if !req.Shape.Valid() {
		return nil, core.ErrUnknownShape
	}

	temps, energies := energy.Split(ds.Observations)
	priorCfg := bayes.DefaultPriorConfig()
	if req.Prior != nil {
		priorCfg = *req.Prior
	}
	prior, err := bayes.DefaultPrior(temps, energies, req.Shape, priorCfg)
	if err != nil {
		return nil, err
	}

	X := energy.DesignMatrix(temps, req.Shape, req.ChangePoint1, req.ChangePoint2)
	post, err := bayes.Regress(X, energies, prior)
	if err != nil {
		return nil, err
	}

	names := req.Shape.ParamNames()
	marginals := make([]bayes.MarginalSummary, len(names))
	priors := make([]bayes.MarginalSummary, len(names))
	for j, name := range names {
		marginals[j] = bayes.ParameterPosterior(post, j, name)
		priors[j] = bayes.ParameterPrior(prior, j, name)
	}

	tMin, tMax := energy.TemperatureRange(ds.Observations)
	result := &FitResult{
		Shape:     req.Shape,
		Posterior: post,
		Marginals: marginals,
		Priors:    priors,
		Fan:       bayes.PredictiveFan(post, req.Shape, req.ChangePoint1, req.ChangePoint2, tMin, tMax),
	}
	if ols, err := bayes.OLS(X, energies); err == nil {
		result.OLS = ols
	}
	return result, nil
}

// SavingsRequest estimates avoided energy over a reporting period using a
// baseline model fit on the baseline dataset.
type SavingsRequest struct {
	BaselineID   core.DatasetID
	ReportingID  core.DatasetID
	Shape        energy.ModelShape
	ChangePoint1 float64
	ChangePoint2 float64
	SampleCount  int
	Seed         int64
	Prior        *bayes.PriorConfig
}

// SavingsResult is the Monte Carlo savings posterior with its run context.
type SavingsResult struct {
	Shape        energy.ModelShape          `json:"shape"`
	RunID        core.RunID                 `json:"run_id"`
	Distribution *bayes.SavingsDistribution `json:"distribution"`
	SampleCount  int                        `json:"sample_count"`
}

// EstimateSavings fits the baseline, then propagates the posterior through
// the reporting period via the seeded sampler.
func (s *InferenceService) EstimateSavings(ctx context.Context, req SavingsRequest) (*SavingsResult, error) {
	baseline, err := s.datasets.GetByID(ctx, req.BaselineID)
	if err != nil {
		return nil, err
	}
	reporting, err := s.datasets.GetByID(ctx, req.ReportingID)
	if err != nil {
		return nil, err
	}
	if !req.Shape.Valid() {
		return nil, core.ErrUnknownShape
	}

	temps, energies := energy.Split(baseline.Observations)
	priorCfg := bayes.DefaultPriorConfig()
	if req.Prior != nil {
		priorCfg = *req.Prior
	}
	prior, err := bayes.DefaultPrior(temps, energies, req.Shape, priorCfg)
	if err != nil {
		return nil, err
	}

	X := energy.DesignMatrix(temps, req.Shape, req.ChangePoint1, req.ChangePoint2)
	post, err := bayes.Regress(X, energies, prior)
	if err != nil {
		return nil, err
	}

	manifest := run.NewManifest(baseline.ID, req.Shape, bayes.DefaultStep, req.Seed)
	manifest.ChangePoint1 = req.ChangePoint1
	manifest.ChangePoint2 = req.ChangePoint2
	manifest.LogML = post.LogML

	rng, err := s.rng.Stream(ctx, manifest.RunID.String(), string(req.Shape), req.Seed)
	if err != nil {
		return nil, fmt.Errorf("rng stream: %w", err)
	}

	samplingStart := time.Now()
	dist, err := bayes.SavingsPosterior(post, req.Shape, req.ChangePoint1, req.ChangePoint2, reporting.Observations, req.SampleCount, rng)
	if err != nil {
		return nil, err
	}
	manifest.RuntimeMs = time.Since(samplingStart).Milliseconds()

	if err := s.runs.Create(ctx, manifest); err != nil {
		s.logger.Error("Failed to persist savings run manifest: %v", err)
		return nil, err
	}

	s.logger.Info("Savings estimate: baseline=%s reporting=%s mean=%.1f in %dms",
		baseline.ID, reporting.ID, dist.Mean, manifest.RuntimeMs)

	return &SavingsResult{
		Shape:        req.Shape,
		RunID:        manifest.RunID,
		Distribution: dist,
		SampleCount:  len(dist.Samples),
	}, nil
}
