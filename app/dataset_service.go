package app

import (
	"context"

	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/internal"
	"baymv/internal/profiling"
	"baymv/ports"
)

// DatasetService handles ingestion and retrieval of observation datasets.
type DatasetService struct {
	datasets ports.DatasetRepository
	reader   ports.ObservationReader
	profiler *profiling.Analyzer
	logger   *internal.Logger
}

// NewDatasetService creates a dataset service
func NewDatasetService(datasets ports.DatasetRepository, reader ports.ObservationReader, logger *internal.Logger) *DatasetService {
	return &DatasetService{
		datasets: datasets,
		reader:   reader,
		profiler: profiling.NewAnalyzer(),
		logger:   logger,
	}
}

// minObservations is the floor below which a change-point fit is hopeless:
// two segments of three points each, per the scan margins.
const minObservations = 6

// IngestFile reads an observation file, validates it, and stores it as a new
// dataset.
func (s *DatasetService) IngestFile(ctx context.Context, name, path string) (*energy.Dataset, error) {
	observations, err := s.reader.Read(path)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, name, "file", observations)
}

// Ingest validates and stores observations as a new dataset.
func (s *DatasetService) Ingest(ctx context.Context, name, source string, observations []energy.Observation) (*energy.Dataset, error) {
	if len(observations) < minObservations {
		return nil, core.ErrInsufficientData
	}

	ds := energy.NewDataset(name, source, observations)
	if err := s.datasets.Create(ctx, ds); err != nil {
		return nil, err
	}

	s.logger.Info("Ingested dataset %s (%s): %d observations", ds.ID, name, len(observations))
	return ds, nil
}

// Get retrieves a dataset by ID.
func (s *DatasetService) Get(ctx context.Context, id core.DatasetID) (*energy.Dataset, error) {
	return s.datasets.GetByID(ctx, id)
}

// List retrieves stored datasets newest first.
func (s *DatasetService) List(ctx context.Context, limit, offset int) ([]*energy.Dataset, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.datasets.List(ctx, limit, offset)
}

// Delete removes a dataset and its runs.
func (s *DatasetService) Delete(ctx context.Context, id core.DatasetID) error {
	return s.datasets.Delete(ctx, id)
}

// Profile computes the data-quality summary of a stored dataset.
func (s *DatasetService) Profile(ctx context.Context, id core.DatasetID) (*profiling.DatasetProfile, error) {
	ds, err := s.datasets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiler.ProfileDataset(ds.Observations)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
