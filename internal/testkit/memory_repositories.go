package testkit

import (
	"context"
	"sort"
	"sync"

	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/domain/run"
	"baymv/ports"
)

// InMemoryDatasetRepository is a map-backed DatasetRepository for tests and
// the CLI's offline mode.
type InMemoryDatasetRepository struct {
	mu       sync.RWMutex
	datasets map[core.DatasetID]*energy.Dataset
}

// NewInMemoryDatasetRepository creates an empty in-memory dataset store.
func NewInMemoryDatasetRepository() *InMemoryDatasetRepository {
	return &InMemoryDatasetRepository{
		datasets: make(map[core.DatasetID]*energy.Dataset),
	}
}

func (r *InMemoryDatasetRepository) Create(ctx context.Context, ds *energy.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[ds.ID] = ds
	return nil
}

func (r *InMemoryDatasetRepository) GetByID(ctx context.Context, id core.DatasetID) (*energy.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.datasets[id]
	if !ok {
		return nil, core.NewNotFoundError("dataset", id.String())
	}
	return ds, nil
}

func (r *InMemoryDatasetRepository) List(ctx context.Context, limit, offset int) ([]*energy.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*energy.Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		all = append(all, ds)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.Time().After(all[j].CreatedAt.Time())
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *InMemoryDatasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.datasets[id]; !ok {
		return core.NewNotFoundError("dataset", id.String())
	}
	delete(r.datasets, id)
	return nil
}

// InMemoryRunRepository is a map-backed RunRepository.
type InMemoryRunRepository struct {
	mu   sync.RWMutex
	runs map[core.RunID]*run.Manifest
}

// NewInMemoryRunRepository creates an empty in-memory run store.
func NewInMemoryRunRepository() *InMemoryRunRepository {
	return &InMemoryRunRepository{
		runs: make(map[core.RunID]*run.Manifest),
	}
}

func (r *InMemoryRunRepository) Create(ctx context.Context, manifest *run.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[manifest.RunID] = manifest
	return nil
}

func (r *InMemoryRunRepository) GetByID(ctx context.Context, id core.RunID) (*run.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return m, nil
}

func (r *InMemoryRunRepository) ListByDataset(ctx context.Context, datasetID core.DatasetID, limit int) ([]*run.Manifest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matches []*run.Manifest
	for _, m := range r.runs {
		if m.DatasetID == datasetID {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Time().After(matches[j].CreatedAt.Time())
	})
	if limit > 0 && limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

var (
	_ ports.DatasetRepository = (*InMemoryDatasetRepository)(nil)
	_ ports.RunRepository     = (*InMemoryRunRepository)(nil)
)
