package ports

import (
	"context"

	"baymv/domain/core"
	"baymv/domain/run"
)

// RunRepository persists run manifests, the replay record of every sweep.
type RunRepository interface {
	Create(ctx context.Context, manifest *run.Manifest) error
	GetByID(ctx context.Context, id core.RunID) (*run.Manifest, error)
	ListByDataset(ctx context.Context, datasetID core.DatasetID, limit int) ([]*run.Manifest, error)
}
