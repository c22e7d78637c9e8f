package ports

import (
	"context"

	"baymv/domain/core"
	"baymv/domain/energy"
)

// DatasetRepository defines the interface for dataset storage operations
type DatasetRepository interface {
	Create(ctx context.Context, ds *energy.Dataset) error
	GetByID(ctx context.Context, id core.DatasetID) (*energy.Dataset, error)
	List(ctx context.Context, limit, offset int) ([]*energy.Dataset, error)
	Delete(ctx context.Context, id core.DatasetID) error
}
