package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/ports"
)

// datasetRepository implements the DatasetRepository interface
type datasetRepository struct {
	db *sqlx.DB
}

// NewDatasetRepository creates a new dataset repository
func NewDatasetRepository(db *sqlx.DB) ports.DatasetRepository {
	return &datasetRepository{db: db}
}

// Create inserts a new dataset. Observations are stored as a JSONB document;
// the engine always consumes a dataset whole, so row-level storage buys
// nothing.
func (r *datasetRepository) Create(ctx context.Context, ds *energy.Dataset) error {
	observationsJSON, err := json.Marshal(ds.Observations)
	if err != nil {
		return fmt.Errorf("failed to marshal observations: %w", err)
	}

	query := `INSERT INTO datasets (id, name, source, observations, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err = r.db.ExecContext(ctx, query,
		ds.ID, ds.Name, ds.Source, observationsJSON, ds.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to create dataset: %w", err)
	}

	return nil
}

// GetByID retrieves a dataset by its ID
func (r *datasetRepository) GetByID(ctx context.Context, id core.DatasetID) (*energy.Dataset, error) {
	query := `SELECT id, name, COALESCE(source, '') as source, observations, created_at
		FROM datasets WHERE id = $1`

	var ds energy.Dataset
	var observationsJSON []byte
	var createdAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ds.ID, &ds.Name, &ds.Source, &observationsJSON, &createdAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("dataset", id.String())
		}
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	if err := json.Unmarshal(observationsJSON, &ds.Observations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal observations: %w", err)
	}
	if createdAt.Valid {
		ds.CreatedAt = core.NewTimestamp(createdAt.Time)
	}

	return &ds, nil
}

// List retrieves datasets newest first with pagination
func (r *datasetRepository) List(ctx context.Context, limit, offset int) ([]*energy.Dataset, error) {
	query := `SELECT id, name, COALESCE(source, '') as source, observations, created_at
		FROM datasets
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*energy.Dataset
	for rows.Next() {
		var ds energy.Dataset
		var observationsJSON []byte
		var createdAt sql.NullTime

		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Source, &observationsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		if err := json.Unmarshal(observationsJSON, &ds.Observations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal observations: %w", err)
		}
		if createdAt.Valid {
			ds.CreatedAt = core.NewTimestamp(createdAt.Time)
		}
		datasets = append(datasets, &ds)
	}

	return datasets, rows.Err()
}

// Delete removes a dataset and cascades to its runs
func (r *datasetRepository) Delete(ctx context.Context, id core.DatasetID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return core.NewNotFoundError("dataset", id.String())
	}

	return nil
}
