package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"baymv/domain/core"
	"baymv/domain/run"
	"baymv/ports"
)

// runRepository implements the RunRepository interface
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run repository
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &runRepository{db: db}
}

// Create inserts a run manifest
func (r *runRepository) Create(ctx context.Context, manifest *run.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO runs (
		run_id, dataset_id, shape, step, seed, candidate_count,
		change_point_1, change_point_2, log_ml, runtime_ms, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(ctx, query,
		manifest.RunID, manifest.DatasetID, manifest.Shape, manifest.Step,
		manifest.Seed, manifest.CandidateCount, manifest.ChangePoint1,
		manifest.ChangePoint2, manifest.LogML, manifest.RuntimeMs,
		manifest.CreatedAt.Time(),
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// GetByID retrieves a run manifest by its ID
func (r *runRepository) GetByID(ctx context.Context, id core.RunID) (*run.Manifest, error) {
	query := `SELECT run_id, dataset_id, shape, step, seed, candidate_count,
		change_point_1, change_point_2, log_ml, runtime_ms, created_at
		FROM runs WHERE run_id = $1`

	m, err := scanManifest(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, core.NewNotFoundError("run", id.String())
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return m, nil
}

// ListByDataset retrieves the most recent runs for a dataset
func (r *runRepository) ListByDataset(ctx context.Context, datasetID core.DatasetID, limit int) ([]*run.Manifest, error) {
	query := `SELECT run_id, dataset_id, shape, step, seed, candidate_count,
		change_point_1, change_point_2, log_ml, runtime_ms, created_at
		FROM runs
		WHERE dataset_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var manifests []*run.Manifest
	for rows.Next() {
		m, err := scanManifest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		manifests = append(manifests, m)
	}

	return manifests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanManifest(row rowScanner) (*run.Manifest, error) {
	var m run.Manifest
	var createdAt sql.NullTime

	err := row.Scan(
		&m.RunID, &m.DatasetID, &m.Shape, &m.Step, &m.Seed, &m.CandidateCount,
		&m.ChangePoint1, &m.ChangePoint2, &m.LogML, &m.RuntimeMs, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if createdAt.Valid {
		m.CreatedAt = core.NewTimestamp(createdAt.Time)
	}
	return &m, nil
}
