// Package run records what a sweep did: which dataset, which shape, which
// grid, which seed. A manifest is enough to replay the run exactly.
package run

import (
	"baymv/domain/core"
	"baymv/domain/energy"
)

// Manifest is the replay record of one model-shape evaluation.
type Manifest struct {
	RunID          core.RunID        `json:"run_id" db:"run_id"`
	DatasetID      core.DatasetID    `json:"dataset_id" db:"dataset_id"`
	Shape          energy.ModelShape `json:"shape" db:"shape"`
	Step           float64           `json:"step" db:"step"`
	Seed           int64             `json:"seed" db:"seed"`
	CandidateCount int               `json:"candidate_count" db:"candidate_count"`
	ChangePoint1   float64           `json:"change_point_1" db:"change_point_1"`
	ChangePoint2   float64           `json:"change_point_2" db:"change_point_2"`
	LogML          float64           `json:"log_marginal_likelihood" db:"log_ml"`
	RuntimeMs      int64             `json:"runtime_ms" db:"runtime_ms"`
	CreatedAt      core.Timestamp    `json:"created_at" db:"created_at"`
}

// NewManifest creates a manifest with a fresh run ID.
func NewManifest(datasetID core.DatasetID, shape energy.ModelShape, step float64, seed int64) *Manifest {
	return &Manifest{
		RunID:     core.RunID(core.NewID()),
		DatasetID: datasetID,
		Shape:     shape,
		Step:      step,
		Seed:      seed,
		CreatedAt: core.Now(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewValidationError("run_manifest", "run_id cannot be empty")
	}
	if core.ID(m.DatasetID).IsEmpty() {
		return core.NewValidationError("run_manifest", "dataset_id cannot be empty")
	}
	if !m.Shape.Valid() {
		return core.NewValidationError("run_manifest", "unknown model shape")
	}
	if m.Step <= 0 {
		return core.NewValidationError("run_manifest", "step must be positive")
	}
	return nil
}
