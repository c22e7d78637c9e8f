package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// SeededStream creates a deterministic random number generator for a named operation
	SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error)

	// Stream creates a deterministic RNG stream scoped to one run and shape.
	// This ensures savings resampling produces identical draws for the same run.
	Stream(ctx context.Context, runID, shape string, baseSeed int64) (*rand.Rand, error)
}
