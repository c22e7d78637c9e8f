package testkit

import (
	"context"
	"hash/fnv"
	"math/rand"

	"baymv/ports"
)

// SeededRNG implements ports.RNGPort with deterministic streams. Stream names
// are folded into the seed so distinct operations never share a sequence.
type SeededRNG struct{}

// NewSeededRNG creates the deterministic RNG adapter.
func NewSeededRNG() *SeededRNG {
	return &SeededRNG{}
}

// SeededStream creates a deterministic generator for a named operation.
func (r *SeededRNG) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(deriveSeed(seed, name))), nil
}

// Stream creates a generator scoped to a run and shape, so replaying a run
// reproduces its savings draws exactly.
func (r *SeededRNG) Stream(ctx context.Context, runID, shape string, baseSeed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(deriveSeed(baseSeed, runID+"/"+shape))), nil
}

func deriveSeed(base int64, name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return base ^ int64(h.Sum64())
}

var _ ports.RNGPort = (*SeededRNG)(nil)
