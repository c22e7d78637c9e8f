package ports

import (
	"baymv/domain/energy"
)

// ObservationReader ingests (timestamp, temperature, energy) rows from an
// external file format into observations ready for the engine.
type ObservationReader interface {
	// Read parses the file at path and returns its observations in file order.
	Read(path string) ([]energy.Observation, error)
}
