package energy

import (
	"baymv/domain/core"
)

// Observation is a single (temperature, energy) reading, typically one
// billing interval or one day of interval data.
type Observation struct {
	Timestamp   core.Timestamp `json:"timestamp,omitempty"`
	Temperature float64        `json:"temperature"`
	Energy      float64        `json:"energy"`
}

// Dataset is a stored series of observations plus ingestion metadata.
// Observations are immutable once ingested; the engine itself never touches
// the repository layer.
type Dataset struct {
	ID           core.DatasetID `json:"id" db:"id"`
	Name         string         `json:"name" db:"name"`
	Source       string         `json:"source" db:"source"`
	Observations []Observation  `json:"observations"`
	CreatedAt    core.Timestamp `json:"created_at" db:"created_at"`
}

// NewDataset creates a dataset with a fresh ID.
func NewDataset(name, source string, observations []Observation) *Dataset {
	return &Dataset{
		ID:           core.DatasetID(core.NewID()),
		Name:         name,
		Source:       source,
		Observations: observations,
		CreatedAt:    core.Now(),
	}
}

// Split separates observations into parallel temperature and energy slices,
// the form the regression core consumes.
func Split(observations []Observation) (temperatures, energies []float64) {
	temperatures = make([]float64, len(observations))
	energies = make([]float64, len(observations))
	for i, obs := range observations {
		temperatures[i] = obs.Temperature
		energies[i] = obs.Energy
	}
	return temperatures, energies
}

// TemperatureRange returns the min and max observed temperature.
func TemperatureRange(observations []Observation) (min, max float64) {
	if len(observations) == 0 {
		return 0, 0
	}
	min = observations[0].Temperature
	max = observations[0].Temperature
	for _, obs := range observations[1:] {
		if obs.Temperature < min {
			min = obs.Temperature
		}
		if obs.Temperature > max {
			max = obs.Temperature
		}
	}
	return min, max
}
