package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound        = errors.New("resource not found")
	ErrDatasetNotFound = fmt.Errorf("%w: dataset", ErrNotFound)
	ErrRunNotFound     = fmt.Errorf("%w: run", ErrNotFound)

	// Inference errors
	ErrSingularSystem   = errors.New("singular system: matrix has no inverse")
	ErrNoCandidates     = errors.New("change-point scan produced no valid candidates")
	ErrInsufficientData = errors.New("insufficient data for analysis")
	ErrUnknownShape     = errors.New("unknown model shape")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsSingularSystem reports whether err came from a non-invertible design or
// precision matrix. Callers treat this as recoverable: the offending
// candidate is dropped, never replaced with a fabricated result.
func IsSingularSystem(err error) bool {
	return errors.Is(err, ErrSingularSystem)
}

func IsInferenceError(err error) bool {
	return errors.Is(err, ErrSingularSystem) ||
		errors.Is(err, ErrNoCandidates) ||
		errors.Is(err, ErrInsufficientData)
}
