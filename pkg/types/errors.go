package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the stores and engines.
var (
	// ErrNotFound is returned when an entity, relationship, or embedding
	// does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a create collides with an existing id.
	ErrConflict = errors.New("already exists")
	// ErrUpstreamUnavailable is returned when a collaborator stays
	// unreachable after retries are exhausted.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// DimensionError reports a vector whose length does not match the configured
// embedding dimension. It is raised before any I/O is attempted.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: expected %d, got %d", e.Want, e.Got)
}

// ValidationError reports invalid input: a score out of [0,1], a missing
// required field, an unknown enum value, or a relationship endpoint that does
// not exist. Validation failures are never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsRetryable reports whether an error represents a transient failure worth
// retrying. Validation, not-found, conflict, and dimension errors are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ve *ValidationError
	var de *DimensionError
	if errors.As(err, &ve) || errors.As(err, &de) {
		return false
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
		return false
	}
	return true
}
