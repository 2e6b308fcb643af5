package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrClustering means a two-way partition cannot be formed (missing pivot,
	// or the pivot shares no observed votes with anyone).
	ErrClustering = errors.New("clustering failed")

	// ErrInsufficientData means participation filtering removed too much data
	// to continue (no legislators retained, or the pivot itself was dropped).
	ErrInsufficientData = errors.New("insufficient data for analysis")

	// ErrDegenerateInput means the retained matrix has zero variance and
	// cannot be standardized.
	ErrDegenerateInput = errors.New("degenerate input: zero vote variance")

	// ErrPivotUnscorable means the pivot has no usable cells after filtering,
	// so score orientation has no anchor.
	ErrPivotUnscorable = errors.New("pivot has no scorable votes")

	// ErrInvalidMatrix covers constructor-time roll-call matrix violations.
	ErrInvalidMatrix = errors.New("invalid roll-call matrix")

	// ErrInvalidClustering covers constructor-time cluster assignment violations.
	ErrInvalidClustering = errors.New("invalid cluster assignment")

	// ErrNotFound is returned by repositories when a run does not exist.
	ErrNotFound = errors.New("resource not found")
)

// Error constructors with context
func NewClusteringError(reason string) error {
	return fmt.Errorf("%w: %s", ErrClustering, reason)
}

func NewInsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

func NewPivotUnscorableError(pivot LegislatorID) error {
	return fmt.Errorf("%w: %s", ErrPivotUnscorable, pivot)
}

func NewMatrixError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidMatrix, reason)
}

func NewClusterAssignmentError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidClustering, reason)
}

func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

// Error checking helpers
func IsClusteringError(err error) bool {
	return errors.Is(err, ErrClustering)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
