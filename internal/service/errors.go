package service

import (
	"errors"
	"fmt"
)

// Common study service errors
var (
	// ErrNoItemsDue indicates the user has no items due for review. This is
	// an expected steady state, reported as a no-op outcome.
	ErrNoItemsDue = errors.New("no items due for review")

	// ErrItemNotFound indicates the study item does not exist.
	ErrItemNotFound = errors.New("study item not found")

	// ErrItemNotOwned indicates the user does not own the study item.
	ErrItemNotOwned = errors.New("unauthorized access: item not owned by user")

	// ErrInvalidQuality indicates a quality grade outside [0, 5]. This is a
	// caller contract violation, rejected before any state changes.
	ErrInvalidQuality = errors.New("quality grade must be between 0 and 5")

	// ErrEmptyImport indicates an import batch with no items.
	ErrEmptyImport = errors.New("import batch contains no items")
)

// ServiceError wraps study service failures with the failed operation so
// consumers can differentiate using errors.As instead of string matching.
type ServiceError struct {
	Operation string // e.g. "submit_review", "next_item"
	Message   string
	Err       error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
