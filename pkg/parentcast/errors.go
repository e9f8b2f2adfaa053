package parentcast

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrEntryNotFound indicates an entry row was not found
	ErrEntryNotFound = errors.New("entry not found")

	// ErrCastNotFound indicates a cast row was not found
	ErrCastNotFound = errors.New("cast not found")

	// ErrRuleNotFound indicates a referenced rule does not exist
	ErrRuleNotFound = errors.New("rule not found")

	// ErrNotAuthenticated indicates no valid session where one is required
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrValidationFailed indicates malformed input
	ErrValidationFailed = errors.New("validation failed")

	// ErrMoveFailed indicates an object relocation was rejected by the store
	ErrMoveFailed = errors.New("object move failed")

	// ErrSummaryUnavailable indicates the completion API is misconfigured or erroring
	ErrSummaryUnavailable = errors.New("summary service unavailable")
)

// EntryError represents an error from an entry lifecycle operation.
type EntryError struct {
	EntryID uuid.UUID
	Op      string
	Err     error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry operation %s failed for entry %s: %v", e.Op, e.EntryID, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// StorageError represents an error from an object-store operation.
type StorageError struct {
	Bucket string
	Key    string
	Op     string
	Err    error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s in bucket %s: %v", e.Op, e.Key, e.Bucket, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
