package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a transaction cannot be started,
	// committed or rolled back.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNotInTransaction is returned by operations that only make sense
	// inside WithinTx when they are called on a store that is not bound to one.
	ErrNotInTransaction = errors.New("operation requires a transaction")

	// ErrReadOnly is returned when a write is attempted through a
	// ReadSnapshot view.
	ErrReadOnly = errors.New("write attempted in read-only snapshot")

	// ErrTaskNotFound indicates that the requested task does not exist in the store.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// TaskNotFoundError carries the id that failed to resolve. It matches
// ErrTaskNotFound (and therefore ErrNotFound) under errors.Is.
type TaskNotFoundError struct {
	ID int64
}

// Error implements the error interface.
func (e *TaskNotFoundError) Error() string {
	return fmt.Sprintf("task not found with id: %d", e.ID)
}

// Unwrap exposes ErrTaskNotFound to errors.Is.
func (e *TaskNotFoundError) Unwrap() error {
	return ErrTaskNotFound
}

// NewTaskNotFoundError returns the not-found error for id.
func NewTaskNotFoundError(id int64) error {
	return &TaskNotFoundError{ID: id}
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "task", "comment")
	Operation string // The operation that failed (e.g., "save", "list")
	Message   string
	Err       error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation on %s failed: %s: %v", e.Operation, e.Entity, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
