package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/workforce-api/internal/domain"
	"github.com/phrazzld/workforce-api/internal/store"
)

// Error handling principles:
// 1. Store and domain sentinels stay reachable through errors.Is/errors.As
// 2. Unexpected errors are wrapped in TaskServiceError with the failing operation
// 3. The API layer maps errors to HTTP status codes (see api.MapErrorToStatusCode)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "assign_by_reference", "add_comment")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// Validation errors and not-found errors are returned directly without
// wrapping, since they already describe the failure precisely.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, domain.ErrValidation) || errors.Is(err, store.ErrNotFound) {
		return err
	}

	var svcErr *TaskServiceError
	if errors.As(err, &svcErr) {
		return err
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
