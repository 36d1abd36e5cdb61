package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors for TaskService
var (
	// ErrUpstreamWrite indicates that a store or attachment call failed in a
	// position where the failure must surface to the caller: an attachment
	// upload, or the first of the two persistence writes.
	ErrUpstreamWrite = errors.New("upstream write failed")

	// ErrNoFieldsToUpdate is returned when an update names no fields and
	// carries no new attachment files.
	ErrNoFieldsToUpdate = errors.New("no fields provided to update")
)

// TaskServiceError wraps errors from the task coordinator with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create", "update")
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
func NewTaskServiceError(operation, message string, err error) *TaskServiceError {
	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
