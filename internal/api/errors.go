package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case store.IsNotFoundError(err):
		return http.StatusNotFound

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidTaskStatus),
		errors.Is(err, service.ErrNoFieldsToUpdate):
		return http.StatusBadRequest

	// A dependency refused the write that had to succeed
	case errors.Is(err, service.ErrUpstreamWrite):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var validationErr *domain.ValidationError
	switch {
	case store.IsNotFoundError(err):
		return "Task not found"

	case errors.As(err, &validationErr):
		// Field-level validation messages are written for clients.
		return validationErr.Error()

	case errors.Is(err, domain.ErrInvalidTaskStatus):
		return "Invalid task status"

	case errors.Is(err, service.ErrNoFieldsToUpdate):
		return "No fields provided to update"

	case errors.Is(err, service.ErrUpstreamWrite):
		return "A storage dependency is unavailable"

	default:
		return "An unexpected error occurred"
	}
}
