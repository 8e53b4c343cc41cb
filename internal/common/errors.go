package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Every domain error unwraps to exactly one of these.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrForbidden         = errors.New("forbidden")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrRateLimited       = errors.New("rate limited")
)

// DomainError carries a client-facing message and the kind it belongs to.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Kind }

func newError(kind error, msg string) *DomainError {
	return &DomainError{Kind: kind, Message: msg}
}

var (
	ErrInvalidDateRange   = newError(ErrValidation, "start date must be before end date")
	ErrRentalTooLong      = newError(ErrValidation, "rental period cannot exceed 365 days")
	ErrInvalidRadius      = newError(ErrValidation, "radius must be one of 5, 10 or 15 km")
	ErrInvalidCoordinates = newError(ErrValidation, "latitude must be within [-90, 90] and longitude within [-180, 180]")

	ErrCarUnavailable   = newError(ErrConflict, "car is not available for renting")
	ErrBookingConflict  = newError(ErrConflict, "car is already booked for the selected dates")
	ErrAlreadyCompleted = newError(ErrConflict, "rental is already completed")
	ErrEmailTaken       = newError(ErrConflict, "email already registered")
	ErrCarHasRentals    = newError(ErrConflict, "car has rentals and cannot be deleted")

	ErrInvalidCredentials = newError(ErrUnauthorized, "invalid credentials")
	ErrInvalidToken       = newError(ErrUnauthorized, "invalid or expired token")
	ErrMissingToken       = newError(ErrUnauthorized, "missing or malformed token")

	ErrTooManyRequests = newError(ErrRateLimited, "too many requests, try again later")
)

// Validation builds a validation error with a specific message.
func Validation(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

// NotFound builds a not-found error for a resource and identifier.
func NotFound(resource string, id any) error {
	return newError(ErrNotFound, fmt.Sprintf("%s with ID %v not found", resource, id))
}

// Forbidden builds a forbidden error with a specific message.
func Forbidden(msg string) error {
	return newError(ErrForbidden, msg)
}

// InvalidTransition builds an invalid-transition error with a specific message.
func InvalidTransition(format string, args ...any) error {
	return newError(ErrInvalidTransition, fmt.Sprintf(format, args...))
}

// HTTPStatus maps an error to the status code of its kind. Unknown errors
// are internal.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidTransition):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}

// ErrorCode is the envelope code of an error's kind.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrInvalidTransition):
		return "INVALID_TRANSITION"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrConflict):
		return "CONFLICT"
	case errors.Is(err, ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	}
	return "SERVER_ERROR"
}

// PublicMessage returns the client-facing message of a domain error, or
// false when err carries none.
func PublicMessage(err error) (string, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message, true
	}
	return "", false
}
