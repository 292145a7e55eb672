// Package common defines shared constants and sentinel errors used across
// client and server layers of taskboard. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation reports a missing or malformed required field.
	ErrValidation = errors.New("validation error")

	// ErrAuth is returned for bad credentials. The message is deliberately the
	// same for an unknown email and a wrong password.
	ErrAuth = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned when a gated operation has no valid session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrConflict reports a unique-constraint violation (e.g. duplicate email).
	ErrConflict = errors.New("already exists")

	// ErrNotFound is returned when an operation targets a nonexistent id.
	ErrNotFound = errors.New("not found")

	// ErrStorage is the catch-all for underlying persistence failures.
	ErrStorage = errors.New("storage error")

	// ErrRateLimited is returned when a client exceeds its login attempt budget.
	ErrRateLimited = errors.New("too many attempts, try again later")
)

// ValidationError carries the offending field alongside ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
