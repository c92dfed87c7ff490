package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a resource that is absent or not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrForbidden reports a resource that exists but belongs to someone else.
	ErrForbidden = errors.New("not authorized to perform this action")
	// ErrDuplicateEmail is returned when registering an email that is already taken.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both an unknown email and a wrong secret.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken covers missing, malformed, tampered and expired tokens.
	ErrInvalidToken = errors.New("could not validate credentials")
)

// ValidationError reports input rejected before any state is touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
