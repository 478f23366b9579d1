package types

import (
	"errors"
	"strings"
)

// Error taxonomy shared by the services and the HTTP layer.
// Services return these (optionally wrapped with %w) and the response
// package maps them to status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicatePrincipal = errors.New("university with this principal address already exists")
	ErrDuplicateIdentity  = errors.New("student with this wallet address or national id already exists")
	ErrUnknownUniversity  = errors.New("university not found")
	ErrNotFound           = errors.New("not found")
	ErrMalformed          = errors.New("malformed payload")
)

// ValidationError lists every field that failed validation.
// errors.Is(err, ErrValidation) is true for any *ValidationError.
type ValidationError struct {
	Fields []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Fields: msgs}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
