// Package apperr defines the error types shared by the presence and
// credential tracking packages. Callers match them with errors.As.
package apperr

import "fmt"

// ValidationError reports a missing or invalid input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s is invalid: %s", e.Field, e.Reason)
}

// Required returns a ValidationError for a missing field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// Invalid returns a ValidationError for a field with a bad value.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports an operation on an unknown identifier.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ExhaustionError reports that every code in a credential space is taken.
type ExhaustionError struct {
	Space int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("credential space exhausted (%d codes in use)", e.Space)
}

// IngestionFormatError reports malformed visitor data from the backend.
type IngestionFormatError struct {
	Reason string
	Err    error
}

func (e *IngestionFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid data format received from the server: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid data format received from the server: %s", e.Reason)
}

func (e *IngestionFormatError) Unwrap() error { return e.Err }

// UnavailableError reports that an external collaborator rejected a request.
type UnavailableError struct {
	Op  string
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Op, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
