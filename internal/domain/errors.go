package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrUpstream      = errors.New("upstream failure")
)

// Conflict kinds. Each one wraps ErrConflict so callers can branch on the
// class (errors.Is(err, ErrConflict)) or on the exact kind.
var (
	ErrCaregiverUnavailable     = newConflict("CAREGIVER_UNAVAILABLE", "caregiver already assigned to a patient")
	ErrPatientAtCapacity        = newConflict("PATIENT_AT_CAPACITY", "patient already has the maximum number of caregivers")
	ErrImageAlreadyAssigned     = newConflict("IMAGE_ALREADY_ASSIGNED", "image already assigned to a session")
	ErrSessionFinalized         = newConflict("SESSION_FINALIZED", "session is completed")
	ErrDescriptionAlreadyExists = newConflict("DESCRIPTION_ALREADY_EXISTS", "image already described in this session")
	ErrSessionNotActive         = newConflict("SESSION_NOT_ACTIVE", "session is not active")
	ErrImageNotInSession        = newConflict("IMAGE_NOT_IN_SESSION", "image does not belong to the session")
	ErrScoringInProgress        = newConflict("SCORING_IN_PROGRESS", "description is already being scored")
)

// ConflictError is a deterministic state or cardinality violation.
// It is never retried.
type ConflictError struct {
	Code    string
	Message string
}

func newConflict(code, message string) *ConflictError {
	return &ConflictError{Code: code, Message: message}
}

func (e *ConflictError) Error() string { return "conflict: " + e.Message }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ConflictCode returns the machine-readable code of the first ConflictError
// in err's chain, or "CONFLICT" for bare ErrConflict.
func ConflictCode(err error) string {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return "CONFLICT"
}

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// UpstreamError reports a failed call to an external collaborator
// (scorer, storage). Only the single failed call may be retried.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Service, e.Err)
}

// Unwrap exposes both the class sentinel and the underlying cause,
// so errors.Is works for ErrUpstream and for context.DeadlineExceeded.
func (e *UpstreamError) Unwrap() []error { return []error{ErrUpstream, e.Err} }

// NewUpstreamError wraps err as a failure of the named collaborator.
func NewUpstreamError(service string, err error) *UpstreamError {
	return &UpstreamError{Service: service, Err: err}
}
