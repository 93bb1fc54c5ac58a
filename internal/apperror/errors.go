// Package apperror defines the error taxonomy shared by the import pipeline,
// the categorization engine and the recurrence scheduler.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Typed errors below match them through errors.Is.
var (
	ErrParse             = errors.New("parse error")
	ErrValidation        = errors.New("validation error")
	ErrUnauthorized      = errors.New("not authorized")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrCommitBatch       = errors.New("batch commit failed")
	ErrRecurrenceAdvance = errors.New("recurrence processing failed")
)

// ParseError is raised when a file or a cell cannot be interpreted.
// Row is 0 for file-level failures.
type ParseError struct {
	Field string
	Value string
	Row   int
	Err   error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("failed to parse %s", e.Field)
	if e.Value != "" {
		msg += fmt.Sprintf("='%s'", e.Value)
	}
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// ValidationError blocks progression before any I/O happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// AuthorizationError is returned when a resource is missing or owned by
// another user. Both cases look the same to the caller.
type AuthorizationError struct {
	Resource string
	ID       string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s %s not found or not owned by caller", e.Resource, e.ID)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrUnauthorized }

// CommitBatchError describes one failed insert batch. It is logged and
// aggregated by the committer, never returned to the caller.
type CommitBatchError struct {
	Batch int
	Rows  int
	Err   error
}

func (e *CommitBatchError) Error() string {
	return fmt.Sprintf("batch %d (%d rows) failed: %v", e.Batch, e.Rows, e.Err)
}

func (e *CommitBatchError) Unwrap() error { return e.Err }

func (e *CommitBatchError) Is(target error) bool { return target == ErrCommitBatch }

// RecurrenceAdvanceError means the transaction for a due recurrence could not
// be inserted. The definition's next occurrence was left untouched.
type RecurrenceAdvanceError struct {
	DefinitionID string
	Err          error
}

func (e *RecurrenceAdvanceError) Error() string {
	return fmt.Sprintf("recurring definition %s: %v", e.DefinitionID, e.Err)
}

func (e *RecurrenceAdvanceError) Unwrap() error { return e.Err }

func (e *RecurrenceAdvanceError) Is(target error) bool { return target == ErrRecurrenceAdvance }

// Unauthorized is shorthand for building an AuthorizationError.
func Unauthorized(resource, id string) error {
	return &AuthorizationError{Resource: resource, ID: id}
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
