// Package fault defines the domain error taxonomy shared across CareConnect
// operations: validation failures, time conflicts, rejected state
// transitions, and missing records. Callers match with errors.As / errors.Is.
package fault

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is the sentinel wrapped by every NotFoundError.
var ErrNotFound = errors.New("not found")

// ValidationError reports malformed or out-of-range input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidation builds a ValidationError for a field.
func NewValidation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a time overlap with an existing active schedule for
// the same user. Carries enough context for the caller to resolve manually.
type ConflictError struct {
	ScheduleID   string
	ActivityName string
	ScheduledAt  time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time conflict with existing schedule %s: %s at %s",
		e.ScheduleID, e.ActivityName, e.ScheduledAt.Format("2006-01-02 15:04"))
}

// InvalidStateError reports an operation attempted from a status that does
// not permit it. No partial mutation occurs.
type InvalidStateError struct {
	Entity string
	ID     string
	From   string
	Action string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s in status %q", e.Action, e.Entity, e.ID, e.From)
}

// NotFoundError reports a missing record. Unwraps to ErrNotFound.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
