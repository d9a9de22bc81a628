package application

import (
	"errors"
	"fmt"

	"github.com/example/collection-scheduler/internal/scheduler"
)

// ResourceKind names the record class a NotFoundError refers to.
type ResourceKind string

const (
	ResourceBuilding ResourceKind = "building"
	ResourceStaff    ResourceKind = "staff"
	ResourceSchedule ResourceKind = "schedule"
)

// NotFoundError is returned when a referenced building, staff member, or
// schedule entry does not exist. It is surfaced verbatim and never retried.
type NotFoundError struct {
	Kind ResourceKind
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("application: %s %s not found", e.Kind, e.ID)
}

// ValidationError captures field level validation issues that callers can
// surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ConflictError is returned when a candidate time slot overlaps an existing
// non-cancelled entry for the same building and date. It carries the
// colliding entry's id so the caller can resolve the clash.
type ConflictError struct {
	ConflictingEntryID string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("application: time slot conflicts with entry %s", e.ConflictingEntryID)
}

// IllegalStateError is returned when an operation is attempted against an
// entry whose lifecycle state forbids it, such as reassigning a completed
// visit. Lifecycle violations are always rejected, never coerced.
type IllegalStateError struct {
	Operation string
	Status    scheduler.Status
}

// Error implements the error interface.
func (e *IllegalStateError) Error() string {
	return fmt.Sprintf("application: %s not permitted while entry is %s", e.Operation, e.Status)
}

// StorageError wraps an underlying persistence failure. It is the only error
// class where a caller-level retry is appropriate; the engine itself never
// retries, since retrying a non-idempotent creation could double-book.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("application: storage failure during %s: %v", e.Op, e.Err)
}

// Unwrap exposes the wrapped driver error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// ErrorKind maps engine errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}

	var notFound *NotFoundError
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return "conflict"
	}
	var transition *scheduler.IllegalTransitionError
	if errors.As(err, &transition) {
		return "illegal_transition"
	}
	var state *IllegalStateError
	if errors.As(err, &state) {
		return "illegal_state"
	}
	var storage *StorageError
	if errors.As(err, &storage) {
		return "storage"
	}

	return "unexpected"
}
