// Package domain holds the dataset model, analysis result types, and the
// errors shared by every layer. Nothing in here knows about HTTP, files, or
// rendering; adapters translate to and from these types.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every typed error below unwraps to exactly one of them, and
// the API maps each kind to one status.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("unavailable")
)

// ErrEmptyDataset is returned when a file decodes to zero rows or columns.
var ErrEmptyDataset = &ValidationError{Field: "file", Message: "dataset is empty"}

// NotFoundError names a missing dataset, column, job, or remote file.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error { return &NotFoundError{Entity: entity, ID: id} }

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Entity + " not found"
	}

	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConflictError reports an operation that collides with stored state, such
// as a full dataset store.
type ConflictError struct {
	Entity string
	Reason string
}

func NewConflictError(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

func (e *ConflictError) Error() string { return e.Entity + " conflict: " + e.Reason }

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError rejects an input. Field and Value are optional and end up
// in the details of the API error.
type ValidationError struct {
	Field   string
	Message string
	Value   any
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func NewValidationErrorWithValue(field, message string, value any) error {
	return &ValidationError{Field: field, Message: message, Value: value}
}

func (e *ValidationError) Error() string {
	field := e.Field
	if field == "" {
		field = "input"
	}

	return "invalid " + field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ForbiddenError refuses an operation outright, for example a remote path
// that leaves the source root.
type ForbiddenError struct {
	Action string
	Reason string
}

func NewForbiddenError(action, reason string) error {
	return &ForbiddenError{Action: action, Reason: reason}
}

func (e *ForbiddenError) Error() string { return e.Action + " forbidden: " + e.Reason }

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }

// UnsupportedFormatError is a validation failure for a file the loader
// cannot read. The API answers it with 415.
type UnsupportedFormatError struct {
	Extension string
	Allowed   []string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file extension .%s, allowed: %s", e.Extension, strings.Join(e.Allowed, ", "))
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrValidation }

// UnavailableError reports a dependency, usually the remote source, that
// could not serve the request.
type UnavailableError struct {
	Service string
	Reason  string
}

func NewUnavailableError(service, reason string) error {
	return &UnavailableError{Service: service, Reason: reason}
}

func (e *UnavailableError) Error() string {
	msg := fmt.Sprintf("service %q unavailable", e.Service)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

func IsNotFound(err error) bool    { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool    { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool  { return errors.Is(err, ErrValidation) }
func IsForbidden(err error) bool   { return errors.Is(err, ErrForbidden) }
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }
