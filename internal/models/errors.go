package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrCapacityExceeded = fmt.Errorf("%w: capacity exceeded", ErrConflict)
	ErrStorage          = errors.New("storage failure")
	ErrTransient        = fmt.Errorf("%w: transient conflict, retry later", ErrStorage)
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// CapacityError is returned when a request asks for more tickets than remain.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("Cannot register %d tickets. Only %d spots remaining.", e.Requested, e.Remaining)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded || target == ErrConflict
}

// RegistrationsExistError blocks deleting an event that owns ledger entries.
type RegistrationsExistError struct {
	Count int
}

func (e *RegistrationsExistError) Error() string {
	return fmt.Sprintf("Cannot delete event because it has %d existing registration(s).", e.Count)
}

func (e *RegistrationsExistError) Is(target error) bool {
	return target == ErrConflict
}
