package schedule

import (
	"errors"
	"fmt"
)

// ScheduleErrorCode represents specific schedule error types.
type ScheduleErrorCode string

const (
	// ErrScheduleNotFound indicates the named schedule does not exist.
	ErrScheduleNotFound ScheduleErrorCode = "schedule_not_found"

	// ErrScheduleCollision indicates a schedule with the same name
	// already exists.
	ErrScheduleCollision ScheduleErrorCode = "schedule_collision"

	// ErrScheduleValidation indicates schedule input validation failed.
	ErrScheduleValidation ScheduleErrorCode = "schedule_validation"

	// ErrScheduleIO indicates the schedules file could not be read or
	// written.
	ErrScheduleIO ScheduleErrorCode = "schedule_io"
)

// ScheduleError represents a schedule-specific error with a code.
type ScheduleError struct {
	Code    ScheduleErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ScheduleError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface.
func (e *ScheduleError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code.
func (e *ScheduleError) Is(target error) bool {
	var scheduleErr *ScheduleError
	if errors.As(target, &scheduleErr) {
		return e.Code == scheduleErr.Code
	}
	return false
}

// NewNotFoundError creates a not-found error for the named schedule.
func NewNotFoundError(name string) *ScheduleError {
	return &ScheduleError{
		Code:    ErrScheduleNotFound,
		Message: fmt.Sprintf("schedule not found: %s", name),
	}
}

// NewCollisionError creates a collision error for the named schedule.
func NewCollisionError(name string) *ScheduleError {
	return &ScheduleError{
		Code:    ErrScheduleCollision,
		Message: fmt.Sprintf("schedule already exists: %s", name),
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *ScheduleError {
	return &ScheduleError{Code: ErrScheduleValidation, Message: message}
}

// NewIOError wraps a filesystem failure.
func NewIOError(message string, cause error) *ScheduleError {
	return &ScheduleError{Code: ErrScheduleIO, Message: message, Cause: cause}
}

// IsNotFoundError checks if the error is a schedule not-found error.
func IsNotFoundError(err error) bool {
	var scheduleErr *ScheduleError
	if errors.As(err, &scheduleErr) {
		return scheduleErr.Code == ErrScheduleNotFound
	}
	return false
}

// IsCollisionError checks if the error is a schedule collision error.
func IsCollisionError(err error) bool {
	var scheduleErr *ScheduleError
	if errors.As(err, &scheduleErr) {
		return scheduleErr.Code == ErrScheduleCollision
	}
	return false
}

// IsValidationError checks if the error is a schedule validation error.
func IsValidationError(err error) bool {
	var scheduleErr *ScheduleError
	if errors.As(err, &scheduleErr) {
		return scheduleErr.Code == ErrScheduleValidation
	}
	return false
}
