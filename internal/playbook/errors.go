package playbook

import (
	"errors"
	"fmt"
)

// PlaybookErrorCode represents specific playbook error types.
type PlaybookErrorCode string

const (
	// ErrPlaybookNotFound indicates the playbook file was not found.
	ErrPlaybookNotFound PlaybookErrorCode = "playbook_not_found"

	// ErrPlaybookNameCollision indicates a playbook with the same name
	// already exists on disk.
	ErrPlaybookNameCollision PlaybookErrorCode = "name_collision"

	// ErrPlaybookValidation indicates playbook input validation failed.
	ErrPlaybookValidation PlaybookErrorCode = "validation_failed"

	// ErrPlaybookParse indicates the playbook file could not be parsed.
	ErrPlaybookParse PlaybookErrorCode = "parse_failed"

	// ErrPlaybookEmptySequence indicates a run was requested for a
	// playbook with no steps.
	ErrPlaybookEmptySequence PlaybookErrorCode = "empty_sequence"

	// ErrPlaybookIO indicates a filesystem read or write failed.
	ErrPlaybookIO PlaybookErrorCode = "io_error"
)

// PlaybookError represents a playbook-specific error with code and context.
// It implements the error interface and supports error wrapping with
// errors.Is/As.
type PlaybookError struct {
	// Code identifies the specific error type.
	Code PlaybookErrorCode

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error that caused this error (optional).
	Cause error

	// Context provides additional contextual information about the error.
	Context map[string]any
}

// Error implements the error interface.
func (e *PlaybookError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain traversal.
func (e *PlaybookError) Unwrap() error {
	return e.Cause
}

// Is implements the errors.Is interface for error comparison.
// Two PlaybookErrors are equal if they have the same error code.
func (e *PlaybookError) Is(target error) bool {
	var pbErr *PlaybookError
	if errors.As(target, &pbErr) {
		return e.Code == pbErr.Code
	}
	return false
}

// WithContext adds contextual information to the error.
func (e *PlaybookError) WithContext(key string, value any) *PlaybookError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// NewPlaybookError creates a new PlaybookError with the given code and message.
func NewPlaybookError(code PlaybookErrorCode, message string) *PlaybookError {
	return &PlaybookError{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
	}
}

// WrapPlaybookError wraps an existing error with playbook error context.
func WrapPlaybookError(code PlaybookErrorCode, message string, cause error) *PlaybookError {
	return &PlaybookError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// NewNotFoundError creates a playbook not found error.
func NewNotFoundError(name string) *PlaybookError {
	return NewPlaybookError(ErrPlaybookNotFound, fmt.Sprintf("playbook not found: %s", name)).
		WithContext("playbook", name)
}

// NewNameCollisionError creates a name collision error.
func NewNameCollisionError(name string) *PlaybookError {
	return NewPlaybookError(ErrPlaybookNameCollision, fmt.Sprintf("a playbook named %q already exists", name)).
		WithContext("playbook", name)
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *PlaybookError {
	return NewPlaybookError(ErrPlaybookValidation, message)
}

// NewParseError creates a parse error wrapping the decoder failure.
func NewParseError(cause error) *PlaybookError {
	return WrapPlaybookError(ErrPlaybookParse, "failed to parse playbook", cause)
}

// NewEmptySequenceError creates an empty sequence error.
func NewEmptySequenceError(name string) *PlaybookError {
	return NewPlaybookError(ErrPlaybookEmptySequence, fmt.Sprintf("playbook %s has no steps", name)).
		WithContext("playbook", name)
}

// IsNotFoundError checks if an error is a playbook not found error.
func IsNotFoundError(err error) bool {
	var pbErr *PlaybookError
	if errors.As(err, &pbErr) {
		return pbErr.Code == ErrPlaybookNotFound
	}
	return false
}

// IsNameCollisionError checks if an error is a name collision error.
func IsNameCollisionError(err error) bool {
	var pbErr *PlaybookError
	if errors.As(err, &pbErr) {
		return pbErr.Code == ErrPlaybookNameCollision
	}
	return false
}

// IsValidationError checks if an error is a validation error.
func IsValidationError(err error) bool {
	var pbErr *PlaybookError
	if errors.As(err, &pbErr) {
		return pbErr.Code == ErrPlaybookValidation
	}
	return false
}

// IsParseError checks if an error is a parse error.
func IsParseError(err error) bool {
	var pbErr *PlaybookError
	if errors.As(err, &pbErr) {
		return pbErr.Code == ErrPlaybookParse
	}
	return false
}
