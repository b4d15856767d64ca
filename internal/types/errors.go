package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for Halberd framework errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Database error codes
const (
	DB_OPEN_FAILED      ErrorCode = "DB_OPEN_FAILED"
	DB_MIGRATION_FAILED ErrorCode = "DB_MIGRATION_FAILED"
	DB_QUERY_FAILED     ErrorCode = "DB_QUERY_FAILED"
)

// Initialization error codes
const (
	INIT_DIRS_FAILED   ErrorCode = "INIT_DIRS_FAILED"
	INIT_CONFIG_FAILED ErrorCode = "INIT_CONFIG_FAILED"
	INIT_DB_FAILED     ErrorCode = "INIT_DB_FAILED"
)

// Technique error codes
const (
	TECHNIQUE_NOT_FOUND  ErrorCode = "TECHNIQUE_NOT_FOUND"
	TECHNIQUE_DUPLICATE  ErrorCode = "TECHNIQUE_DUPLICATE"
	TECHNIQUE_VALIDATION ErrorCode = "TECHNIQUE_VALIDATION"
)

// HalberdError represents a structured error with error code, message, and optional cause.
// It supports error wrapping for error handling logic across the framework.
type HalberdError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface, returning a formatted error message.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *HalberdError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
// This enables using errors.Is() and errors.As() with wrapped errors.
func (e *HalberdError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
// Returns true if target is a HalberdError with the same Code.
func (e *HalberdError) Is(target error) bool {
	var halberdErr *HalberdError
	if errors.As(target, &halberdErr) {
		return e.Code == halberdErr.Code
	}
	return false
}

// NewError creates a new HalberdError with the given code and message.
func NewError(code ErrorCode, message string) *HalberdError {
	return &HalberdError{
		Code:    code,
		Message: message,
	}
}

// WrapError creates a new HalberdError that wraps an existing error.
// The wrapped error is accessible via Unwrap() for error chain inspection.
func WrapError(code ErrorCode, message string, cause error) *HalberdError {
	return &HalberdError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}
