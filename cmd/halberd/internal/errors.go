package internal

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vectra-ai-research/halberd/internal/playbook"
	"github.com/vectra-ai-research/halberd/internal/schedule"
	"github.com/vectra-ai-research/halberd/internal/types"
)

// Exit code constants for the CLI
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitError indicates a general error
	ExitError = 1
	// ExitTimeout indicates the operation timed out
	ExitTimeout = 3
	// ExitCancelled indicates the operation was cancelled
	ExitCancelled = 4
	// ExitConfigError indicates a configuration error
	ExitConfigError = 10
	// ExitPlaybookError indicates a playbook error
	ExitPlaybookError = 11
	// ExitDatabaseError indicates a database error
	ExitDatabaseError = 12
	// ExitScheduleError indicates a schedule error
	ExitScheduleError = 13
)

// CLIError represents a CLI-specific error with an exit code
type CLIError struct {
	Code    int
	Message string
	Cause   error
}

// Error implements the error interface
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// NewCLIError creates a new CLIError with the given code and message
func NewCLIError(code int, message string) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
	}
}

// WrapError creates a new CLIError wrapping an existing error
func WrapError(code int, message string, err error) *CLIError {
	return &CLIError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// HandleError handles an error and returns the appropriate exit code.
// It also prints the error message to the command's error output.
func HandleError(cmd *cobra.Command, err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, context.Canceled) {
		cmd.PrintErrln("Operation cancelled")
		return ExitCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		cmd.PrintErrln("Operation timed out")
		return ExitTimeout
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		cmd.PrintErrln("Error:", cliErr.Message)
		if cliErr.Cause != nil && verboseEnabled(cmd) {
			cmd.PrintErrln("Cause:", cliErr.Cause)
		}
		return cliErr.Code
	}

	var pbErr *playbook.PlaybookError
	if errors.As(err, &pbErr) {
		cmd.PrintErrln("Error:", pbErr.Error())
		return ExitPlaybookError
	}

	var schedErr *schedule.ScheduleError
	if errors.As(err, &schedErr) {
		cmd.PrintErrln("Error:", schedErr.Error())
		return ExitScheduleError
	}

	var halberdErr *types.HalberdError
	if errors.As(err, &halberdErr) {
		cmd.PrintErrln("Error:", halberdErr.Error())
		return mapHalberdErrorToExitCode(halberdErr)
	}

	cmd.PrintErrln("Error:", err)
	return ExitError
}

// mapHalberdErrorToExitCode maps error codes to CLI exit codes.
func mapHalberdErrorToExitCode(err *types.HalberdError) int {
	switch err.Code {
	case types.CONFIG_LOAD_FAILED, types.CONFIG_PARSE_FAILED, types.CONFIG_VALIDATION_FAILED:
		return ExitConfigError
	case types.DB_OPEN_FAILED, types.DB_MIGRATION_FAILED, types.DB_QUERY_FAILED:
		return ExitDatabaseError
	default:
		return ExitError
	}
}

func verboseEnabled(cmd *cobra.Command) bool {
	flag := cmd.Flag("verbose")
	return flag != nil && flag.Changed
}
