package technique

import (
	"encoding/json"
	"fmt"
)

// ExecutionStatus represents the outcome of a single technique execution.
// It is a closed set: techniques collapse every expected failure mode into
// one of these values rather than propagating faults to the caller.
type ExecutionStatus string

const (
	// StatusSuccess indicates the technique completed as intended.
	StatusSuccess ExecutionStatus = "success"

	// StatusPartialSuccess indicates the technique ran but produced
	// degraded or unexpected output.
	StatusPartialSuccess ExecutionStatus = "partial_success"

	// StatusFailure indicates a known, handled failure mode such as an
	// auth failure, permission denial, or timeout.
	StatusFailure ExecutionStatus = "failure"

	// StatusError indicates an unexpected fault that was caught and
	// converted so the run could continue.
	StatusError ExecutionStatus = "error"
)

// String returns the string representation of ExecutionStatus.
func (s ExecutionStatus) String() string {
	return string(s)
}

// IsValid checks if the ExecutionStatus is a valid value.
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case StatusSuccess, StatusPartialSuccess, StatusFailure, StatusError:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler.
func (s ExecutionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status := ExecutionStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid execution status: %s", str)
	}

	*s = status
	return nil
}

// ExecutionResult is the output contract of a technique invocation.
// A fresh value is produced by every invocation and never mutated after
// return.
type ExecutionResult struct {
	// Status is the outcome tag the engine switches on.
	Status ExecutionStatus `json:"status"`

	// Message is a human-readable summary of the outcome.
	Message string `json:"message"`

	// Value holds arbitrary structured output for successful runs.
	Value any `json:"value,omitempty"`

	// ErrorDetail carries failure detail for failure and error outcomes.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// NewSuccessResult creates a success result with a message and structured value.
func NewSuccessResult(message string, value any) ExecutionResult {
	return ExecutionResult{
		Status:  StatusSuccess,
		Message: message,
		Value:   value,
	}
}

// NewPartialSuccessResult creates a partial-success result for runs that
// completed with degraded output.
func NewPartialSuccessResult(message string, value any) ExecutionResult {
	return ExecutionResult{
		Status:  StatusPartialSuccess,
		Message: message,
		Value:   value,
	}
}

// NewFailureResult creates a failure result for a known, handled failure mode.
func NewFailureResult(message, detail string) ExecutionResult {
	return ExecutionResult{
		Status:      StatusFailure,
		Message:     message,
		ErrorDetail: detail,
	}
}

// NewErrorResult creates an error result for an unexpected, converted fault.
func NewErrorResult(message, detail string) ExecutionResult {
	return ExecutionResult{
		Status:      StatusError,
		Message:     message,
		ErrorDetail: detail,
	}
}
