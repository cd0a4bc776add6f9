package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while driving a run.
//
// Runtime errors include:
//   - Quota exceeded: the opt-in step limit was reached before halting
//   - Invalid input: strict mode rejected a working string
//   - Record failed: the trace recorder returned an error
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// Seq is the step at which the error occurred, or 0.
	Seq int64

	// Details contains additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeQuotaExceeded indicates the run exceeded its max steps.
	ErrCodeQuotaExceeded RuntimeErrorCode = "QUOTA_EXCEEDED"

	// ErrCodeInvalidInput indicates a working string has characters outside the alphabet.
	ErrCodeInvalidInput RuntimeErrorCode = "INVALID_INPUT"

	// ErrCodeRecordFailed indicates the recorder rejected a trace record.
	ErrCodeRecordFailed RuntimeErrorCode = "RECORD_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Seq > 0 {
		msg = fmt.Sprintf("%s (seq=%d)", msg, e.Seq)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsQuotaError returns true if the error is a quota exceeded error.
// Matches both RuntimeError with ErrCodeQuotaExceeded and StepsExceededError.
func IsQuotaError(err error) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == ErrCodeQuotaExceeded
	}
	var se *StepsExceededError
	return errors.As(err, &se)
}

// IsInvalidInputError returns true if strict mode rejected a working string.
func IsInvalidInputError(err error) bool {
	var re *RuntimeError
	return errors.As(err, &re) && re.Code == ErrCodeInvalidInput
}

// NewInvalidInputError creates a RuntimeError for a working string with
// characters outside the alphabet.
func NewInvalidInputError(foreign []rune) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidInput,
		Message: fmt.Sprintf("working string contains characters outside the alphabet: %q", string(foreign)),
		Details: map[string]string{
			"foreign": string(foreign),
		},
	}
}

// NewRecordError creates a RuntimeError for a failed recorder call.
func NewRecordError(seq int64, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeRecordFailed,
		Message: "trace recorder failed",
		Seq:     seq,
		Err:     err,
	}
}
