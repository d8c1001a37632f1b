package common

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a stable error category reported to users and the API
type ErrorCode string

const (
	CodeInvalidInput      ErrorCode = "INVALID_INPUT"
	CodeConfigError       ErrorCode = "CONFIG_ERROR"
	CodeGitError          ErrorCode = "GIT_ERROR"
	CodeModelNotAvailable ErrorCode = "MODEL_NOT_AVAILABLE"
	CodeQualityGateFailed ErrorCode = "QUALITY_GATE_FAILED"
	CodeParseError        ErrorCode = "PARSE_ERROR"
	CodeRuntimeError      ErrorCode = "RUNTIME_ERROR"
)

// AppError is the application error type carried across package boundaries.
// Code is stable machine-readable category, Message is human-readable, Hint
// is an optional remediation suggestion surfaced in CLI and API output.
type AppError struct {
	Code    ErrorCode
	Message string
	Hint    string
	cause   error
}

// NewAppError creates an AppError wrapping an optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// WithHint attaches a remediation hint and returns the error for chaining
func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains
func (e *AppError) Unwrap() error {
	return e.cause
}

// CodeOf extracts the ErrorCode from an error chain, defaulting to RUNTIME_ERROR
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeRuntimeError
}

// HintOf extracts the hint from an error chain, empty when none is set
func HintOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Hint
	}
	return ""
}

// ExitCodeFor maps error codes to process exit codes for the CLI
func ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeInvalidInput:
		return 2
	case CodeConfigError:
		return 3
	case CodeQualityGateFailed:
		return 4
	case CodeModelNotAvailable:
		return 5
	default:
		return 1
	}
}
