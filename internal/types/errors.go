package types

import (
	"errors"
	"fmt"
)

// ErrorCode is a namespaced error code for rehearse errors.
type ErrorCode string

// Playbook error codes
const (
	PLAYBOOK_NOT_FOUND   ErrorCode = "PLAYBOOK_NOT_FOUND"
	PLAYBOOK_LOAD_FAILED ErrorCode = "PLAYBOOK_LOAD_FAILED"
	PLAYBOOK_INVALID     ErrorCode = "PLAYBOOK_INVALID"
)

// Session and incident error codes
const (
	SESSION_NOT_FOUND  ErrorCode = "SESSION_NOT_FOUND"
	SESSION_CONFLICT   ErrorCode = "SESSION_CONFLICT"
	INCIDENT_NOT_FOUND ErrorCode = "INCIDENT_NOT_FOUND"
	NODE_NOT_FOUND     ErrorCode = "NODE_NOT_FOUND"
)

// Engine error codes
const (
	INVALID_TRANSITION ErrorCode = "INVALID_TRANSITION"
)

// Storage error codes
const (
	STORE_OPEN_FAILED      ErrorCode = "STORE_OPEN_FAILED"
	STORE_IO_FAILED        ErrorCode = "STORE_IO_FAILED"
	STORE_MIGRATION_FAILED ErrorCode = "STORE_MIGRATION_FAILED"
)

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Error is a structured error with a code, message, and optional cause.
// It supports error wrapping and carries a retryability hint so callers can
// distinguish transient storage failures from caller bugs.
type Error struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if a cause exists.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches target by error code.
func (e *Error) Is(target error) bool {
	var re *Error
	if errors.As(target, &re) {
		return e.Code == re.Code
	}
	return false
}

// NewError creates a non-retryable Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a non-retryable Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates a non-retryable Error that wraps cause.
func WrapError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// WrapRetryable creates a retryable Error that wraps cause. Use it for
// transient storage failures where a retry by the caller may succeed.
func WrapRetryable(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Retryable: true, Cause: cause}
}

// CodeOf extracts the ErrorCode from err, or "" when err is not an *Error.
func CodeOf(err error) ErrorCode {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

// IsNotFound reports whether err carries one of the not-found codes.
func IsNotFound(err error) bool {
	switch CodeOf(err) {
	case PLAYBOOK_NOT_FOUND, SESSION_NOT_FOUND, INCIDENT_NOT_FOUND, NODE_NOT_FOUND:
		return true
	default:
		return false
	}
}

// IsConflict reports whether err is a duplicate-active-session conflict.
func IsConflict(err error) bool {
	return CodeOf(err) == SESSION_CONFLICT
}

// IsInvalidTransition reports whether err is an invalid workflow transition.
func IsInvalidTransition(err error) bool {
	return CodeOf(err) == INVALID_TRANSITION
}
