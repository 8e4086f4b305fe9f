// Package errors provides the typed error taxonomy shared by the reskit
// components: configuration, migration and pool failures raised during
// lifecycle transitions, and the caller-fault / system-fault split used by
// the command fault-isolation layer.
package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors for the reskit error taxonomy ---

// Configuration creates an error for a missing or invalid configuration option.
func Configuration(message string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: message,
		Retryable: false,
	}
}

// Migration creates an error for a failed schema migration.
func Migration(cause error) *AppError {
	return &AppError{
		Code: ErrCodeMigrationFailed, Message: "Schema migration failed.",
		Retryable: false, Cause: cause,
	}
}

// PoolUnavailable creates an error for a failed pool construction or checkout.
func PoolUnavailable(message string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePoolUnavailable, Message: message,
		Retryable: true, Cause: cause,
	}
}

// NotRunning creates an error for a resource used outside its started state.
func NotRunning(resource string) *AppError {
	return &AppError{
		Code: ErrCodeNotRunning, Message: fmt.Sprintf("The %s is not running.", resource),
		Retryable: false,
		Details:   map[string]any{"resource": resource},
	}
}

// CallerFault creates an error classified as the caller's responsibility.
// The message comes from the classification predicate.
func CallerFault(message string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCallerFault, Message: message,
		Retryable: false, Cause: cause,
	}
}

// SystemFault creates an error classified as systemic, preserving the original
// error for errors.Is/As inspection.
func SystemFault(cause error) *AppError {
	return &AppError{
		Code: ErrCodeSystemFault, Message: "Operation failed.",
		Retryable: true, Cause: cause,
	}
}

// CircuitOpen creates an error for a call rejected by an open circuit.
func CircuitOpen(command string) *AppError {
	return &AppError{
		Code: ErrCodeCircuitOpen, Message: fmt.Sprintf("Circuit for %s is open; request rejected.", command),
		Retryable: true,
		Details:   map[string]any{"command": command},
	}
}

// --- Inspection helpers ---

// CodeOf extracts the ErrorCode from an error chain, or "" if none is present.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsCallerFault reports whether the error is classified as the caller's fault.
func IsCallerFault(err error) bool { return CodeOf(err) == ErrCodeCallerFault }

// IsSystemFault reports whether the error is classified as systemic.
func IsSystemFault(err error) bool { return CodeOf(err) == ErrCodeSystemFault }

// IsConfiguration reports whether the error is a configuration failure.
func IsConfiguration(err error) bool { return CodeOf(err) == ErrCodeConfigInvalid }

// IsNotRunning reports whether the error indicates a stopped resource.
func IsNotRunning(err error) bool { return CodeOf(err) == ErrCodeNotRunning }

// IsRetryable reports whether the error may succeed on a later attempt.
func IsRetryable(err error) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Retryable
	}
	return false
}
