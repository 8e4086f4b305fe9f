package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Lifecycle / startup errors
const (
	// ErrCodeConfigInvalid indicates a required configuration option is
	// missing or malformed. Raised before any I/O is attempted.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeMigrationFailed indicates a schema migration could not be applied.
	ErrCodeMigrationFailed ErrorCode = "MIGRATION_FAILED"
	// ErrCodePoolUnavailable indicates the connection pool could not be
	// constructed or a connection could not be checked out.
	ErrCodePoolUnavailable ErrorCode = "POOL_UNAVAILABLE"
	// ErrCodeNotRunning indicates a resource was used after Stop or before Start.
	ErrCodeNotRunning ErrorCode = "NOT_RUNNING"
)

// Fault-isolation errors
const (
	// ErrCodeCallerFault indicates the failure is the caller's responsibility
	// (e.g. invalid input). Excluded from circuit breaker accounting.
	ErrCodeCallerFault ErrorCode = "CALLER_FAULT"
	// ErrCodeSystemFault indicates a systemic failure. Counted toward circuit
	// breaker trip statistics.
	ErrCodeSystemFault ErrorCode = "SYSTEM_FAULT"
	// ErrCodeCircuitOpen indicates the circuit is open and the call was
	// rejected without invoking the underlying operation.
	ErrCodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"
)

// retryableCodes are codes that may succeed on a later attempt.
var retryableCodes = map[ErrorCode]bool{
	ErrCodePoolUnavailable: true,
	ErrCodeSystemFault:     true,
	ErrCodeCircuitOpen:     true,
}

// IsRetryableCode reports whether the given code represents a transient condition.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
