package errors

import (
	stderrors "errors"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := Configuration("database user is required")
	want := "CONFIG_INVALID: database user is required"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAppError_ErrorWithCause(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")
	err := PoolUnavailable("Unable to establish an initial database connection.", cause)

	if got := err.Error(); got == "" || !stderrors.Is(err, cause) {
		t.Errorf("expected cause preserved in chain, got %q", got)
	}
}

func TestSystemFault_UnwrapsToOriginal(t *testing.T) {
	original := stderrors.New("disk full")
	err := SystemFault(original)

	if !stderrors.Is(err, original) {
		t.Error("SystemFault must unwrap to the original error")
	}
	if !IsSystemFault(err) {
		t.Error("expected IsSystemFault to match")
	}
}

func TestCallerFault(t *testing.T) {
	cause := stderrors.New("invalid input")
	err := CallerFault("the submitted payload is invalid", cause)

	if !IsCallerFault(err) {
		t.Error("expected IsCallerFault to match")
	}
	if err.Retryable {
		t.Error("caller faults are not retryable")
	}
	if !stderrors.Is(err, cause) {
		t.Error("caller fault must preserve the classified error")
	}
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{Configuration("missing"), ErrCodeConfigInvalid},
		{Migration(stderrors.New("boom")), ErrCodeMigrationFailed},
		{NotRunning("database connection pool"), ErrCodeNotRunning},
		{CircuitOpen("cmd-save"), ErrCodeCircuitOpen},
		{stderrors.New("plain"), ""},
		{nil, ""},
	}

	for _, tt := range tests {
		if got := CodeOf(tt.err); got != tt.want {
			t.Errorf("CodeOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRetryableClassification(t *testing.T) {
	if !IsRetryable(PoolUnavailable("down", nil)) {
		t.Error("pool unavailability is retryable")
	}
	if !IsRetryable(CircuitOpen("cmd-save")) {
		t.Error("an open circuit is retryable after cool-down")
	}
	if IsRetryable(Configuration("missing key")) {
		t.Error("configuration errors need operator intervention")
	}
	if IsRetryable(Migration(stderrors.New("bad script"))) {
		t.Error("migration failures are not retried automatically")
	}
}

func TestWithDetail(t *testing.T) {
	err := NotRunning("database connection pool").WithDetail("partition", 2)

	if err.Details["partition"] != 2 {
		t.Errorf("expected detail set, got %v", err.Details)
	}
	if err.Details["resource"] != "database connection pool" {
		t.Errorf("expected constructor details preserved, got %v", err.Details)
	}
}

func TestWrappedCodeDetection(t *testing.T) {
	inner := Configuration("missing key")
	wrapped := SystemFault(inner)

	// CodeOf reports the outermost code.
	if got := CodeOf(wrapped); got != ErrCodeSystemFault {
		t.Errorf("expected SYSTEM_FAULT, got %q", got)
	}
	if !IsConfiguration(stderrors.Unwrap(wrapped)) {
		t.Error("expected inner CONFIG_INVALID after unwrap")
	}
}
