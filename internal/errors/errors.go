package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies a failure so callers can decide between aborting and degrading.
type Code string

const (
	// ErrCodeAuthConfig: the credential source is malformed or incomplete. Fatal.
	ErrCodeAuthConfig Code = "AUTH_CONFIG"
	// ErrCodeAPI: an inventory call against the control plane failed. Fatal.
	ErrCodeAPI Code = "API"
	// ErrCodeMetricsUnavailable: the metrics API failed or returned nothing. Not fatal.
	ErrCodeMetricsUnavailable Code = "METRICS_UNAVAILABLE"
	// ErrCodeInvalidRequest: bad flags or configuration values.
	ErrCodeInvalidRequest Code = "INVALID_REQUEST"
	// ErrCodeInternal: rendering or writing the report failed.
	ErrCodeInternal Code = "INTERNAL"
)

// Pipeline phases reported in fatal messages.
const (
	PhaseCredentials = "credential resolution"
	PhaseInventory   = "inventory fetch"
	PhaseMetrics     = "metrics fetch"
	PhaseConfig      = "configuration"
	PhaseReport      = "report output"
)

// StructuredError carries a code, the pipeline phase that failed and the cause.
type StructuredError struct {
	Code    Code
	Phase   string
	Message string
	Cause   error
}

func (e *StructuredError) Error() string {
	prefix := fmt.Sprintf("[%s]", e.Code)
	if e.Phase != "" {
		prefix = fmt.Sprintf("[%s] %s failed", e.Code, e.Phase)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

func (e *StructuredError) Unwrap() error {
	return e.Cause
}

// New creates a StructuredError without an underlying cause.
func New(code Code, phase, message string) *StructuredError {
	return &StructuredError{Code: code, Phase: phase, Message: message}
}

// Wrap wraps cause with a code and phase.
func Wrap(code Code, phase, message string, cause error) *StructuredError {
	return &StructuredError{Code: code, Phase: phase, Message: message, Cause: cause}
}

// AuthConfig is shorthand for an ErrCodeAuthConfig error in the credential phase.
func AuthConfig(message string, cause error) *StructuredError {
	return Wrap(ErrCodeAuthConfig, PhaseCredentials, message, cause)
}

// API is shorthand for an ErrCodeAPI error in the inventory phase.
func API(message string, cause error) *StructuredError {
	return Wrap(ErrCodeAPI, PhaseInventory, message, cause)
}

// MetricsUnavailable is shorthand for an ErrCodeMetricsUnavailable error.
func MetricsUnavailable(message string, cause error) *StructuredError {
	return Wrap(ErrCodeMetricsUnavailable, PhaseMetrics, message, cause)
}

// CodeOf returns the code of the first StructuredError in err's chain, or "".
func CodeOf(err error) Code {
	var se *StructuredError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsCode reports whether err's chain contains a StructuredError with code.
func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// ExitCode maps an error to the process exit status:
// 0 success, 2 credential failure, 3 inventory failure, 1 anything else.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case ErrCodeAuthConfig:
		return 2
	case ErrCodeAPI:
		return 3
	default:
		return 1
	}
}
