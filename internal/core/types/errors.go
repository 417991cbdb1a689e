package types

import "errors"

// ErrorKind classifies failures that cross a subsystem boundary. The
// propagation policy lives in the packages that raise/catch these, not
// here: actuators/tools/dispatcher/runner/swarm each decide what they let
// through versus contain.
type ErrorKind string

const (
	ErrAuthMissing         ErrorKind = "auth_missing"
	ErrPermissionDenied    ErrorKind = "permission_denied"
	ErrRateLimited         ErrorKind = "rate_limited"
	ErrActuatorFailure     ErrorKind = "actuator_failure"
	ErrStaleBrowserUID     ErrorKind = "stale_browser_uid"
	ErrBrowserNeedsRestart ErrorKind = "browser_needs_restart"
	ErrTimeout             ErrorKind = "timeout"
	ErrMaxIterations       ErrorKind = "max_iterations"
)

// CoreError wraps an ErrorKind with the underlying cause and a message
// meant to be shown to the operator or folded into a ToolResult.
type CoreError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *CoreError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *CoreError) Unwrap() error { return e.Cause }

// NewError constructs a CoreError of the given kind.
func NewError(kind ErrorKind, message string, cause error) *CoreError {
	return &CoreError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the ErrorKind from err if it (or something it wraps) is a
// *CoreError, reporting ok=false otherwise.
func KindOf(err error) (ErrorKind, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return "", false
}

// Is reports whether err carries the given ErrorKind.
func Is(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// IsCatastrophic reports whether kind is one of the two error classes the
// Single-Agent Loop is allowed to propagate all the way to its caller
// instead of folding into a ToolResult or subtask failure.
func IsCatastrophic(kind ErrorKind) bool {
	return kind == ErrAuthMissing || kind == ErrPermissionDenied
}
