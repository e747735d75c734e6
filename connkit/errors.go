package connkit

import (
	"errors"
	"fmt"
)

// ConnectionError categorizes why a connection attempt failed. Values are
// data carried alongside StateFailed transitions, never thrown; the zero
// value ErrorNone means "no recorded failure".
type ConnectionError int

const (
	ErrorNone ConnectionError = iota

	// ErrorServerUnreachable means the backend did not answer at all.
	ErrorServerUnreachable

	// ErrorTimeout means the backend answered too slowly.
	ErrorTimeout

	// ErrorAuthExpired means the session or credentials lapsed and the
	// caller must re-authenticate before reconnecting.
	ErrorAuthExpired

	// ErrorWalletUnavailable means the ledger-side signing provider could
	// not be reached or refused the connection.
	ErrorWalletUnavailable

	// ErrorNetworkLost means local connectivity dropped mid-session.
	ErrorNetworkLost

	// ErrorProtocolMismatch means the backend speaks an incompatible
	// protocol version.
	ErrorProtocolMismatch
)

// String returns the string representation of a ConnectionError.
func (e ConnectionError) String() string {
	switch e {
	case ErrorNone:
		return "none"
	case ErrorServerUnreachable:
		return "server_unreachable"
	case ErrorTimeout:
		return "timeout"
	case ErrorAuthExpired:
		return "auth_expired"
	case ErrorWalletUnavailable:
		return "wallet_unavailable"
	case ErrorNetworkLost:
		return "network_lost"
	case ErrorProtocolMismatch:
		return "protocol_mismatch"
	default:
		return fmt.Sprintf("unknown_code_%d", e)
	}
}

// Error is a structured error with a connection error code and context,
// for probes, retry wrappers, and callers that need errors.Is/As support.
type Error struct {
	Code    ConnectionError
	Message string
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s (wrapped: %v)", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Unwrap support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is comparison by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a new Error with the given code and message.
func NewError(code ConnectionError, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with a connection error code.
func WrapError(code ConnectionError, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Wrapped: err,
	}
}

// CodeOf extracts the ConnectionError code from err, or ErrorNone if err
// carries no code.
func CodeOf(err error) ConnectionError {
	if err == nil {
		return ErrorNone
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrorNone
}
