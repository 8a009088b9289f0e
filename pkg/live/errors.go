package live

import (
	"errors"
	"fmt"
)

// Sentinel errors for the live package.
var (
	// ErrMissingAPIKey indicates the API key was not provided.
	ErrMissingAPIKey = errors.New("live: API key is required")

	// ErrMissingModel indicates no model name was configured.
	ErrMissingModel = errors.New("live: model is required")

	// ErrNotConnected indicates the session is not open yet.
	ErrNotConnected = errors.New("live: not connected")

	// ErrClosed indicates the session was closed.
	ErrClosed = errors.New("live: session closed")

	// ErrUnknownTransport indicates no dialer is registered under a name.
	ErrUnknownTransport = errors.New("live: unknown transport")
)

// ConnectionError represents a failure to open or keep a session.
type ConnectionError struct {
	// Reason describes what failed.
	Reason string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("live: connection error: %s: %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("live: connection error: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// NewConnectionError creates a new ConnectionError.
func NewConnectionError(reason string, cause error) *ConnectionError {
	return &ConnectionError{Reason: reason, Cause: cause}
}

// IsClosed returns true if the error indicates the session is gone.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed) || errors.Is(err, ErrNotConnected)
}
