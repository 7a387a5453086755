package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Validation errors
	ErrEmptyOrder  = errors.New("empty order")
	ErrMissingItem = errors.New("menu item not found")

	// Network errors
	ErrRequestFailed    = errors.New("request failed")
	ErrConnectionFailed = errors.New("connection failed")
	ErrTimeout          = errors.New("operation timeout")

	// Authentication errors
	ErrUnauthenticated = errors.New("unauthenticated")

	// Push channel errors
	ErrChannelClosed = errors.New("status channel closed")

	// Session lifecycle errors
	ErrAlreadyStarted = errors.New("already started")
	ErrTerminated     = errors.New("session terminated")
	ErrSubmitInFlight = errors.New("order submission already in flight")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")
)

// SessionError provides structured error information with context.
// It implements the error interface and supports error wrapping.
type SessionError struct {
	Op      string // Operation that failed (e.g., "session.Submit")
	Kind    string // Error kind (e.g., "cart", "network", "auth")
	ID      string // Optional ID of the entity involved (order id, item id)
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *SessionError) Error() string {
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *SessionError) Unwrap() error {
	return e.Err
}

// NewSessionError creates a new SessionError
func NewSessionError(op, kind string, err error) *SessionError {
	return &SessionError{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// IsRetryable checks if an error is retryable.
// Retryable errors are transient network or channel failures that the
// ambient poll loop is expected to recover from.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRequestFailed) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrChannelClosed)
}

// IsAuthError checks if an error requires re-registration of the device
func IsAuthError(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}

// IsValidationError checks if an error is a local validation failure,
// raised before any network call
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyOrder) ||
		errors.Is(err, ErrMissingItem)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}
