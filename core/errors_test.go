package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestSessionErrorFormatting(t *testing.T) {
	err := &SessionError{Op: "session.Submit", Kind: "network", Err: ErrRequestFailed}
	want := "session.Submit: request failed"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	withID := &SessionError{Op: "session.MarkReady", Kind: "network", ID: "ord-42", Err: ErrRequestFailed}
	want = "session.MarkReady [ord-42]: request failed"
	if withID.Error() != want {
		t.Errorf("Error() = %q, want %q", withID.Error(), want)
	}

	msgOnly := &SessionError{Kind: "cart", Message: "cart has no items"}
	if msgOnly.Error() != "cart has no items" {
		t.Errorf("Error() = %q, want message", msgOnly.Error())
	}

	kindOnly := &SessionError{Kind: "channel"}
	if kindOnly.Error() != "channel error" {
		t.Errorf("Error() = %q, want kind fallback", kindOnly.Error())
	}
}

func TestSessionErrorUnwrap(t *testing.T) {
	err := NewSessionError("api.ListOrders", "network", ErrConnectionFailed)
	if !errors.Is(err, ErrConnectionFailed) {
		t.Error("expected errors.Is to find the wrapped sentinel")
	}

	var se *SessionError
	if !errors.As(err, &se) {
		t.Error("expected errors.As to find *SessionError")
	}
}

func TestErrorClassifiers(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		retryable  bool
		auth       bool
		validation bool
	}{
		{"request failed", fmt.Errorf("POST /order: %w", ErrRequestFailed), true, false, false},
		{"connection failed", ErrConnectionFailed, true, false, false},
		{"timeout", ErrTimeout, true, false, false},
		{"channel closed", ErrChannelClosed, true, false, false},
		{"unauthenticated", fmt.Errorf("GET /me/tab: %w", ErrUnauthenticated), false, true, false},
		{"empty order", ErrEmptyOrder, false, false, true},
		{"missing item", fmt.Errorf("pricing %q: %w", "latte", ErrMissingItem), false, false, true},
		{"terminated", ErrTerminated, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", got, tt.retryable)
			}
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError = %v, want %v", got, tt.auth)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError = %v, want %v", got, tt.validation)
			}
		})
	}
}
