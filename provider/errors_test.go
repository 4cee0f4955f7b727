package provider

import (
	"errors"
	"testing"
)

func TestStatusError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		sentinel  error
		retryable bool
	}{
		{"rate limited", 429, ErrRateLimited, true},
		{"server error", 500, ErrUnavailable, true},
		{"bad gateway", 502, ErrUnavailable, true},
		{"unauthorized", 401, ErrCredentialsNotFound, false},
		{"forbidden", 403, ErrCredentialsNotFound, false},
		{"bad request", 400, ErrInvalidRequest, false},
		{"not found", 404, ErrInvalidRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := StatusError("anthropic", tt.status)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("status %d: err = %v, want %v in chain", tt.status, err, tt.sentinel)
			}

			var perr *Error
			if !errors.As(err, &perr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if perr.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", perr.Retryable, tt.retryable)
			}
			if perr.Provider != "anthropic" {
				t.Errorf("Provider = %q", perr.Provider)
			}
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	err := &Error{Provider: "openai", Op: "complete", Err: ErrEmptyResponse}
	want := "openai complete: empty response"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	err = &Error{Op: "complete", Err: ErrEmptyResponse}
	want = "complete: empty response"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
