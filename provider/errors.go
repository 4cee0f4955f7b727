package provider

import (
	"errors"
	"fmt"
)

// Sentinel errors for provider operations.
var (
	// ErrUnknownProvider indicates the requested provider is not registered.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrCredentialsNotFound indicates no API key is configured.
	ErrCredentialsNotFound = errors.New("credentials not found")

	// ErrUnavailable indicates the provider service is unavailable.
	ErrUnavailable = errors.New("provider unavailable")

	// ErrRateLimited indicates the request was rate limited.
	ErrRateLimited = errors.New("rate limited")

	// ErrInvalidRequest indicates the request was rejected as malformed.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrEmptyResponse indicates the provider returned no content.
	ErrEmptyResponse = errors.New("empty response")
)

// Error wraps provider errors with context.
type Error struct {
	Provider  string // Provider name ("anthropic", "openai", ...)
	Op        string // Operation that failed ("complete")
	Err       error  // Underlying error
	Retryable bool   // Whether the error is likely transient
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// StatusError maps an HTTP status code to the closest sentinel.
func StatusError(provider string, status int) error {
	var err error
	retryable := false
	switch {
	case status == 429:
		err, retryable = ErrRateLimited, true
	case status >= 500:
		err, retryable = ErrUnavailable, true
	case status == 401 || status == 403:
		err = ErrCredentialsNotFound
	default:
		err = ErrInvalidRequest
	}
	return &Error{
		Provider:  provider,
		Op:        "complete",
		Err:       fmt.Errorf("http %d: %w", status, err),
		Retryable: retryable,
	}
}
