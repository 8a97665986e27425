package generation

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the generation package
var (
	// ErrInvalidResponse is returned when the LLM response cannot be parsed or is malformed
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrRateLimited is matched by every RateLimitError
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrUpstream is matched by every UpstreamError
	ErrUpstream = errors.New("language model request failed")

	// ErrEmptyGoal is returned when the goal text is empty after trimming
	ErrEmptyGoal = errors.New("goal text cannot be empty")

	// ErrInvalidConfig is returned when the generator configuration is invalid
	ErrInvalidConfig = errors.New("invalid generator configuration")
)

// RateLimitError is returned when the local governor rejects a request
// before any upstream call is made.
type RateLimitError struct {
	// Reason is the user-facing rejection reason, e.g. "wait ~12 seconds".
	Reason string

	// RetryAfter is a hint for clients; zero when no estimate exists.
	RetryAfter time.Duration
}

// Error implements the error interface for RateLimitError.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %s", e.Reason)
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// UpstreamError is a terminal failure reported by the external model,
// already classified. It is never retried.
type UpstreamError struct {
	Kind ErrorKind

	// Message is safe to show to end users.
	Message string

	// Raw is the provider's original error text, kept for logs.
	Raw string
}

// Error returns the user-facing message.
func (e *UpstreamError) Error() string {
	return e.Message
}

// Is reports whether target is ErrUpstream.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

func newUpstreamError(c ClassifiedError) *UpstreamError {
	return &UpstreamError{
		Kind:    c.Kind,
		Message: c.Message,
		Raw:     c.Original,
	}
}
