package service

import (
	"errors"
	"fmt"

	"github.com/goalbreaker/goalbreaker-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to HTTP status codes.
var (
	// ErrGoalNotFound indicates that the goal does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrGoalNotFound = errors.New("goal not found")

	// ErrInvalidGoalID indicates a non-positive goal id.
	ErrInvalidGoalID = errors.New("invalid goal id")

	// ErrBreakdownFailed wraps every generator failure. Typed generator
	// errors stay reachable through errors.As.
	ErrBreakdownFailed = errors.New("goal breakdown failed")
)

// GoalServiceError wraps errors from the goal service with context.
type GoalServiceError struct {
	// Operation is the operation that failed (e.g., "create_goal", "update_goal")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for GoalServiceError.
func (e *GoalServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("goal service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("goal service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *GoalServiceError) Unwrap() error {
	return e.Err
}

// NewGoalServiceError creates a new GoalServiceError.
// Missing goals come back as ErrGoalNotFound without wrapping.
func NewGoalServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrGoalNotFound) || errors.Is(err, store.ErrGoalNotFound) {
		return ErrGoalNotFound
	}

	return &GoalServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
