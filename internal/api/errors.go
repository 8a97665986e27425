package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goalbreaker/goalbreaker-api/internal/api/shared"
	"github.com/goalbreaker/goalbreaker-api/internal/domain"
	"github.com/goalbreaker/goalbreaker-api/internal/export"
	"github.com/goalbreaker/goalbreaker-api/internal/generation"
	"github.com/goalbreaker/goalbreaker-api/internal/service"
	"github.com/goalbreaker/goalbreaker-api/internal/store"
)

// Generic messages for failures whose details must not reach clients.
const (
	msgUnexpected        = "An unexpected error occurred"
	msgTemporaryFailure  = "The AI service failed temporarily, try again"
	msgGoalNotFound      = "Goal not found"
	msgInvalidRequest    = "Invalid request format"
	msgValidationFailed  = "Validation error"
	msgStoreUnavailable  = "Database unavailable"
	msgUnsupportedFormat = "Unsupported export format"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	var (
		rl       *generation.RateLimitError
		upstream *generation.UpstreamError
		verr     validator.ValidationErrors
	)

	switch {
	case err == nil:
		return http.StatusOK

	// Validation errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrEmptyContent),
		errors.Is(err, generation.ErrEmptyGoal),
		errors.Is(err, service.ErrInvalidGoalID),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, shared.ErrEmptyBody),
		errors.As(err, &verr):
		return http.StatusBadRequest

	// Not found errors
	case errors.Is(err, service.ErrGoalNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Local rate limiter rejection
	case errors.As(err, &rl):
		return http.StatusTooManyRequests

	// Classified upstream failures
	case errors.As(err, &upstream):
		return upstreamStatus(upstream.Kind)

	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable

	// Retry budget spent on transient failures
	case errors.Is(err, service.ErrBreakdownFailed):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// upstreamStatus maps a terminal upstream category to a status code.
func upstreamStatus(kind generation.ErrorKind) int {
	switch kind {
	case generation.KindQuotaExhausted, generation.KindRateLimited:
		return http.StatusTooManyRequests
	case generation.KindInvalidModel, generation.KindBadRequest:
		return http.StatusBadRequest
	case generation.KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return msgUnexpected
	}

	var (
		rl       *generation.RateLimitError
		upstream *generation.UpstreamError
		vErr     *domain.ValidationError
		verr     validator.ValidationErrors
	)

	switch {
	case errors.As(err, &rl):
		return "Rate limit exceeded: " + rl.Reason

	case errors.As(err, &upstream):
		return upstream.Message

	case errors.As(err, &vErr):
		return fmt.Sprintf("Invalid %s: %s", vErr.Field, vErr.Message)

	case errors.As(err, &verr):
		return SanitizeValidationError(verr)

	case errors.Is(err, generation.ErrEmptyGoal):
		return "Goal title is required"

	case errors.Is(err, service.ErrInvalidGoalID):
		return "Invalid goal id"

	case errors.Is(err, service.ErrGoalNotFound), errors.Is(err, store.ErrNotFound):
		return msgGoalNotFound

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid goal data"

	case errors.Is(err, export.ErrUnsupportedFormat):
		return msgUnsupportedFormat

	case errors.Is(err, shared.ErrEmptyBody):
		return "Request body is required"

	case errors.Is(err, store.ErrUnavailable):
		return msgStoreUnavailable

	case errors.Is(err, service.ErrBreakdownFailed):
		return msgTemporaryFailure

	default:
		return msgUnexpected
	}
}

// retryAfterPattern extracts the seconds from a governor reason such as "wait ~12 seconds".
var retryAfterPattern = regexp.MustCompile(`~(\d+) seconds?`)

// RetryAfter returns the Retry-After header value for a rate limit error.
func RetryAfter(err error) (string, bool) {
	var rl *generation.RateLimitError
	if !errors.As(err, &rl) {
		return "", false
	}
	if rl.RetryAfter > 0 {
		return strconv.Itoa(int((rl.RetryAfter + time.Second - 1) / time.Second)), true
	}
	if m := retryAfterPattern.FindStringSubmatch(rl.Reason); m != nil {
		return m[1], true
	}
	return "", false
}

// SanitizeValidationError turns validator errors into a short message naming
// the first failing field.
func SanitizeValidationError(err error) string {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) || len(verr) == 0 {
		return msgValidationFailed
	}

	fe := verr[0]
	return fmt.Sprintf("Invalid %s: %s", strings.ToLower(fe.Field()), getValidationTagMessage(fe.Tag()))
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// HandleAPIError writes the status and safe message for err and logs the
// redacted details. fallback replaces the derived message when not empty.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if fallback != "" && message == msgUnexpected {
		message = fallback
	}

	var opts []shared.ResponseOption
	if v, ok := RetryAfter(err); ok {
		opts = append(opts, shared.WithHeader("Retry-After", v))
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}
