package generation

import "strings"

// ErrorKind tags the category of a failed model call.
type ErrorKind int

// Error kinds, in no particular order. KindUnclassified is the zero value.
const (
	KindUnclassified ErrorKind = iota
	KindMalformedResponse
	KindQuotaExhausted
	KindRateLimited
	KindInvalidModel
	KindBadRequest
	KindPermissionDenied
	KindServerError
	KindServiceUnavailable
	KindNetworkError
)

// String returns the snake_case name used in logs and metrics.
func (k ErrorKind) String() string {
	switch k {
	case KindMalformedResponse:
		return "malformed_response"
	case KindQuotaExhausted:
		return "quota_exhausted"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidModel:
		return "invalid_model"
	case KindBadRequest:
		return "bad_request"
	case KindPermissionDenied:
		return "permission_denied"
	case KindServerError:
		return "server_error"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindNetworkError:
		return "network_error"
	default:
		return "unclassified"
	}
}

// User-facing messages for classified upstream failures.
const (
	MsgInvalidModel       = "selected model unavailable, choose another"
	MsgNotFound           = "requested AI resource was not found"
	MsgQuotaExhausted     = "daily free-tier limit reached"
	MsgRateLimited        = "too many requests, wait and retry"
	MsgUpstreamBusy       = "AI service is rate limiting requests, try again shortly"
	MsgRegionUnavailable  = "AI service is not available for this region or billing plan"
	MsgMalformedRequest   = "request to the AI service was malformed"
	MsgBadRequest         = "AI service rejected the request"
	MsgPermissionDenied   = "AI service denied access, check the API key permissions"
	MsgInvalidAPIKey      = "AI service API key is invalid or missing"
	MsgServerError        = "AI service had an internal error, try again later"
	MsgServiceUnavailable = "AI service is temporarily unavailable, try again later"
	MsgNetworkError       = "could not reach the AI service, check the connection"
)

// maxUnclassifiedLen bounds the message of an unclassified failure.
const maxUnclassifiedLen = 200

// ClassifiedError is the result of inspecting a raw upstream failure.
type ClassifiedError struct {
	Kind ErrorKind

	// Original is the untouched error text.
	Original string

	// Message is the derived user-facing message.
	Message string
}

// Retryable reports whether another attempt may succeed. Only unrecognized
// failures and malformed responses are retried; every recognized upstream
// category is terminal.
func (c ClassifiedError) Retryable() bool {
	return c.Kind == KindUnclassified || c.Kind == KindMalformedResponse
}

// Classify maps raw error text to a ClassifiedError. Matching is
// case-insensitive and the first matching rule wins: 404, 429, 400, 403,
// 500, 503, then keyword fallbacks.
func Classify(raw string) ClassifiedError {
	text := strings.ToLower(raw)
	c := ClassifiedError{Original: raw}

	switch {
	case strings.Contains(text, "404"):
		c.Kind = KindInvalidModel
		c.Message = MsgNotFound
		if containsAny(text, "not found", "not supported") {
			c.Message = MsgInvalidModel
		}

	case strings.Contains(text, "429"):
		switch {
		case containsAny(text, "limit: 0", "quota exceeded"):
			c.Kind = KindQuotaExhausted
			c.Message = MsgQuotaExhausted
		case containsAny(text, "resource exhausted", "resource_exhausted", "too many requests", "rate limit"):
			c.Kind = KindRateLimited
			c.Message = MsgRateLimited
		default:
			c.Kind = KindRateLimited
			c.Message = MsgUpstreamBusy
		}

	case strings.Contains(text, "400"):
		c.Kind = KindBadRequest
		switch {
		case containsAny(text, "failed_precondition", "free tier unavailable"):
			c.Message = MsgRegionUnavailable
		case strings.Contains(text, "invalid_argument"):
			c.Message = MsgMalformedRequest
		default:
			c.Message = MsgBadRequest
		}

	case containsAny(text, "403", "permission_denied"):
		c.Kind = KindPermissionDenied
		c.Message = MsgPermissionDenied

	case strings.Contains(text, "500"),
		strings.Contains(text, "internal") && strings.Contains(text, "error"):
		c.Kind = KindServerError
		c.Message = MsgServerError

	case containsAny(text, "503", "unavailable"):
		c.Kind = KindServiceUnavailable
		c.Message = MsgServiceUnavailable

	case containsAny(text, "api key", "api_key_invalid"):
		c.Kind = KindPermissionDenied
		c.Message = MsgInvalidAPIKey

	case containsAny(text, "connection", "timeout", "network"):
		c.Kind = KindNetworkError
		c.Message = MsgNetworkError

	default:
		c.Kind = KindUnclassified
		c.Message = truncate(raw, maxUnclassifiedLen)
	}

	return c
}

func containsAny(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}

// truncate shortens s to at most limit runes, ending with "..." when cut.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-3]) + "..."
}
