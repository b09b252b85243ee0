package llm

import (
	"errors"
	"fmt"
	"time"
)

// Error codes shared by all provider adapters.
const (
	CodeRateLimited   = "rate_limited"
	CodeInvalidAPIKey = "invalid_api_key"
	CodeQuotaExceeded = "quota_exceeded"
	CodeTimeout       = "timeout"
	CodeServerError   = "server_error"
	CodeNetworkError  = "network_error"
	CodeBadRequest    = "bad_request"
	CodeAPIError      = "api_error"
)

// Error is the classified form every provider adapter returns.
// Retryable errors (rate limits, 5xx, transport failures) are worth
// another attempt; the rest fail fast.
type Error struct {
	Provider  string
	Code      string
	Message   string
	Retryable bool

	// RetryAfter, when positive, is the provider's suggested wait
	// before the next attempt. Only set for rate limit errors.
	RetryAfter time.Duration

	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// IsRetryable reports whether err is a provider error worth retrying.
// Unknown error types are treated as non-retryable.
func IsRetryable(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		return le.Retryable
	}
	return false
}

// RetryAfterHint extracts the provider's suggested backoff, if any.
func RetryAfterHint(err error) (time.Duration, bool) {
	var le *Error
	if errors.As(err, &le) && le.RetryAfter > 0 {
		return le.RetryAfter, true
	}
	return 0, false
}
