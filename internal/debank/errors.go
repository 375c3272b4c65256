package debank

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies failures surfaced by the client.
type Kind string

const (
	KindConfiguration Kind = "configuration_error"
	KindValidation    Kind = "validation_error"
	KindAuth          Kind = "auth_error"
	KindRateLimit     Kind = "rate_limit_error"
	KindServer        Kind = "server_error"
	KindTimeout       Kind = "timeout_error"
	KindNetwork       Kind = "network_error"
	KindUnclassified  Kind = "api_error"
)

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// ErrClosed is returned by calls made after Close.
var ErrClosed = errors.New("debank client is closed")

// APIError is the single error type returned by the client.
//
// StatusCode is zero for failures that never produced an HTTP response
// (configuration, timeout, network). RetryAfter is only set for KindRateLimit.
type APIError struct {
	Kind       Kind
	Message    string
	StatusCode int
	RetryAfter time.Duration
	Err        error
}

func (e *APIError) Error() string {
	if e == nil {
		return "debank error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("debank: %s (status %d)", e.Message, e.StatusCode)
	}
	return "debank: " + e.Message
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// RetryAfterSeconds returns the retry hint rounded to whole seconds.
func (e *APIError) RetryAfterSeconds() int {
	if e == nil || e.RetryAfter <= 0 {
		return 0
	}
	return int(e.RetryAfter.Round(time.Second) / time.Second)
}

// KindOf extracts the Kind of err, or "" when err is not an *APIError.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr != nil {
		return apiErr.Kind
	}
	return ""
}

// IsRetryable reports whether the client retries failures of this kind.
// Only transport-level failures qualify; rate limiting is left to the caller.
func IsRetryable(kind Kind) bool {
	return kind == KindTimeout || kind == KindNetwork
}

// classifyResponse maps a non-200 response to an APIError. detail is the
// structured upstream message extracted from the body.
func classifyResponse(status int, detail string, retryAfter time.Duration) *APIError {
	switch {
	case status == http.StatusBadRequest:
		return &APIError{
			Kind:       KindValidation,
			StatusCode: status,
			Message:    "Invalid request parameters: " + detail,
		}
	case status == http.StatusUnauthorized:
		return &APIError{
			Kind:       KindAuth,
			StatusCode: status,
			Message:    "Authentication failed. Please check your DeBank API access key.",
		}
	case status == http.StatusForbidden:
		return &APIError{
			Kind:       KindAuth,
			StatusCode: status,
			Message: fmt.Sprintf("Access forbidden: %s. "+
				"This may be due to capacity limits or insufficient permissions.", detail),
		}
	case status == http.StatusTooManyRequests:
		if retryAfter <= 0 {
			retryAfter = DefaultRetryAfter
		}
		return &APIError{
			Kind:       KindRateLimit,
			StatusCode: status,
			RetryAfter: retryAfter,
			Message: fmt.Sprintf("Rate limit exceeded. Please retry after %d seconds.",
				int(retryAfter.Round(time.Second)/time.Second)),
		}
	case status >= http.StatusInternalServerError && status <= 599:
		return &APIError{
			Kind:       KindServer,
			StatusCode: status,
			Message:    fmt.Sprintf("DeBank API internal error: %s. Please try again later.", detail),
		}
	default:
		return &APIError{
			Kind:       KindUnclassified,
			StatusCode: status,
			Message:    fmt.Sprintf("API request failed with status %d: %s", status, detail),
		}
	}
}

func configurationError(message string) *APIError {
	return &APIError{Kind: KindConfiguration, Message: message}
}

func timeoutError(cause error) *APIError {
	return &APIError{Kind: KindTimeout, Message: "Request timeout: " + cause.Error(), Err: cause}
}

func rejectedError(cause error) *APIError {
	return &APIError{Kind: KindUnclassified, Message: "Request rejected: " + cause.Error(), Err: cause}
}

func networkError(cause error) *APIError {
	return &APIError{Kind: KindNetwork, Message: "Network error: " + cause.Error(), Err: cause}
}
