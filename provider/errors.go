package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a provider failure for routing decisions.
type Kind string

const (
	// KindNotFound means the request was valid but the provider holds
	// no matching data. Not retryable; the router moves on.
	KindNotFound Kind = "not_found"

	// KindTransient covers timeouts, rate limits, and connection
	// failures. Retryable within the provider's attempt budget.
	KindTransient Kind = "transient"

	// KindInvalid means the request itself was malformed. A caller or
	// configuration bug; never retried.
	KindInvalid Kind = "invalid_request"
)

// Error is a standardized provider failure. The router branches on Kind
// rather than matching error strings.
type Error struct {
	Provider string `json:"provider"`
	Kind     Kind   `json:"kind"`
	Message  string `json:"message"`
	Err      error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider %s: %s: %s: %v", e.Provider, e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("provider %s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure may succeed on retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindTransient
}

// NewNotFound creates a not-found error.
func NewNotFound(provider, message string) *Error {
	return &Error{Provider: provider, Kind: KindNotFound, Message: message}
}

// NewTransient creates a retryable transient error wrapping its cause.
func NewTransient(provider, message string, cause error) *Error {
	return &Error{Provider: provider, Kind: KindTransient, Message: message, Err: cause}
}

// NewInvalid creates an invalid-request error.
func NewInvalid(provider, message string) *Error {
	return &Error{Provider: provider, Kind: KindInvalid, Message: message}
}

// FromHTTPStatus maps an HTTP response status to a provider error.
// 404 is no data, 408/429/5xx are transient, and any other client error
// is an invalid request.
func FromHTTPStatus(provider string, status int, message string) *Error {
	switch {
	case status == http.StatusNotFound:
		return NewNotFound(provider, message)
	case status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= http.StatusInternalServerError:
		return NewTransient(provider, fmt.Sprintf("%s (status %d)", message, status), nil)
	default:
		return NewInvalid(provider, fmt.Sprintf("%s (status %d)", message, status))
	}
}

// KindOf extracts the failure kind from any error. Non-provider errors
// (I/O failures, cancelled contexts) classify as transient so the retry
// budget still applies to them.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindTransient
}

// IsRetryable reports whether any error should be retried against the
// same provider.
func IsRetryable(err error) bool {
	return err != nil && KindOf(err) == KindTransient
}
