package provider

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		wantKind  Kind
		retryable bool
	}{
		{"not found", NewNotFound("livefeed", "no rows"), KindNotFound, false},
		{"transient", NewTransient("statsapi", "timeout", errors.New("deadline")), KindTransient, true},
		{"invalid", NewInvalid("bulkfile", "player required"), KindInvalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.wantKind)
			}
			if tt.err.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", tt.err.Retryable(), tt.retryable)
			}
		})
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		want   Kind
	}{
		{http.StatusNotFound, KindNotFound},
		{http.StatusRequestTimeout, KindTransient},
		{http.StatusTooManyRequests, KindTransient},
		{http.StatusInternalServerError, KindTransient},
		{http.StatusBadGateway, KindTransient},
		{http.StatusServiceUnavailable, KindTransient},
		{http.StatusBadRequest, KindInvalid},
		{http.StatusForbidden, KindInvalid},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			if got := FromHTTPStatus("livefeed", tt.status, "rejected"); got.Kind != tt.want {
				t.Errorf("FromHTTPStatus(%d).Kind = %q, want %q", tt.status, got.Kind, tt.want)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("fetch: %w", NewNotFound("bulkfile", "nothing"))
	if got := KindOf(wrapped); got != KindNotFound {
		t.Errorf("KindOf(wrapped) = %q, want %q", got, KindNotFound)
	}

	// Plain errors classify as transient so the retry budget applies.
	if got := KindOf(errors.New("connection reset")); got != KindTransient {
		t.Errorf("KindOf(plain) = %q, want %q", got, KindTransient)
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(nil) {
		t.Error("nil error reported retryable")
	}
	if IsRetryable(NewInvalid("x", "bad")) {
		t.Error("invalid request reported retryable")
	}
	if !IsRetryable(NewTransient("x", "slow", nil)) {
		t.Error("transient error reported not retryable")
	}
}
