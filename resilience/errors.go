package resilience

import "errors"

// Sentinel errors for resilience operations.
var (
	// ErrTimeout is returned when a single attempt exceeds its deadline.
	ErrTimeout = errors.New("resilience: operation timed out")
)
