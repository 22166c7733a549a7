package resilience

import (
	"context"
	"time"
)

// ExecuteWithTimeout runs op under a deadline. The operation runs in its
// own goroutine so a caller that ignores its context cannot stall the
// caller past the deadline; on expiry ErrTimeout is returned and the
// abandoned goroutine drains into a buffered channel.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
