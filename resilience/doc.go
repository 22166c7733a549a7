// Package resilience provides retry and timeout policies for upstream
// data source calls.
//
// A Retry wraps a fetch attempt with exponential backoff and an optional
// per-attempt deadline. Which errors are worth retrying is decided by the
// caller through RetryIf, so transient upstream failures are retried while
// rejections and empty answers fail fast.
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:    3,
//	    InitialDelay:   time.Second,
//	    AttemptTimeout: 10 * time.Second,
//	    RetryIf:        provider.IsRetryable,
//	})
//
//	err := retry.Execute(ctx, func(ctx context.Context) error {
//	    return fetchFromUpstream(ctx)
//	})
package resilience
