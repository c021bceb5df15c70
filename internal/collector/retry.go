package collector

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy retries a failing call a fixed number of extra times with a
// fixed delay between attempts.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	// Sleep waits between attempts; nil means SleepContext. Tests swap it
	// out to avoid real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry is called after each failed attempt that will be retried.
	OnRetry func(attempt int, err error)
}

// DefaultRetryPolicy allows three retries one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 3, Delay: time.Second}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retry calls fn until it succeeds or the policy is exhausted, and returns
// the first result or the last error.
func Retry[T any](ctx context.Context, p RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	for attempt := 1; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if attempt > p.MaxRetries {
			var zero T
			return zero, fmt.Errorf("after %d attempts: %w", attempt, err)
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}
		if serr := sleep(ctx, p.Delay); serr != nil {
			var zero T
			return zero, fmt.Errorf("retry wait: %w (last error: %v)", serr, err)
		}
	}
}
