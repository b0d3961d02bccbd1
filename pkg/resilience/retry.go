package resilience

import (
	"context"
	"time"
)

// RetryPolicy is an explicit retry-policy value object: the attempt bound and
// backoff curve live here, not in ad hoc loop counters, so the policy is
// testable in isolation from any network call.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffStrategy
}

// DefaultGatewayRetryPolicy bounds wallet gateway calls at three attempts.
func DefaultGatewayRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     GatewayBackoff(),
	}
}

// Wait sleeps for the backoff delay preceding the given attempt (1-indexed;
// attempt 1 has no delay). It respects context cancellation.
func (p RetryPolicy) Wait(ctx context.Context, attempt int) error {
	if attempt <= 1 {
		return nil
	}
	delay := p.Backoff.NextDelay(attempt - 2)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

// Do runs fn up to MaxAttempts times, waiting the backoff delay between
// attempts. fn receives the 1-indexed attempt number. retryable decides
// whether an error is worth another attempt; the last error is returned when
// the bound is exhausted.
//
// The payment orchestrator drives its own loop so every attempt is persisted;
// Do is for callers that only need the combinator.
func (p RetryPolicy) Do(ctx context.Context, fn func(attempt int) error, retryable func(error) bool) error {
	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := p.Wait(ctx, attempt); err != nil {
			return err
		}
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
