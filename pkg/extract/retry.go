package extract

import (
	"context"
	"log/slog"
	"math"
	"time"
)

// RetryPolicy bounds repeated stage attempts. MaxAttempts is the total
// attempt count (the configured max_retries); BackoffMultiplier scales the
// exponential delay between attempts.
type RetryPolicy struct {
	MaxAttempts       int
	BackoffMultiplier float64
}

// Backoff delay bounds.
const (
	minBackoff = 1 * time.Second
	maxBackoff = 8 * time.Second
)

// delay computes the wait before retry attempt (attempt numbering starts at
// 1 for the first retry): multiplier * 2^(attempt-1) seconds, clamped.
func (p RetryPolicy) delay(attempt int) time.Duration {
	m := p.BackoffMultiplier
	if m < 1 {
		m = 1
	}
	d := time.Duration(m * math.Pow(2, float64(attempt-1)) * float64(time.Second))
	if d < minBackoff {
		return minBackoff
	}
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

// withRetry runs fn up to policy.MaxAttempts times, sleeping the policy's
// backoff between attempts. Only retriable errors (timeout, LLM, parse) are
// retried; cancellation and everything else surface immediately. Returns
// the last error and the number of attempts made.
func withRetry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, stage string, fn func(context.Context) error) (int, error) {
	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return attempt, nil
		}
		if !retriable(lastErr) || attempt == attempts {
			return attempt, lastErr
		}

		wait := policy.delay(attempt)
		logger.Debug("Retrying stage", "stage", stage, "attempt", attempt,
			"of", attempts, "wait", wait, "error", lastErr)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return attempt, ctx.Err()
		}
	}
	return attempts, lastErr
}
