package connkit

import (
	"context"
	"math"
	"time"

	"go.uber.org/multierr"
)

// WithRetryAndFallback runs primary up to policy.MaxAttempts times with
// exponential backoff between attempts. A successful attempt returns
// immediately and the fallback never runs. Once the attempt budget is
// exhausted the fallback's result is returned instead; a fallback failure
// is the only error this helper surfaces to the caller, combined with the
// last primary error for diagnostics.
//
// Context cancellation is honored between attempts and aborts the whole
// operation, fallback included. The label is used only for logging.
func WithRetryAndFallback[T any](
	ctx context.Context,
	policy RetryPolicy,
	label string,
	primary func(ctx context.Context) (T, error),
	fallback func(ctx context.Context) (T, error),
) (T, error) {
	policy.Validate()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		v, err := primary(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err
		policy.Logger.Warn("operation attempt failed", map[string]any{
			"operation": label,
			"attempt":   attempt,
			"error":     err.Error(),
		})

		if attempt == policy.MaxAttempts {
			break
		}
		delay := policy.Backoff(attempt)
		timer := policy.Clock.Timer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, multierr.Append(lastErr, ctx.Err())
		}
	}

	policy.Logger.Info("falling back after exhausted retries", map[string]any{
		"operation": label,
		"attempts":  policy.MaxAttempts,
	})
	v, err := fallback(ctx)
	if err != nil {
		return zero, multierr.Append(lastErr, err)
	}
	return v, nil
}

// Backoff returns the delay to wait after the given 1-based attempt:
// InitialDelay grown by Multiplier per attempt, capped at MaxDelay.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt <= 1 {
		return p.InitialDelay
	}
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	return time.Duration(d)
}
