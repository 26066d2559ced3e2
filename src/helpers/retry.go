package helpers

import (
	"context"
	"time"

	"invest-client/src/logger"

	"github.com/cenkalti/backoff/v4"
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to maxRetries times, doubling the delay after each
// failure. It stops early when ctx is done. Only outer bootstrap code uses it;
// the caches and the stream never retry.
func RetryWithBackoff(ctx context.Context, log *logger.Logger, operation string, maxRetries int, baseDelay time.Duration, fn func(context.Context) error) error {
	if maxRetries < 1 {
		maxRetries = 1
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = baseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = baseDelay << maxRetries
	exp.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(exp, uint64(maxRetries-1)), ctx)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		return fn(ctx)
	}, policy, func(err error, delay time.Duration) {
		log.Warning("%s failed (attempt %d/%d): %v, retrying in %v", operation, attempt, maxRetries, err, delay)
	})
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return NewNetworkError(err, "%s failed after %d attempts", operation, attempt)
}
