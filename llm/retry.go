package llm

import (
	"context"
	"time"
)

// retryAttempts is the total number of calls before giving up on a
// retryable failure.
const retryAttempts = 3

// retryBaseDelay is the first backoff step; each retry doubles it.
const retryBaseDelay = time.Second

// Do runs fn with the shared retry discipline: up to retryAttempts
// calls, doubling delays, honoring a rate-limit sleep hint when one is
// present, failing fast on non-retryable errors. Provider adapters
// call this around their raw API call.
func Do(ctx context.Context, fn func(context.Context) (string, error)) (string, error) {
	return doWithDelay(ctx, retryBaseDelay, fn)
}

func doWithDelay(ctx context.Context, baseDelay time.Duration, fn func(context.Context) (string, error)) (string, error) {
	var lastErr error
	delay := baseDelay
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return "", err
		}
		if attempt == retryAttempts-1 {
			break
		}
		wait := delay
		if hint, ok := RetryAfterHint(err); ok {
			wait = hint
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
	}
	return "", lastErr
}
