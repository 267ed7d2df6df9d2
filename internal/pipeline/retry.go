package pipeline

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/draftroom/internal/refine"
)

// MaxRetries is how many times one chunk is sent to the model.
const MaxRetries = 3

const maxBackoff = 30 * time.Second

// IsRetryable reports whether err is a transient model failure.
func IsRetryable(err error) bool {
	var retryErr *refine.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns the jittered wait after failed attempt n (0-indexed):
// 1s, 2s, 4s ... capped at 30s, plus up to half again.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > maxBackoff {
		base = maxBackoff
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// refinePolicy drives the per-chunk refine loop.
type refinePolicy struct {
	attempts int
	backoff  func(attempt int) time.Duration
}

func defaultRefinePolicy() refinePolicy {
	return refinePolicy{attempts: MaxRetries, backoff: Backoff}
}

// delay is the wait before retrying after err. A server Retry-After wins
// when it is longer than the backoff, up to maxBackoff.
func (p refinePolicy) delay(attempt int, err error) time.Duration {
	d := p.backoff(attempt)
	var retryErr *refine.RetryableError
	if errors.As(err, &retryErr) && retryErr.RetryAfter > d {
		d = min(retryErr.RetryAfter, maxBackoff)
	}
	return d
}

// do calls fn until it succeeds, fails permanently, attempts run out, or
// ctx ends. It never sleeps after the last attempt. onRetry sees every
// failure that will be retried.
func (p refinePolicy) do(ctx context.Context, fn func() (string, error), onRetry func(attempt int, wait time.Duration, err error)) (string, error) {
	var lastErr error
	for attempt := range p.attempts {
		out, err := fn()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == p.attempts-1 {
			break
		}

		wait := p.delay(attempt, err)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
