// Package retry wraps github.com/cenkalti/backoff/v4 into the two retry
// policies spec.md asks for: the embedding client's bounded exponential
// backoff (max 2 retries) and the LLM client's jittered throttle backoff
// (max 3 retries). Both operate purely on errs.Kind classification so the
// policy never needs to know about a specific provider's error types.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
)

// Policy runs op, retrying while shouldRetry(err) is true, up to maxRetries
// additional attempts beyond the first, using exponential backoff with
// jitter. It returns the last error if retries are exhausted.
func Policy(ctx context.Context, maxRetries int, shouldRetry func(error) bool, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 50 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 0 // bounded by attempt count, not elapsed time

	attempts := 0
	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if attempts > maxRetries || !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithMaxRetries(bctx, uint64(maxRetries)))
}

// TransportRetryable reports whether err should trigger the embedding
// client's transport backoff (spec.md §4.A): only UpstreamUnavailable is
// retried.
func TransportRetryable(err error) bool {
	return errs.Is(err, errs.UpstreamUnavailable)
}

// ThrottleRetryable reports whether err should trigger the LLM client's
// throttle backoff (spec.md §4.B): only Throttled is retried.
func ThrottleRetryable(err error) bool {
	return errs.Is(err, errs.Throttled)
}
