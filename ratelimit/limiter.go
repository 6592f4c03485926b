// Package ratelimit enforces the provider RPS ceilings from spec.md §5:
// "excess demand queues briefly (≤100 ms) then fails fast with Throttled".
package ratelimit

import (
	"context"
	"time"

	"golang.org/x/time/rate"

	"github.com/Baalakay/drug-search-redis-vector-and-filtering-sub001/errs"
)

const maxQueueWait = 100 * time.Millisecond

// Limiter bounds the rate of calls to a single upstream provider.
type Limiter struct {
	limiter *rate.Limiter
	op      string
}

// New builds a Limiter admitting up to rps requests per second, with a
// burst of one second's worth of traffic.
func New(op string, rps float64) *Limiter {
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		op:      op,
	}
}

// Wait blocks until a token is available, up to maxQueueWait, and returns
// errs.Throttled if none becomes available in time.
func (l *Limiter) Wait(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, maxQueueWait)
	defer cancel()

	if err := l.limiter.Wait(waitCtx); err != nil {
		return errs.New(errs.Throttled, l.op, err)
	}
	return nil
}
