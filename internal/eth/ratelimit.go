package eth

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter is a minimal interface to rate-limit RPC calls. *rate.Limiter
// satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// nopLimiter allows unlimited throughput.
type nopLimiter struct{}

func (nopLimiter) Wait(ctx context.Context) error { return ctx.Err() }

// NewLimiter returns a Limiter enforcing req/s with a burst of one, so the
// first call never waits. If perSecond <= 0, returns unlimited.
func NewLimiter(perSecond int) Limiter {
	if perSecond <= 0 {
		return nopLimiter{}
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
