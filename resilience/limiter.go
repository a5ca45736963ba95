package resilience

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// LimiterConfig configures a Limiter.
type LimiterConfig struct {
	// Rate is the number of calls allowed per second.
	Rate float64
	// Burst is how many calls may run back to back. Defaults to Rate,
	// and at least 1.
	Burst int
}

// Limiter is a token bucket. It is safe for concurrent use.
type Limiter struct {
	lim *rate.Limiter
}

// NewLimiter returns a Limiter with a full bucket. A non-positive Rate
// selects 10 calls per second.
func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.Rate <= 0 {
		cfg.Rate = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = max(int(cfg.Rate), 1)
	}
	return &Limiter{lim: rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst)}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	return l.lim.Allow()
}

// Wait takes a token, sleeping until one accrues. Waiters reserve their
// token before sleeping and are served in order. When ctx ends first, or
// its deadline falls before the token would accrue, the reservation is
// returned and the error matches ctx's error.
func (l *Limiter) Wait(ctx context.Context) error {
	err := l.lim.Wait(ctx)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

// Tokens returns the tokens currently available. It is negative while
// waiters hold reservations.
func (l *Limiter) Tokens() float64 {
	return l.lim.Tokens()
}
