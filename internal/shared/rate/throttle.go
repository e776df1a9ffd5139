package rate

import (
	"context"
	"time"

	"go.uber.org/ratelimit"
)

// Throttle spaces out calls to a rate-limited upstream.
type Throttle interface {
	// Wait blocks until the next call may proceed or ctx is done.
	Wait(ctx context.Context) error
}

// Limiter is a Throttle enforcing a fixed interval between calls.
// The first call passes immediately.
type Limiter struct {
	l     ratelimit.Limiter
	limit int
	per   time.Duration
}

// NewLimiter allows limit calls per interval, evenly spaced.
func NewLimiter(limit int, per time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if per <= 0 {
		per = time.Minute
	}
	return &Limiter{
		l:     ratelimit.New(limit, ratelimit.Per(per), ratelimit.WithoutSlack),
		limit: limit,
		per:   per,
	}
}

func (l *Limiter) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		l.l.Take()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Interval is the spacing enforced between two calls.
func (l *Limiter) Interval() time.Duration {
	return l.per / time.Duration(l.limit)
}

// NoOp never blocks.
type NoOp struct{}

func (NoOp) Wait(ctx context.Context) error { return ctx.Err() }
