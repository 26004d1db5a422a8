// Package ratelimit implements the sliding-window request throttle guarding
// the upstream API.
//
// The limiter keeps a queue of acquisition timestamps. An Acquire expires
// entries older than the trailing window, then either records itself and
// proceeds or waits until the oldest entry exits the window. In any trailing
// window of the configured period at most maxCalls acquisitions complete.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is a sliding-window rate limiter. Safe for concurrent use; the
// wake order among blocked callers is unspecified.
type Limiter struct {
	maxCalls int
	period   time.Duration

	mu    sync.Mutex
	calls []time.Time

	// Injectable for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a limiter allowing maxCalls acquisitions per trailing period.
func New(maxCalls int, period time.Duration) *Limiter {
	return &Limiter{
		maxCalls: maxCalls,
		period:   period,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// Acquire blocks until one more request may be issued, or until ctx is
// cancelled. Acquire(context.Background()) never fails.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.expire(now)

		if len(l.calls) < l.maxCalls {
			l.calls = append(l.calls, now)
			l.mu.Unlock()
			return nil
		}

		// Window full: wait for the oldest call to leave it, then recheck.
		// Other callers may win the freed slot first.
		wait := l.calls[0].Add(l.period).Sub(now)
		l.mu.Unlock()

		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// expire drops recorded calls older than now minus the window period.
// Caller must hold mu.
func (l *Limiter) expire(now time.Time) {
	cutoff := now.Add(-l.period)
	i := 0
	for i < len(l.calls) && !l.calls[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = append(l.calls[:0], l.calls[i:]...)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
