// Package ratelimit provides the politeness delay between consecutive
// requests to one source. Harvesting is sequential, so a fixed delay is
// enough; no token bucket.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter spaces out consecutive calls by a fixed delay. The zero delay
// disables waiting entirely.
type Limiter struct {
	delay time.Duration
	last  time.Time
	mu    sync.Mutex
}

// New creates a Limiter with the given inter-request delay.
func New(delay time.Duration) *Limiter {
	return &Limiter{delay: delay}
}

// Wait blocks until the delay since the previous call has elapsed, or the
// context is done.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.delay > 0 {
		if wait := l.delay - time.Since(l.last); wait > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}

	l.last = time.Now()
	return ctx.Err()
}
