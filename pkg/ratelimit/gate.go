package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Gate is a mutex-guarded resume-not-before deadline.
// The zero value is ready to use and does not delay.
type Gate struct {
	mu    sync.Mutex
	until time.Time
}

// NewGate creates a gate whose deadline is now.
func NewGate() *Gate {
	return &Gate{until: time.Now()}
}

// Until returns a copy of the current deadline.
func (g *Gate) Until() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.until
}

// Remaining returns how long until the deadline passes, or zero.
func (g *Gate) Remaining() time.Duration {
	d := time.Until(g.Until())
	if d < 0 {
		return 0
	}
	return d
}

// Delay moves the deadline to now+d and returns the resulting deadline.
func (g *Gate) Delay(d time.Duration) time.Time {
	return g.DelayUntil(time.Now().Add(d))
}

// DelayUntil moves the deadline to t unless it already lies further ahead,
// and returns the resulting deadline.
func (g *Gate) DelayUntil(t time.Time) time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.After(g.until) {
		g.until = t
	}
	return g.until
}

// Wait blocks until the deadline has passed. If the deadline moves forward
// while waiting, Wait keeps waiting for the new one.
func (g *Gate) Wait(ctx context.Context) error {
	for {
		d := time.Until(g.Until())
		if d <= 0 {
			return nil
		}

		timer := time.NewTimer(d)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
