package ports

import (
	"context"
	"time"
)

// RateGate holds the shared deadline before which no flush may start.
// Implementations must be safe for concurrent use and must never hold a lock
// while waiting.
type RateGate interface {
	// Until returns a copy of the current deadline.
	Until() time.Time

	// DelayUntil moves the deadline forward to t. Earlier values are ignored.
	DelayUntil(t time.Time) time.Time

	// Wait blocks until the deadline has passed or ctx is done.
	Wait(ctx context.Context) error
}
