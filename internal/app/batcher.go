package app

import (
	"github.com/bft-labs/chatship/internal/domain"
)

// Batcher owns the pending batch and decides when it must be flushed.
type Batcher struct {
	batch    *domain.Batch
	maxBatch int
	timedOut bool
}

// NewBatcher creates a batcher that flushes once maxBatch messages are pending.
func NewBatcher(maxBatch int) *Batcher {
	return &Batcher{
		batch:    domain.NewBatch(),
		maxBatch: maxBatch,
	}
}

// Add appends a message to the pending batch.
func (b *Batcher) Add(msg string) {
	b.batch.Add(msg)
}

// Full returns true if the size threshold has been reached.
func (b *Batcher) Full() bool {
	return b.batch.Size() >= b.maxBatch
}

// ShouldFlush returns true when the batch is full, or when the timer has
// ticked while messages were pending.
func (b *Batcher) ShouldFlush() bool {
	if b.Full() {
		return true
	}
	return b.timedOut && !b.batch.Empty()
}

// MarkTimedOut records a timer tick. Ticks on an empty batch are ignored so
// the timeout is always measured from a non-empty batch.
func (b *Batcher) MarkTimedOut() {
	if b.batch.Empty() {
		return
	}
	b.timedOut = true
}

// ClearTimeout resets the timed-out flag after a flush attempt.
func (b *Batcher) ClearTimeout() {
	b.timedOut = false
}

// Batch returns the current batch.
func (b *Batcher) Batch() *domain.Batch {
	return b.batch
}

// Reset clears the batch.
func (b *Batcher) Reset() {
	b.batch.Reset()
}

// HasPending returns true if there are messages waiting to be sent.
func (b *Batcher) HasPending() bool {
	return !b.batch.Empty()
}
