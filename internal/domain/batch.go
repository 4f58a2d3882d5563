package domain

import "strings"

// Separator joins the messages of a batch into a single payload.
const Separator = "\n"

// Batch is the ordered group of messages accumulated since the last
// successful flush. It is owned by the dispatcher and is not safe for
// concurrent use.
type Batch struct {
	messages []string

	// TotalBytes is the sum of all message lengths, separators excluded.
	TotalBytes int
}

// NewBatch creates a new empty batch.
func NewBatch() *Batch {
	return &Batch{messages: make([]string, 0)}
}

// Add appends a message, preserving arrival order.
func (b *Batch) Add(msg string) {
	b.messages = append(b.messages, msg)
	b.TotalBytes += len(msg)
}

// Size returns the number of messages in the batch.
func (b *Batch) Size() int {
	return len(b.messages)
}

// Empty returns true if the batch has no messages.
func (b *Batch) Empty() bool {
	return len(b.messages) == 0
}

// Payload joins the messages with Separator in arrival order.
func (b *Batch) Payload() string {
	return strings.Join(b.messages, Separator)
}

// Messages returns a copy of the pending messages.
func (b *Batch) Messages() []string {
	out := make([]string, len(b.messages))
	copy(out, b.messages)
	return out
}

// Reset clears the batch for reuse.
func (b *Batch) Reset() {
	clear(b.messages)
	b.messages = b.messages[:0]
	b.TotalBytes = 0
}
