package ports

import "context"

// Sender delivers a joined batch of text to a chat provider with exactly one
// network call.
//
// Send returns nil when the batch was accepted. A throttle signal is reported
// with an error matching domain.ErrRateLimited; before returning it the
// Sender moves the shared RateGate forward. Any other error is a generic
// failure and the caller may retry.
type Sender interface {
	Name() string
	Send(ctx context.Context, text string) error
}
