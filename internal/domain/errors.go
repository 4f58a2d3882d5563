package domain

import (
	"errors"
	"fmt"
	"time"
)

// Domain errors represent error conditions in the chatship domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrClosed is returned when a message is enqueued after the client was closed.
	ErrClosed = errors.New("chatship: client closed")

	// ErrAlreadyStopped is returned when Close() is called on a stopped client.
	ErrAlreadyStopped = errors.New("chatship: already stopped")

	// ErrShutdownTimeout is returned when the final drain does not finish in time.
	ErrShutdownTimeout = errors.New("chatship: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("chatship: invalid configuration")

	// ErrRateLimited marks a provider throttle signal. The batch was not delivered.
	ErrRateLimited = errors.New("chatship: rate limited")

	// ErrHeaderParsing is returned when throttle headers are missing or malformed.
	ErrHeaderParsing = errors.New("chatship: malformed rate limit header")

	// ErrBodyParsing is returned when a throttle response body cannot be decoded.
	ErrBodyParsing = errors.New("chatship: malformed rate limit body")
)

// RateLimitError reports that a provider rejected a delivery and asked the
// caller to wait until ResumeAt. It matches ErrRateLimited with errors.Is.
type RateLimitError struct {
	Provider string
	ResumeAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s: rate limited until %s", e.Provider, e.ResumeAt.Format(time.RFC3339Nano))
}

// Is reports whether target is ErrRateLimited.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}

// TransportError wraps a network or protocol failure from the HTTP layer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
