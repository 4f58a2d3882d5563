package sender

import (
	"errors"

	"github.com/bft-labs/chatship/internal/domain"
	"github.com/bft-labs/chatship/internal/ports"
)

// Sender delivers one joined batch of text to a chat provider.
type Sender = ports.Sender

// RateGate is the shared resume-not-before deadline.
type RateGate = ports.RateGate

// HTTPClient abstracts HTTP request execution for testing and custom transports.
// The standard *http.Client satisfies this interface.
type HTTPClient = ports.HTTPClient

// RateLimitError reports a throttle signal together with the resume time.
type RateLimitError = domain.RateLimitError

// TransportError wraps a network failure from the HTTP layer.
type TransportError = domain.TransportError

// Errors returned by providers.
var (
	ErrRateLimited   = domain.ErrRateLimited
	ErrHeaderParsing = domain.ErrHeaderParsing
	ErrBodyParsing   = domain.ErrBodyParsing
	ErrInvalidConfig = domain.ErrInvalidConfig
)

// Outcome is the result of one delivery attempt.
type Outcome int

const (
	Delivered Outcome = iota
	RateLimited
	Failed
)

// String returns a human-readable representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "Delivered"
	case RateLimited:
		return "RateLimited"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Classify maps the error returned by Send to an Outcome.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return Delivered
	case errors.Is(err, ErrRateLimited):
		return RateLimited
	default:
		return Failed
	}
}
