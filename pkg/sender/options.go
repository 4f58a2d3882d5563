package sender

import (
	"net/http"
	"time"

	"github.com/bft-labs/chatship/pkg/log"
)

// DefaultHTTPTimeout bounds every request made by the default HTTP client.
const DefaultHTTPTimeout = 30 * time.Second

// Options holds the collaborators shared by every provider.
type Options struct {
	Client HTTPClient
	Logger log.Logger
	Now    func() time.Time
}

// Option configures a provider.
type Option func(*Options)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c HTTPClient) Option {
	return func(o *Options) {
		o.Client = c
	}
}

// WithLogger sets the logger used by the provider.
func WithLogger(l log.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Options) {
		o.Now = now
	}
}

// ApplyOptions applies opts over the defaults.
func ApplyOptions(opts ...Option) Options {
	o := Options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Client == nil {
		o.Client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	if o.Logger == nil {
		o.Logger = log.NewNoopLogger()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
