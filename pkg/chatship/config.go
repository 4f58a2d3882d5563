package chatship

import (
	"fmt"
	"time"

	"github.com/bft-labs/chatship/internal/app"
	"github.com/bft-labs/chatship/internal/domain"
)

// Default configuration values.
const (
	DefaultMaxBatch      = app.DefaultMaxBatch
	DefaultFlushInterval = app.DefaultFlushInterval
	DefaultMaxRetries    = app.DefaultMaxRetries
	DefaultSendTimeout   = app.DefaultSendTimeout
	DefaultDrainTimeout  = app.DefaultDrainTimeout
	DefaultHTTPTimeout   = 30 * time.Second
)

// Config controls batching and retry behavior of a Client.
type Config struct {
	// MaxBatch is the number of pending messages that forces a flush.
	// Default: 10
	MaxBatch int

	// FlushInterval is how long a non-full batch may wait before it is flushed.
	// Default: 5 seconds
	FlushInterval time.Duration

	// MaxRetries is the number of consecutive failed attempts after which a
	// batch is logged and discarded. Rate limit rejections do not count.
	// Default: 50
	MaxRetries int

	// SendTimeout bounds a single provider call. Negative disables the bound.
	// Default: 30 seconds
	SendTimeout time.Duration

	// DrainTimeout bounds the final flush attempts made by Close. Negative
	// abandons the pending batch on Close.
	// Default: 30 seconds
	DrainTimeout time.Duration

	// HTTPTimeout is the timeout of the default HTTP client.
	// Default: 30 seconds
	HTTPTimeout time.Duration
}

// DefaultConfig returns a Config with every field set to its default.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.SetDefaults()
	return cfg
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	if c.MaxBatch == 0 {
		c.MaxBatch = DefaultMaxBatch
	}
	if c.FlushInterval == 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.SendTimeout == 0 {
		c.SendTimeout = DefaultSendTimeout
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = DefaultDrainTimeout
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxBatch < 1 {
		return fmt.Errorf("%w: max batch must be positive, got %d", domain.ErrInvalidConfig, c.MaxBatch)
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("%w: flush interval must be positive, got %s", domain.ErrInvalidConfig, c.FlushInterval)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("%w: max retries must be positive, got %d", domain.ErrInvalidConfig, c.MaxRetries)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: http timeout must not be negative", domain.ErrInvalidConfig)
	}
	return nil
}

func (c Config) dispatcherConfig() app.DispatcherConfig {
	return app.DispatcherConfig{
		MaxBatch:      c.MaxBatch,
		FlushInterval: c.FlushInterval,
		MaxRetries:    c.MaxRetries,
		SendTimeout:   max(c.SendTimeout, 0),
		DrainTimeout:  max(c.DrainTimeout, 0),
	}
}
