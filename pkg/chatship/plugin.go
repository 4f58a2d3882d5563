package chatship

import (
	"context"

	"github.com/bft-labs/chatship/pkg/log"
)

// Plugin extends a Client with a background producer or side task.
// Plugins are initialized in registration order when the client is created
// and shut down in reverse order when it is closed, before the queue stops
// accepting messages.
type Plugin interface {
	// Name returns the plugin identifier used in logs.
	Name() string

	// Initialize starts the plugin. ctx is canceled when the client is
	// forcibly stopped.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown stops the plugin and waits for its goroutines.
	Shutdown(ctx context.Context) error
}

// PluginConfig gives plugins access to the client.
type PluginConfig struct {
	// Send enqueues a message on the owning client.
	Send func(msg string) error

	// Logger is the client's logger.
	Logger log.Logger
}
