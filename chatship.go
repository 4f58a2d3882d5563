// Package chatship delivers batched text notifications to chat backends.
//
// Example usage:
//
//	c, err := chatship.FromEnv(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close(context.Background())
//
//	_ = c.Send("backup completed")
//
// FromEnv reads the same CHATSHIP_* variables as the chatship command, after
// loading .env from the working directory. For full control use
// github.com/bft-labs/chatship/pkg/chatship directly.
package chatship

import (
	"context"

	"github.com/bft-labs/chatship/internal/cliconfig"
	"github.com/bft-labs/chatship/pkg/chatship"
)

// Client is a running notification client.
type Client = chatship.Client

// Option configures optional behavior of a Client.
type Option = chatship.Option

// Config holds provider and batching settings as read by the CLI.
type Config = cliconfig.Config

// DefaultConfig returns a Config with default batching settings and no provider.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// New validates cfg and creates a client for its provider.
func New(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg.NewClient(ctx, opts...)
}

// FromEnv creates a client configured from .env and CHATSHIP_* variables.
func FromEnv(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := cliconfig.DefaultConfig()
	if err := cliconfig.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cliconfig.ApplyEnvConfig(&cfg, map[string]bool{}); err != nil {
		return nil, err
	}
	return New(ctx, cfg, opts...)
}
