package cliconfig

import (
	"context"

	"github.com/bft-labs/chatship/pkg/chatship"
)

// NewClient creates a client for the configured provider. Call Validate first.
func (c Config) NewClient(ctx context.Context, opts ...chatship.Option) (*chatship.Client, error) {
	switch c.Provider {
	case ProviderMatrix:
		return chatship.NewMatrix(ctx, chatship.MatrixConfig{
			HomeServer:  c.HomeServer,
			RoomID:      c.RoomID,
			AccessToken: c.AccessToken,
			User:        c.User,
			Password:    c.Password,
		}, c.ClientConfig(), opts...)
	default:
		return chatship.NewMattermost(chatship.MattermostConfig{
			WebhookURL: c.WebhookURL,
			Username:   c.Username,
			IconURL:    c.IconURL,
		}, c.ClientConfig(), opts...)
	}
}
