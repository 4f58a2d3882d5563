package filewatch

import "github.com/bft-labs/chatship/pkg/chatship"

// WithFileWatch returns a chatship Option that sends every line appended to
// cfg.Path.
//
// Usage:
//
//	c, err := chatship.NewMattermost(mm, chatship.DefaultConfig(),
//	    filewatch.WithFileWatch(filewatch.Config{Path: "/var/log/deploy.log"}),
//	)
func WithFileWatch(cfg Config) chatship.Option {
	return chatship.WithPlugin(New(cfg))
}
