package cliconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/bft-labs/chatship/pkg/chatship"
	"github.com/bft-labs/chatship/pkg/log"
)

// Supported providers.
const (
	ProviderMatrix     = "matrix"
	ProviderMattermost = "mattermost"
)

// Config holds CLI configuration for chatship.
type Config struct {
	Provider string

	// Matrix
	HomeServer  string
	RoomID      string
	AccessToken string
	User        string
	Password    string

	// Mattermost
	WebhookURL string
	Username   string
	IconURL    string

	MaxBatch      int
	MaxRetries    int
	FlushInterval time.Duration
	SendTimeout   time.Duration
	DrainTimeout  time.Duration
	HTTPTimeout   time.Duration

	LogLevel    string
	MetricsAddr string

	WatchFile string
	FromStart bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxBatch:      chatship.DefaultMaxBatch,
		MaxRetries:    chatship.DefaultMaxRetries,
		FlushInterval: chatship.DefaultFlushInterval,
		SendTimeout:   chatship.DefaultSendTimeout,
		DrainTimeout:  chatship.DefaultDrainTimeout,
		HTTPTimeout:   chatship.DefaultHTTPTimeout,
		LogLevel:      "info",
	}
}

// Validate checks the configuration for errors and infers the provider when
// only one provider is configured.
func (c *Config) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		switch {
		case c.WebhookURL != "" && c.HomeServer == "":
			c.Provider = ProviderMattermost
		case c.HomeServer != "" && c.WebhookURL == "":
			c.Provider = ProviderMatrix
		default:
			return fmt.Errorf("provider is required (matrix or mattermost)")
		}
	}

	switch c.Provider {
	case ProviderMatrix:
		if err := c.validateMatrix(false); err != nil {
			return err
		}
	case ProviderMattermost:
		if c.WebhookURL == "" {
			return fmt.Errorf("webhook-url is required for mattermost")
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.MaxBatch <= 0 {
		return fmt.Errorf("max batch must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.FlushInterval <= 0 {
		return fmt.Errorf("flush interval must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	return nil
}

// ValidateLogin checks the fields needed to obtain a Matrix access token.
func (c *Config) ValidateLogin() error {
	return c.validateMatrix(true)
}

func (c *Config) validateMatrix(login bool) error {
	if c.HomeServer == "" {
		return fmt.Errorf("home-server is required for matrix")
	}
	if login {
		if c.User == "" || c.Password == "" {
			return fmt.Errorf("user and password are required to log in")
		}
		return nil
	}
	if c.RoomID == "" {
		return fmt.Errorf("room-id is required for matrix")
	}
	if c.AccessToken == "" && (c.User == "" || c.Password == "") {
		return fmt.Errorf("access-token or user and password are required for matrix")
	}
	return nil
}

// ClientConfig converts the CLI settings to a library configuration.
func (c Config) ClientConfig() chatship.Config {
	return chatship.Config{
		MaxBatch:      c.MaxBatch,
		MaxRetries:    c.MaxRetries,
		FlushInterval: c.FlushInterval,
		SendTimeout:   c.SendTimeout,
		DrainTimeout:  c.DrainTimeout,
		HTTPTimeout:   c.HTTPTimeout,
	}
}

// Masked returns a copy safe to log.
func (c Config) Masked() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "*****"
	}
	c.AccessToken = mask(c.AccessToken)
	c.Password = mask(c.Password)
	c.WebhookURL = mask(c.WebhookURL)
	return c
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntPtr sets an int from a pointer if not nil and flag not changed.
// An explicit zero is kept so Validate can reject it.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDurationPtr sets a duration from a pointer if not nil and flag not changed.
func (s *configSetter) setDurationPtr(flag string, value *time.Duration, dst *time.Duration) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}
