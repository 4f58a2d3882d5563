package cliconfig

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// EnvPrefix is the prefix of every environment variable read by chatship.
const EnvPrefix = "CHATSHIP_"

// EnvConfig holds CHATSHIP_* values. Non-string fields are pointers so that an
// unset variable can be told apart from an explicit zero.
type EnvConfig struct {
	Provider string `env:"PROVIDER"`

	HomeServer  string `env:"HOME_SERVER"`
	RoomID      string `env:"ROOM_ID"`
	AccessToken string `env:"ACCESS_TOKEN"`
	User        string `env:"USER"`
	Password    string `env:"PASSWORD"`

	WebhookURL string `env:"WEBHOOK_URL"`
	Username   string `env:"USERNAME"`
	IconURL    string `env:"ICON_URL"`

	MaxBatch      *int           `env:"MAX_BATCH"`
	MaxRetries    *int           `env:"MAX_RETRIES"`
	FlushInterval *time.Duration `env:"FLUSH_INTERVAL"`
	SendTimeout   *time.Duration `env:"SEND_TIMEOUT"`
	DrainTimeout  *time.Duration `env:"DRAIN_TIMEOUT"`
	HTTPTimeout   *time.Duration `env:"HTTP_TIMEOUT"`

	LogLevel    string `env:"LOG_LEVEL"`
	MetricsAddr string `env:"METRICS_ADDR"`

	WatchFile string `env:"WATCH_FILE"`
	FromStart *bool  `env:"FROM_START"`
}

// LoadDotEnv loads variables from path into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" || !FileExists(path) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvConfig applies configuration from environment variables (CHATSHIP_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	var ec EnvConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	s := newConfigSetter(changed)

	s.setString("provider", ec.Provider, &cfg.Provider)
	s.setString("home-server", ec.HomeServer, &cfg.HomeServer)
	s.setString("room-id", ec.RoomID, &cfg.RoomID)
	s.setString("access-token", ec.AccessToken, &cfg.AccessToken)
	s.setString("user", ec.User, &cfg.User)
	s.setString("password", ec.Password, &cfg.Password)
	s.setString("webhook-url", ec.WebhookURL, &cfg.WebhookURL)
	s.setString("username", ec.Username, &cfg.Username)
	s.setString("icon-url", ec.IconURL, &cfg.IconURL)
	s.setString("log-level", ec.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", ec.MetricsAddr, &cfg.MetricsAddr)
	s.setString("file", ec.WatchFile, &cfg.WatchFile)

	s.setIntPtr("max-batch", ec.MaxBatch, &cfg.MaxBatch)
	s.setIntPtr("max-retries", ec.MaxRetries, &cfg.MaxRetries)

	s.setDurationPtr("flush-interval", ec.FlushInterval, &cfg.FlushInterval)
	s.setDurationPtr("send-timeout", ec.SendTimeout, &cfg.SendTimeout)
	s.setDurationPtr("drain-timeout", ec.DrainTimeout, &cfg.DrainTimeout)
	s.setDurationPtr("timeout", ec.HTTPTimeout, &cfg.HTTPTimeout)

	s.setBool("from-start", ec.FromStart, &cfg.FromStart)

	return nil
}
