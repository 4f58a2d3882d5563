package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Provider string `toml:"provider"`

	HomeServer  string `toml:"home_server"`
	RoomID      string `toml:"room_id"`
	AccessToken string `toml:"access_token"`
	User        string `toml:"user"`
	Password    string `toml:"password"`

	WebhookURL string `toml:"webhook_url"`
	Username   string `toml:"username"`
	IconURL    string `toml:"icon_url"`

	MaxBatch      int    `toml:"max_batch"`
	MaxRetries    int    `toml:"max_retries"`
	FlushInterval string `toml:"flush_interval"`
	SendTimeout   string `toml:"send_timeout"`
	DrainTimeout  string `toml:"drain_timeout"`
	HTTPTimeout   string `toml:"http_timeout"`

	LogLevel    string `toml:"log_level"`
	MetricsAddr string `toml:"metrics_addr"`

	WatchFile string `toml:"watch_file"`
	FromStart *bool  `toml:"from_start"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.chatship/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".chatship", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("provider", fc.Provider, &cfg.Provider)
	s.setString("home-server", fc.HomeServer, &cfg.HomeServer)
	s.setString("room-id", fc.RoomID, &cfg.RoomID)
	s.setString("access-token", fc.AccessToken, &cfg.AccessToken)
	s.setString("user", fc.User, &cfg.User)
	s.setString("password", fc.Password, &cfg.Password)
	s.setString("webhook-url", fc.WebhookURL, &cfg.WebhookURL)
	s.setString("username", fc.Username, &cfg.Username)
	s.setString("icon-url", fc.IconURL, &cfg.IconURL)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("file", fc.WatchFile, &cfg.WatchFile)

	s.setInt("max-batch", fc.MaxBatch, &cfg.MaxBatch)
	s.setInt("max-retries", fc.MaxRetries, &cfg.MaxRetries)

	if err := s.setDuration("flush-interval", fc.FlushInterval, &cfg.FlushInterval); err != nil {
		return err
	}
	if err := s.setDuration("send-timeout", fc.SendTimeout, &cfg.SendTimeout); err != nil {
		return err
	}
	if err := s.setDuration("drain-timeout", fc.DrainTimeout, &cfg.DrainTimeout); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setBool("from-start", fc.FromStart, &cfg.FromStart)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
