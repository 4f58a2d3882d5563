package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"CHATSHIP_PROVIDER":       "matrix",
				"CHATSHIP_HOME_SERVER":    "mybot",
				"CHATSHIP_ROOM_ID":        "!r:x",
				"CHATSHIP_ACCESS_TOKEN":   "tok",
				"CHATSHIP_MAX_BATCH":      "25",
				"CHATSHIP_FLUSH_INTERVAL": "750ms",
				"CHATSHIP_FROM_START":     "1",
			},
			changed: map[string]bool{},
			initial: Config{},
			expected: Config{
				Provider:      "matrix",
				HomeServer:    "mybot",
				RoomID:        "!r:x",
				AccessToken:   "tok",
				MaxBatch:      25,
				FlushInterval: 750 * time.Millisecond,
				FromStart:     true,
			},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"CHATSHIP_WEBHOOK_URL": "https://env/hooks/x",
				"CHATSHIP_USERNAME":    "env-bot",
			},
			changed: map[string]bool{"webhook-url": true},
			initial: Config{WebhookURL: "https://flag/hooks/y"},
			expected: Config{
				WebhookURL: "https://flag/hooks/y",
				Username:   "env-bot",
			},
		},
		{
			name: "returns error for invalid duration",
			envVars: map[string]string{
				"CHATSHIP_DRAIN_TIMEOUT": "not-a-duration",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid int",
			envVars: map[string]string{
				"CHATSHIP_MAX_RETRIES": "many",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "returns error for invalid bool",
			envVars: map[string]string{
				"CHATSHIP_FROM_START": "maybe",
			},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name: "explicit zero overrides, unset keeps value",
			envVars: map[string]string{
				"CHATSHIP_MAX_BATCH":    "0",
				"CHATSHIP_SEND_TIMEOUT": "0s",
			},
			changed: map[string]bool{},
			initial: Config{MaxBatch: 10, MaxRetries: 50, SendTimeout: time.Second},
			expected: Config{MaxBatch: 0, MaxRetries: 50, SendTimeout: 0},
		},
		{
			name: "handles bool 'false' as false",
			envVars: map[string]string{
				"CHATSHIP_FROM_START": "false",
			},
			changed:  map[string]bool{},
			initial:  Config{FromStart: true},
			expected: Config{FromStart: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ApplyEnvConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg != tt.expected {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CHATSHIP_TEST_DOTENV=from-file\nCHATSHIP_TEST_PRESET=from-file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CHATSHIP_TEST_PRESET", "from-env")
	// Registers cleanup for a variable the loader will set.
	t.Setenv("CHATSHIP_TEST_DOTENV", "")
	os.Unsetenv("CHATSHIP_TEST_DOTENV")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("CHATSHIP_TEST_DOTENV"); got != "from-file" {
		t.Errorf("CHATSHIP_TEST_DOTENV = %q, want from-file", got)
	}
	if got := os.Getenv("CHATSHIP_TEST_PRESET"); got != "from-env" {
		t.Errorf("CHATSHIP_TEST_PRESET = %q, want from-env (existing vars win)", got)
	}

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("LoadDotEnv(missing) error = %v", err)
	}
}
