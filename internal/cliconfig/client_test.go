package cliconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bft-labs/chatship/pkg/chatship"
	"github.com/bft-labs/chatship/pkg/log"
)

func TestConfig_NewClient(t *testing.T) {
	var posts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts.Add(1)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.WebhookURL = srv.URL
	cfg.FlushInterval = 10 * time.Millisecond
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	c, err := cfg.NewClient(context.Background(), chatship.WithLogger(log.NewNoopLogger()))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	if c.Provider() != ProviderMattermost {
		t.Errorf("Provider() = %q, want %q", c.Provider(), ProviderMattermost)
	}

	_ = c.Send("hi")
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if posts.Load() != 1 {
		t.Errorf("posts = %d, want 1", posts.Load())
	}
}
