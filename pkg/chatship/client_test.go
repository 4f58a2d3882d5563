package chatship

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/bft-labs/chatship/pkg/log"
)

type fakeSender struct {
	mu       sync.Mutex
	payloads []string
	block    bool
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(ctx context.Context, text string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, text)
	return nil
}

func (f *fakeSender) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, p := range f.payloads {
		out = append(out, strings.Split(p, "\n")...)
	}
	return out
}

type recordingHandler struct {
	BaseEventHandler
	mu       sync.Mutex
	states   []StateChangeEvent
	flushes  []FlushSuccessEvent
	discards []DiscardEvent
}

func (h *recordingHandler) OnStateChange(e StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states = append(h.states, e)
}

func (h *recordingHandler) OnFlushSuccess(e FlushSuccessEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushes = append(h.flushes, e)
}

func (h *recordingHandler) OnDiscard(e DiscardEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.discards = append(h.discards, e)
}

func testConfig() Config {
	return Config{FlushInterval: 20 * time.Millisecond, DrainTimeout: time.Second}
}

func closeCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"negative batch", Config{MaxBatch: -1}},
		{"negative interval", Config{FlushInterval: -time.Second}},
		{"negative retries", Config{MaxRetries: -3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeSender{}, nil, tt.cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("New() error = %v, want ErrInvalidConfig", err)
			}
		})
	}

	if _, err := New(nil, nil, Config{}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(nil sender) error = %v, want ErrInvalidConfig", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxBatch != 10 || cfg.MaxRetries != 50 || cfg.FlushInterval != 5*time.Second {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() error = %v", err)
	}
}

func TestClient_SendThenCloseDelivers(t *testing.T) {
	s := &fakeSender{}
	handler := &recordingHandler{}
	c, err := New(s, nil, testConfig(), WithLogger(log.NewNoopLogger()), WithEventHandler(handler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.Status() != StateRunning {
		t.Errorf("Status() = %v, want Running", c.Status())
	}
	if c.Provider() != "fake" {
		t.Errorf("Provider() = %q, want fake", c.Provider())
	}

	for _, m := range []string{"a", "b", "c"} {
		if err := c.Send(m); err != nil {
			t.Fatalf("Send(%q) error = %v", m, err)
		}
	}

	if err := c.Close(closeCtx(t)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := strings.Join(s.messages(), ","); got != "a,b,c" {
		t.Errorf("delivered %q, want a,b,c", got)
	}
	if c.Status() != StateStopped {
		t.Errorf("Status() = %v, want Stopped", c.Status())
	}
	if c.Phase() != PhaseStopped {
		t.Errorf("Phase() = %v, want Stopped", c.Phase())
	}
	if err := c.Send("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Close error = %v, want ErrClosed", err)
	}
	if err := c.Close(closeCtx(t)); !errors.Is(err, ErrAlreadyStopped) {
		t.Errorf("second Close() error = %v, want ErrAlreadyStopped", err)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.states) != 2 ||
		handler.states[0].Current != StateStopping ||
		handler.states[1].Current != StateStopped {
		t.Errorf("state events = %+v", handler.states)
	}
	if len(handler.flushes) == 0 {
		t.Error("no flush success events")
	}
}

func TestClient_CloseTimeoutDiscards(t *testing.T) {
	s := &fakeSender{block: true}
	handler := &recordingHandler{}
	cfg := Config{MaxBatch: 1, FlushInterval: time.Hour, SendTimeout: -1, DrainTimeout: time.Hour}
	c, err := New(s, nil, cfg, WithLogger(log.NewNoopLogger()), WithEventHandler(handler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_ = c.Send("stuck")
	deadline := time.Now().Add(2 * time.Second)
	for c.Phase() != PhaseFlushing && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Close(ctx); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("Close() error = %v, want ErrShutdownTimeout", err)
	}
	if c.Status() != StateStopped {
		t.Errorf("Status() = %v, want Stopped", c.Status())
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	if len(handler.discards) != 1 || handler.discards[0].Messages[0] != "stuck" {
		t.Errorf("discards = %+v, want [stuck]", handler.discards)
	}
}

func TestClient_CloseTimeoutReportsBacklog(t *testing.T) {
	s := &fakeSender{block: true}
	handler := &recordingHandler{}
	cfg := Config{FlushInterval: 20 * time.Millisecond, SendTimeout: -1, DrainTimeout: time.Hour}
	c, err := New(s, nil, cfg, WithLogger(log.NewNoopLogger()), WithEventHandler(handler))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var want []string
	for i := 0; i < 100; i++ {
		msg := fmt.Sprintf("burst %d", i)
		want = append(want, msg)
		if err := c.Send(msg); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
	}
	deadline := time.Now().Add(2 * time.Second)
	for c.Phase() != PhaseFlushing && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := c.Close(ctx); !errors.Is(err, ErrShutdownTimeout) {
		t.Fatalf("Close() error = %v, want ErrShutdownTimeout", err)
	}
	if n := c.Queued(); n != 0 {
		t.Errorf("Queued() = %d after Close, want 0", n)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	var got []string
	for _, d := range handler.discards {
		got = append(got, d.Messages...)
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("discarded %d of %d messages, want every message reported in order", len(got), len(want))
	}
}

type orderPlugin struct {
	name    string
	fail    bool
	greet   string
	journal *[]string
}

func (p *orderPlugin) Name() string { return p.name }

func (p *orderPlugin) Initialize(ctx context.Context, cfg PluginConfig) error {
	*p.journal = append(*p.journal, "init "+p.name)
	if p.fail {
		return errors.New("refused")
	}
	if p.greet != "" {
		return cfg.Send(p.greet)
	}
	return nil
}

func (p *orderPlugin) Shutdown(ctx context.Context) error {
	*p.journal = append(*p.journal, "shutdown "+p.name)
	return nil
}

func TestClient_PluginOrder(t *testing.T) {
	var journal []string
	s := &fakeSender{}
	c, err := New(s, nil, testConfig(),
		WithLogger(log.NewNoopLogger()),
		WithPlugin(&orderPlugin{name: "first", greet: "hello", journal: &journal}),
		WithPlugin(&orderPlugin{name: "second", journal: &journal}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := c.Close(closeCtx(t)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	want := "init first,init second,shutdown second,shutdown first"
	if got := strings.Join(journal, ","); got != want {
		t.Errorf("journal = %q, want %q", got, want)
	}
	if got := s.messages(); len(got) != 1 || got[0] != "hello" {
		t.Errorf("delivered %v, want [hello]", got)
	}
}

func TestClient_PluginInitFailure(t *testing.T) {
	var journal []string
	_, err := New(&fakeSender{}, nil, testConfig(),
		WithLogger(log.NewNoopLogger()),
		WithPlugin(&orderPlugin{name: "ok", journal: &journal}),
		WithPlugin(&orderPlugin{name: "bad", fail: true, journal: &journal}),
	)
	if err == nil {
		t.Fatal("New() succeeded, want plugin error")
	}

	want := "init ok,init bad,shutdown ok"
	if got := strings.Join(journal, ","); got != want {
		t.Errorf("journal = %q, want %q", got, want)
	}
}

func TestClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := New(&fakeSender{}, nil, testConfig(), WithLogger(log.NewNoopLogger()), WithMetrics(reg))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_ = c.Send("x")
	_ = c.Send("y")
	if err := c.Close(closeCtx(t)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	expected := `
# HELP chatship_dispatch_messages_delivered_total Total number of messages accepted by the provider.
# TYPE chatship_dispatch_messages_delivered_total counter
chatship_dispatch_messages_delivered_total{provider="fake"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "chatship_dispatch_messages_delivered_total"); err != nil {
		t.Error(err)
	}
}

func TestNewMattermost_Delivers(t *testing.T) {
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text     string `json:"text"`
			Username string `json:"username"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		texts = append(texts, body.Text)
		mu.Unlock()
	}))
	defer srv.Close()

	c, err := NewMattermost(MattermostConfig{WebhookURL: srv.URL}, testConfig(),
		WithHTTPClient(srv.Client()), WithLogger(log.NewNoopLogger()))
	if err != nil {
		t.Fatalf("NewMattermost() error = %v", err)
	}
	_ = c.Send("one")
	_ = c.Send("two")
	if err := c.Close(closeCtx(t)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got := strings.Join(texts, "\n"); got != "one\ntwo" {
		t.Errorf("posted %q, want one\\ntwo", got)
	}
}

func TestNewMattermost_SpentQuotaWithoutResetPostsOnce(t *testing.T) {
	var mu sync.Mutex
	posts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posts++
		mu.Unlock()
		w.Header().Set("X-Ratelimit-Remaining", "0")
	}))
	defer srv.Close()

	c, err := NewMattermost(MattermostConfig{WebhookURL: srv.URL}, testConfig(),
		WithHTTPClient(srv.Client()), WithLogger(log.NewNoopLogger()))
	if err != nil {
		t.Fatalf("NewMattermost() error = %v", err)
	}
	_ = c.Send("only once")
	time.Sleep(300 * time.Millisecond)
	if err := c.Close(closeCtx(t)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if posts != 1 {
		t.Errorf("webhook received %d posts, want 1", posts)
	}
}

func TestNewMatrix_LogsInWithoutToken(t *testing.T) {
	var mu sync.Mutex
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/_matrix/client/v3/login":
			_, _ = w.Write([]byte(`{"access_token":"fresh-token"}`))
		case strings.Contains(r.URL.Path, "/send/m.room.message/"):
			mu.Lock()
			auth = append(auth, r.Header.Get("Authorization"))
			mu.Unlock()
			_, _ = w.Write([]byte(`{"event_id":"$1"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := NewMatrix(context.Background(), MatrixConfig{
		HomeServer: srv.URL,
		RoomID:     "!room:example.org",
		User:       "bot",
		Password:   "pw",
	}, testConfig(), WithHTTPClient(srv.Client()), WithLogger(log.NewNoopLogger()))
	if err != nil {
		t.Fatalf("NewMatrix() error = %v", err)
	}
	_ = c.Send("ping")
	if err := c.Close(closeCtx(t)); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(auth) != 1 || auth[0] != "Bearer fresh-token" {
		t.Errorf("send auth headers = %v, want [Bearer fresh-token]", auth)
	}
}

func TestIsVersionCompatible(t *testing.T) {
	tests := []struct {
		version, min string
		want         bool
	}{
		{"1.0.0", "1.0.0", true},
		{"1.1.0", "1.0.0", true},
		{"1.0.1", "1.0.2", false},
		{"2.0.0", "1.9.9", true},
		{"0.9.0", "1.0.0", false},
	}
	for _, tt := range tests {
		if got := isVersionCompatible(tt.version, tt.min); got != tt.want {
			t.Errorf("isVersionCompatible(%q, %q) = %v, want %v", tt.version, tt.min, got, tt.want)
		}
	}
	if err := validateModuleVersions(); err != nil {
		t.Errorf("validateModuleVersions() error = %v", err)
	}
}

func TestStateAndPhaseStrings(t *testing.T) {
	if StateStopping.String() != "Stopping" || State(9).String() != "Unknown" {
		t.Error("unexpected State strings")
	}
	if PhaseDraining.String() != "Draining" {
		t.Errorf("PhaseDraining.String() = %q", PhaseDraining.String())
	}
}
