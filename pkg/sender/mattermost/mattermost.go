// Package mattermost delivers chatship batches through a Mattermost incoming
// webhook.
//
// Throttling is read from the X-Ratelimit-Remaining and X-Ratelimit-Reset
// response headers. Reset is a unix timestamp in seconds.
package mattermost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/chatship/pkg/log"
	"github.com/bft-labs/chatship/pkg/sender"
)

// ProviderName identifies the Mattermost provider in logs and errors.
const ProviderName = "mattermost"

// Defaults for the post author.
const (
	DefaultUsername = "bot"
	DefaultIconURL  = "https://mattermost.com/wp-content/uploads/2022/02/icon.png"
)

// Throttle headers.
const (
	HeaderRemaining = "X-Ratelimit-Remaining"
	HeaderReset     = "X-Ratelimit-Reset"
)

// DefaultFallbackDelay holds the gate after a delivery that spent the quota
// without a usable reset header.
const DefaultFallbackDelay = 5 * time.Second

const maxErrorBody = 4 << 10

// Config holds the webhook settings.
type Config struct {
	WebhookURL string
	Username   string
	IconURL    string

	// FallbackDelay is how long the gate is held when a post is accepted
	// with no remaining quota and an unparseable reset header.
	FallbackDelay time.Duration
}

// SetDefaults fills empty fields.
func (c *Config) SetDefaults() {
	if c.Username == "" {
		c.Username = DefaultUsername
	}
	if c.IconURL == "" {
		c.IconURL = DefaultIconURL
	}
	if c.FallbackDelay <= 0 {
		c.FallbackDelay = DefaultFallbackDelay
	}
}

// Validate checks the webhook URL.
func (c Config) Validate() error {
	if strings.TrimSpace(c.WebhookURL) == "" {
		return fmt.Errorf("%w: mattermost webhook url is required", sender.ErrInvalidConfig)
	}
	u, err := url.Parse(c.WebhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: mattermost webhook url %q", sender.ErrInvalidConfig, c.WebhookURL)
	}
	return nil
}

// Sender implements sender.Sender for a Mattermost webhook.
type Sender struct {
	cfg    Config
	gate   sender.RateGate
	client sender.HTTPClient
	logger log.Logger
	now    func() time.Time
}

type message struct {
	Text     string `json:"text"`
	Username string `json:"username"`
	IconURL  string `json:"icon_url"`
}

// New creates a Mattermost sender writing throttle deadlines to gate.
func New(cfg Config, gate sender.RateGate, opts ...sender.Option) (*Sender, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := sender.ApplyOptions(opts...)
	return &Sender{
		cfg:    cfg,
		gate:   gate,
		client: o.Client,
		logger: o.Logger,
		now:    o.Now,
	}, nil
}

// Name returns the provider name.
func (s *Sender) Name() string { return ProviderName }

// Send posts text to the webhook.
func (s *Sender) Send(ctx context.Context, text string) error {
	payload, err := json.Marshal(message{
		Text:     text,
		Username: s.cfg.Username,
		IconURL:  s.cfg.IconURL,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &sender.TransportError{Op: "mattermost send", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		resumeAt, err := parseReset(resp.Header)
		if err != nil {
			return err
		}
		resumeAt = s.gate.DelayUntil(resumeAt)
		return &sender.RateLimitError{Provider: ProviderName, ResumeAt: resumeAt}

	case resp.StatusCode/100 == 2:
		_, _ = io.Copy(io.Discard, resp.Body)
		if strings.TrimSpace(resp.Header.Get(HeaderRemaining)) != "0" {
			return nil
		}
		// Delivered, but the quota is spent: hold the next flush until reset.
		// The post was accepted, so a bad reset header must not fail it.
		resumeAt, err := parseReset(resp.Header)
		if err != nil {
			resumeAt = s.gate.DelayUntil(s.now().Add(s.cfg.FallbackDelay))
			s.logger.Warn("mattermost quota exhausted without a usable reset header",
				log.Err(err),
				log.Time("resume_at", resumeAt),
			)
			return nil
		}
		resumeAt = s.gate.DelayUntil(resumeAt)
		s.logger.Debug("mattermost quota exhausted",
			log.Time("resume_at", resumeAt),
			log.Duration("wait", resumeAt.Sub(s.now())),
		)
		return nil

	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("mattermost: server returned %d: %s", resp.StatusCode, string(respBody))
	}
}

func parseReset(h http.Header) (time.Time, error) {
	raw := strings.TrimSpace(h.Get(HeaderReset))
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: %s missing", sender.ErrHeaderParsing, HeaderReset)
	}
	secs, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || secs < 0 {
		return time.Time{}, fmt.Errorf("%w: %s=%q", sender.ErrHeaderParsing, HeaderReset, raw)
	}
	return time.Unix(secs, 0), nil
}
