package matrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bft-labs/chatship/pkg/log"
	"github.com/bft-labs/chatship/pkg/sender"
)

// ProviderName identifies the Matrix provider in logs and errors.
const ProviderName = "matrix"

const (
	emsSuffix      = ".ems.host"
	maxErrorBody   = 4 << 10
	maxLimitedBody = 64 << 10
)

// Config holds the Matrix delivery settings.
type Config struct {
	// HomeServer is a base URL (https://matrix.example.org) or a bare
	// Element Matrix Services name, which expands to https://<name>.ems.host.
	HomeServer string

	// RoomID is the target room, e.g. !abcdef:example.org.
	RoomID string

	// AccessToken authenticates the bot user.
	AccessToken string
}

// Validate checks that every field needed for delivery is set.
func (c Config) Validate() error {
	if strings.TrimSpace(c.HomeServer) == "" {
		return fmt.Errorf("%w: matrix home server is required", sender.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.RoomID) == "" {
		return fmt.Errorf("%w: matrix room id is required", sender.ErrInvalidConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: matrix access token is required", sender.ErrInvalidConfig)
	}
	return nil
}

// Sender implements sender.Sender for a Matrix room.
type Sender struct {
	baseURL string
	roomID  string
	token   string

	gate   sender.RateGate
	client sender.HTTPClient
	logger log.Logger
	now    func() time.Time
}

type sendBody struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`
}

type limitedBody struct {
	RetryAfterMs *int64 `json:"retry_after_ms"`
}

// New creates a Matrix sender writing throttle deadlines to gate.
func New(cfg Config, gate sender.RateGate, opts ...sender.Option) (*Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base, err := BaseURL(cfg.HomeServer)
	if err != nil {
		return nil, err
	}
	o := sender.ApplyOptions(opts...)
	return &Sender{
		baseURL: base,
		roomID:  cfg.RoomID,
		token:   cfg.AccessToken,
		gate:    gate,
		client:  o.Client,
		logger:  o.Logger,
		now:     o.Now,
	}, nil
}

// Name returns the provider name.
func (s *Sender) Name() string { return ProviderName }

// Send posts text as one m.text event.
func (s *Sender) Send(ctx context.Context, text string) error {
	txn := TxnID(s.now(), text)
	endpoint := fmt.Sprintf("%s/_matrix/client/v3/rooms/%s/send/m.room.message/%s",
		s.baseURL, url.PathEscape(s.roomID), url.PathEscape(txn))

	payload, err := json.Marshal(sendBody{MsgType: "m.text", Body: text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &sender.TransportError{Op: "matrix send", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return s.rateLimited(resp.Body)
	case resp.StatusCode/100 == 2:
		_, _ = io.Copy(io.Discard, resp.Body)
		s.logger.Debug("matrix event sent", log.String("txn_id", txn))
		return nil
	default:
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("matrix: server returned %d: %s", resp.StatusCode, string(respBody))
	}
}

func (s *Sender) rateLimited(body io.Reader) error {
	var lb limitedBody
	if err := json.NewDecoder(io.LimitReader(body, maxLimitedBody)).Decode(&lb); err != nil {
		return fmt.Errorf("%w: %v", sender.ErrBodyParsing, err)
	}
	if lb.RetryAfterMs == nil || *lb.RetryAfterMs < 0 {
		return fmt.Errorf("%w: retry_after_ms missing", sender.ErrBodyParsing)
	}

	resumeAt := s.gate.DelayUntil(s.now().Add(time.Duration(*lb.RetryAfterMs) * time.Millisecond))
	return &sender.RateLimitError{Provider: ProviderName, ResumeAt: resumeAt}
}

// BaseURL normalizes a home server setting into a base URL without a
// trailing slash.
func BaseURL(homeServer string) (string, error) {
	hs := strings.TrimRight(strings.TrimSpace(homeServer), "/")
	if hs == "" {
		return "", fmt.Errorf("%w: matrix home server is required", sender.ErrInvalidConfig)
	}

	if !strings.Contains(hs, "://") {
		if !strings.ContainsAny(hs, ".:") {
			return "https://" + hs + emsSuffix, nil
		}
		hs = "https://" + hs
	}

	u, err := url.Parse(hs)
	if err != nil {
		return "", fmt.Errorf("%w: matrix home server: %v", sender.ErrInvalidConfig, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: matrix home server scheme %q", sender.ErrInvalidConfig, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: matrix home server has no host", sender.ErrInvalidConfig)
	}
	return hs, nil
}
