package chatship

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bft-labs/chatship/internal/adapters/metrics"
	"github.com/bft-labs/chatship/internal/app"
	"github.com/bft-labs/chatship/internal/domain"
	"github.com/bft-labs/chatship/internal/ports"
	"github.com/bft-labs/chatship/pkg/log"
	"github.com/bft-labs/chatship/pkg/ratelimit"
	"github.com/bft-labs/chatship/pkg/sender"
	"github.com/bft-labs/chatship/pkg/sender/matrix"
	"github.com/bft-labs/chatship/pkg/sender/mattermost"
)

// Errors returned by the client.
var (
	ErrClosed          = domain.ErrClosed
	ErrAlreadyStopped  = domain.ErrAlreadyStopped
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
)

// MatrixConfig configures NewMatrix. When AccessToken is empty, User and
// Password are exchanged for a token at construction time.
type MatrixConfig struct {
	HomeServer  string
	RoomID      string
	AccessToken string
	User        string
	Password    string
}

// MattermostConfig configures NewMattermost.
type MattermostConfig = mattermost.Config

// Client accepts messages from any goroutine and delivers them in batches
// through a single background dispatcher.
type Client struct {
	config     Config
	lifecycle  *app.Lifecycle
	queue      *app.Queue
	dispatcher *app.Dispatcher
	sender     ports.Sender
	logger     ports.Logger
	plugins    []Plugin

	mu sync.Mutex
}

// New creates a client delivering through s and starts its dispatcher.
// gate must be the same RateGate s writes to; a nil gate is only valid for
// senders that never report throttling.
func New(s sender.Sender, gate sender.RateGate, cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: sender is required", ErrInvalidConfig)
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}

	o := applyOptions(cfg, opts)
	if gate == nil {
		gate = ratelimit.NewGate()
	}
	return start(s, gate, cfg, o)
}

// NewMatrix creates a client for a Matrix room. If cfg has no access token,
// it logs in with the configured user and password first.
func NewMatrix(ctx context.Context, mc MatrixConfig, cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}
	o := applyOptions(cfg, opts)

	token := mc.AccessToken
	if token == "" {
		var err error
		token, err = matrix.Login(ctx, o.httpClient, mc.HomeServer, mc.User, mc.Password)
		if err != nil {
			return nil, err
		}
		o.logger.Info("matrix login succeeded", log.String("user", mc.User))
	}

	gate := ratelimit.NewGate()
	s, err := matrix.New(matrix.Config{
		HomeServer:  mc.HomeServer,
		RoomID:      mc.RoomID,
		AccessToken: token,
	}, gate, sender.WithHTTPClient(o.httpClient), sender.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return start(s, gate, cfg, o)
}

// NewMattermost creates a client for a Mattermost incoming webhook.
func NewMattermost(mc MattermostConfig, cfg Config, opts ...Option) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := validateModuleVersions(); err != nil {
		return nil, err
	}
	o := applyOptions(cfg, opts)

	if mc.FallbackDelay <= 0 {
		mc.FallbackDelay = cfg.FlushInterval
	}
	gate := ratelimit.NewGate()
	s, err := mattermost.New(mc, gate, sender.WithHTTPClient(o.httpClient), sender.WithLogger(o.logger))
	if err != nil {
		return nil, err
	}
	return start(s, gate, cfg, o)
}

func applyOptions(cfg Config, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if o.logger == nil {
		o.logger = log.NewStderrLogger(zerolog.WarnLevel)
	}
	return o
}

func start(s ports.Sender, gate ports.RateGate, cfg Config, o options) (*Client, error) {
	wrapper := &eventEmitterWrapper{handler: o.eventHandler}
	emitters := ports.Emitters{wrapper}

	var dm *metrics.DispatchMetrics
	if o.registerer != nil {
		dm = metrics.NewDispatchMetrics(o.registerer, s.Name())
		emitters = append(emitters, dm)
	}

	queue := app.NewQueue()
	c := &Client{
		config:     cfg,
		lifecycle:  app.NewLifecycle(o.logger, wrapper),
		queue:      queue,
		dispatcher: app.NewDispatcher(cfg.dispatcherConfig(), queue, s, gate, o.logger, emitters),
		sender:     s,
		logger:     o.logger,
	}
	if dm != nil {
		dm.ObservePending(c.dispatcher.Pending)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.lifecycle.SetCancel(cancel)
	c.lifecycle.Go(func() {
		c.dispatcher.Run(runCtx)
	})

	pluginCfg := PluginConfig{Send: c.Send, Logger: o.logger}
	for _, p := range o.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			c.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			_ = c.Close(context.Background())
			return nil, err
		}
		c.plugins = append(c.plugins, p)
		c.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	c.logger.Debug("client started",
		ports.String("provider", s.Name()),
		ports.Int("max_batch", cfg.MaxBatch),
		ports.Duration("flush_interval", cfg.FlushInterval),
	)
	return c, nil
}

// Send enqueues msg for delivery. It never blocks on the network and
// returns ErrClosed once Close has been called.
func (c *Client) Send(msg string) error {
	if c.lifecycle.State() != app.StateRunning {
		return ErrClosed
	}
	return c.queue.Enqueue(msg)
}

// Close stops plugins in reverse order, stops accepting messages and waits
// for the dispatcher to drain the pending batch. If ctx expires first, the
// dispatcher is canceled, whatever is pending is discarded and
// ErrShutdownTimeout is returned.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.lifecycle.TransitionTo(app.StateStopping, "Close() called"); err != nil {
		return err
	}

	for i := len(c.plugins) - 1; i >= 0; i-- {
		p := c.plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			c.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			c.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}

	c.queue.Close()

	err := c.lifecycle.Wait(ctx)
	c.lifecycle.Cancel()
	if err != nil {
		// The canceled dispatcher discards its batch and the queue backlog, then exits.
		_ = c.lifecycle.Wait(context.Background())
	}

	reason := "drained"
	if err != nil {
		reason = "shutdown timeout"
	}
	_ = c.lifecycle.TransitionTo(app.StateStopped, reason)
	return err
}

// Status returns the current lifecycle state.
func (c *Client) Status() State {
	return convertState(c.lifecycle.State())
}

// Phase returns the current dispatcher phase.
func (c *Client) Phase() Phase {
	return Phase(c.dispatcher.Phase())
}

// Pending returns the number of messages in the pending batch.
func (c *Client) Pending() int {
	return c.dispatcher.Pending()
}

// Queued returns the number of messages waiting to enter the batch.
func (c *Client) Queued() int {
	return c.queue.Len()
}

// Provider returns the name of the underlying sender.
func (c *Client) Provider() string {
	return c.sender.Name()
}
