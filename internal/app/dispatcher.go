package app

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/bft-labs/chatship/internal/domain"
	"github.com/bft-labs/chatship/internal/ports"
)

// Default dispatcher configuration values.
const (
	DefaultMaxBatch      = 10
	DefaultFlushInterval = 5 * time.Second
	DefaultMaxRetries    = 50
	DefaultSendTimeout   = 30 * time.Second
	DefaultDrainTimeout  = 30 * time.Second
)

// DispatcherConfig contains configuration for the dispatch loop.
type DispatcherConfig struct {
	// MaxBatch is the number of pending messages that forces a flush.
	MaxBatch int

	// FlushInterval is the timer period after which a non-full batch is flushed.
	FlushInterval time.Duration

	// MaxRetries is the number of consecutive failures after which a batch
	// is discarded. Rate limit rejections do not count.
	MaxRetries int

	// SendTimeout bounds a single Sender call. Zero means no bound.
	SendTimeout time.Duration

	// DrainTimeout bounds the final flush attempts after the queue closes.
	// Zero abandons the pending batch immediately.
	DrainTimeout time.Duration
}

// SetDefaults fills zero fields with defaults.
func (c *DispatcherConfig) SetDefaults() {
	if c.MaxBatch <= 0 {
		c.MaxBatch = DefaultMaxBatch
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
}

type flushResult int

const (
	flushDelivered flushResult = iota
	flushRateLimited
	flushFailed
	flushDiscarded
	flushAborted
)

// Dispatcher drains the queue, batches messages and flushes them through the
// Sender. The pending batch and the retry counter are owned by the goroutine
// running Run.
type Dispatcher struct {
	cfg     DispatcherConfig
	queue   *Queue
	sender  ports.Sender
	gate    ports.RateGate
	logger  ports.Logger
	emitter ports.EventEmitter
	batcher *Batcher

	retries int

	phase   atomic.Int32
	pending atomic.Int64

	throttled rate.Sometimes
}

// NewDispatcher creates a dispatcher reading from queue.
func NewDispatcher(
	cfg DispatcherConfig,
	queue *Queue,
	sender ports.Sender,
	gate ports.RateGate,
	logger ports.Logger,
	emitter ports.EventEmitter,
) *Dispatcher {
	cfg.SetDefaults()
	if emitter == nil {
		emitter = ports.Emitters(nil)
	}
	return &Dispatcher{
		cfg:       cfg,
		queue:     queue,
		sender:    sender,
		gate:      gate,
		logger:    logger,
		emitter:   emitter,
		batcher:   NewBatcher(cfg.MaxBatch),
		throttled: rate.Sometimes{First: 1, Interval: 30 * time.Second},
	}
}

// Phase returns the current dispatcher phase. Safe to call from any goroutine.
func (d *Dispatcher) Phase() Phase {
	return Phase(d.phase.Load())
}

// Pending returns the size of the pending batch. Safe to call from any goroutine.
func (d *Dispatcher) Pending() int {
	return int(d.pending.Load())
}

// Run executes the dispatch loop until the queue is closed and drained, or
// until ctx is canceled. Cancellation abandons whatever is still pending.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.setPhase(PhaseStopped)

	ticker := time.NewTicker(d.cfg.FlushInterval)
	defer ticker.Stop()

	in := d.queue.Out()

	for {
		if d.batcher.ShouldFlush() {
			d.setPhase(PhaseFlushing)
			switch d.flush(ctx) {
			case flushAborted:
				d.abandon("shutdown forced")
				return
			case flushRateLimited:
				// the gate already holds the new deadline
				continue
			}
			ticker.Reset(d.cfg.FlushInterval)
			d.batcher.ClearTimeout()
		}

		// Drain backlog before blocking again.
		if d.batcher.Full() {
			continue
		}

		d.settle()

		select {
		case msg, ok := <-in:
			if !ok {
				d.drain(ctx)
				return
			}
			d.batcher.Add(msg)
			d.pending.Add(1)
		case <-ticker.C:
			d.batcher.MarkTimedOut()
		case <-ctx.Done():
			d.abandon("shutdown forced")
			return
		}
	}
}

// flush makes one delivery attempt for the pending batch.
func (d *Dispatcher) flush(ctx context.Context) flushResult {
	if err := d.gate.Wait(ctx); err != nil {
		return flushAborted
	}

	batch := d.batcher.Batch()
	payload := batch.Payload()
	size := batch.Size()

	sendCtx, cancel := ctx, context.CancelFunc(func() {})
	if d.cfg.SendTimeout > 0 {
		sendCtx, cancel = context.WithTimeout(ctx, d.cfg.SendTimeout)
	}
	start := time.Now()
	err := d.sender.Send(sendCtx, payload)
	took := time.Since(start)
	cancel()

	if err == nil {
		d.logger.Debug("batch delivered",
			ports.String("provider", d.sender.Name()),
			ports.Int("messages", size),
			ports.Int("bytes", len(payload)),
			ports.Duration("duration", took),
		)
		d.emitter.OnFlushSuccess(size, len(payload), took)
		d.batcher.Reset()
		d.pending.Store(0)
		d.retries = 0
		return flushDelivered
	}

	if errors.Is(err, domain.ErrRateLimited) {
		resumeAt := d.gate.Until()
		var rl *domain.RateLimitError
		if errors.As(err, &rl) {
			resumeAt = d.gate.DelayUntil(rl.ResumeAt)
		}
		if !resumeAt.After(time.Now()) {
			// No usable deadline from the provider; wait one tick instead of spinning.
			resumeAt = d.gate.DelayUntil(time.Now().Add(d.cfg.FlushInterval))
		}
		d.logger.Debug("flush rate limited",
			ports.String("provider", d.sender.Name()),
			ports.Time("resume_at", resumeAt),
			ports.Int("messages", size),
		)
		d.throttled.Do(func() {
			d.logger.Warn("provider is rate limiting, holding batch",
				ports.String("provider", d.sender.Name()),
				ports.Duration("wait", time.Until(resumeAt)),
			)
		})
		d.emitter.OnRateLimited(resumeAt, size)
		return flushRateLimited
	}

	if ctx.Err() != nil {
		return flushAborted
	}

	d.retries++
	d.logger.Warn("flush failed",
		ports.String("provider", d.sender.Name()),
		ports.Err(err),
		ports.Int("attempt", d.retries),
		ports.Int("messages", size),
	)
	d.emitter.OnFlushError(err, size, d.retries)

	if d.retries >= d.cfg.MaxRetries {
		d.discard("max retries reached")
		return flushDiscarded
	}
	return flushFailed
}

// drain makes final flush attempts after the queue closed.
func (d *Dispatcher) drain(ctx context.Context) {
	d.setPhase(PhaseDraining)
	if !d.batcher.HasPending() {
		return
	}
	if d.cfg.DrainTimeout <= 0 {
		d.discard("closed with pending batch")
		return
	}

	drainCtx, cancel := context.WithTimeout(ctx, d.cfg.DrainTimeout)
	defer cancel()

	d.logger.Info("draining pending batch", ports.Int("messages", d.batcher.Batch().Size()))

	for d.batcher.HasPending() {
		switch d.flush(drainCtx) {
		case flushAborted:
			d.discard("drain timeout")
			return
		case flushFailed:
			select {
			case <-drainCtx.Done():
				d.discard("drain timeout")
				return
			case <-time.After(d.cfg.FlushInterval):
			}
		}
	}
}

// abandon folds the unread queue backlog into the pending batch and discards
// everything.
func (d *Dispatcher) abandon(reason string) {
	for _, msg := range d.queue.Abandon() {
		d.batcher.Add(msg)
	}
	d.discard(reason)
}

// discard drops the pending batch after logging every message in it.
func (d *Dispatcher) discard(reason string) {
	if !d.batcher.HasPending() {
		return
	}
	msgs := d.batcher.Batch().Messages()
	d.logger.Error("discarding batch",
		ports.String("provider", d.sender.Name()),
		ports.String("reason", reason),
		ports.Int("attempts", d.retries),
		ports.Strings("messages", msgs),
	)
	d.emitter.OnDiscard(msgs, d.retries)
	d.batcher.Reset()
	d.pending.Store(0)
	d.retries = 0
}

func (d *Dispatcher) settle() {
	if d.batcher.HasPending() {
		d.setPhase(PhaseAccumulating)
	} else {
		d.setPhase(PhaseIdle)
	}
}

func (d *Dispatcher) setPhase(p Phase) {
	prev := Phase(d.phase.Swap(int32(p)))
	if prev != p {
		d.logger.Debug("dispatcher phase", ports.String("from", prev.String()), ports.String("to", p.String()))
	}
}
