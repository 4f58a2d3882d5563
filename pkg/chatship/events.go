package chatship

import (
	"time"

	"github.com/bft-labs/chatship/internal/app"
	"github.com/bft-labs/chatship/internal/ports"
)

// State is the lifecycle state of a Client.
type State int

const (
	StateRunning State = iota
	StateStopping
	StateStopped
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Phase is the position of the background dispatcher.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseAccumulating
	PhaseFlushing
	PhaseDraining
	PhaseStopped
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	return app.Phase(p).String()
}

// StateChangeEvent is emitted when the client changes lifecycle state.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// FlushSuccessEvent is emitted after the provider accepted a batch.
type FlushSuccessEvent struct {
	Messages int
	Bytes    int
	Duration time.Duration
}

// RateLimitedEvent is emitted when the provider throttled a batch.
// The batch is retried unchanged at or after ResumeAt.
type RateLimitedEvent struct {
	ResumeAt time.Time
	Messages int
}

// FlushErrorEvent is emitted after a failed delivery attempt.
type FlushErrorEvent struct {
	Error    error
	Messages int
	Attempt  int
}

// DiscardEvent is emitted when a batch is dropped, either after too many
// failed attempts or on shutdown.
type DiscardEvent struct {
	Messages []string
	Attempts int
}

// EventHandler receives client events. Methods are called synchronously from
// the dispatcher goroutine and must return quickly.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnFlushSuccess(FlushSuccessEvent)
	OnRateLimited(RateLimitedEvent)
	OnFlushError(FlushErrorEvent)
	OnDiscard(DiscardEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnFlushSuccess(FlushSuccessEvent) {}
func (BaseEventHandler) OnRateLimited(RateLimitedEvent)   {}
func (BaseEventHandler) OnFlushError(FlushErrorEvent)     {}
func (BaseEventHandler) OnDiscard(DiscardEvent)           {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

var (
	_ ports.EventEmitter = (*eventEmitterWrapper)(nil)
	_ app.EventEmitter   = (*eventEmitterWrapper)(nil)
)

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnFlushSuccess(messages, bytes int, took time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushSuccess(FlushSuccessEvent{Messages: messages, Bytes: bytes, Duration: took})
}

func (e *eventEmitterWrapper) OnRateLimited(resumeAt time.Time, messages int) {
	if e.handler == nil {
		return
	}
	e.handler.OnRateLimited(RateLimitedEvent{ResumeAt: resumeAt, Messages: messages})
}

func (e *eventEmitterWrapper) OnFlushError(err error, messages, attempt int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushError(FlushErrorEvent{Error: err, Messages: messages, Attempt: attempt})
}

func (e *eventEmitterWrapper) OnDiscard(messages []string, attempts int) {
	if e.handler == nil {
		return
	}
	e.handler.OnDiscard(DiscardEvent{Messages: messages, Attempts: attempts})
}

func convertState(s app.State) State {
	switch s {
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	default:
		return StateStopped
	}
}
