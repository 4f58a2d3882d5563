package ports

import "time"

// EventEmitter receives dispatcher events. Calls are made synchronously
// from the dispatcher goroutine and must return quickly.
type EventEmitter interface {
	OnFlushSuccess(messages, bytes int, took time.Duration)
	OnRateLimited(resumeAt time.Time, messages int)
	OnFlushError(err error, messages, attempt int)
	OnDiscard(messages []string, attempts int)
}

// Emitters fans events out to several emitters in order.
type Emitters []EventEmitter

func (e Emitters) OnFlushSuccess(messages, bytes int, took time.Duration) {
	for _, em := range e {
		em.OnFlushSuccess(messages, bytes, took)
	}
}

func (e Emitters) OnRateLimited(resumeAt time.Time, messages int) {
	for _, em := range e {
		em.OnRateLimited(resumeAt, messages)
	}
}

func (e Emitters) OnFlushError(err error, messages, attempt int) {
	for _, em := range e {
		em.OnFlushError(err, messages, attempt)
	}
}

func (e Emitters) OnDiscard(messages []string, attempts int) {
	for _, em := range e {
		em.OnDiscard(messages, attempts)
	}
}
