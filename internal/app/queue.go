package app

import (
	"sync"

	"github.com/bft-labs/chatship/internal/domain"
)

// Queue is an unbounded FIFO hand-off from many producers to the single
// dispatcher goroutine. Enqueue never blocks on the consumer.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []string
	closed bool

	out     chan string
	done    chan struct{}
	stopped chan struct{}
	abandon sync.Once
}

// NewQueue creates a queue and starts its pump goroutine.
func NewQueue() *Queue {
	q := &Queue{
		out:     make(chan string),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	go q.pump()
	return q
}

// Enqueue appends msg. It fails with domain.ErrClosed once Close was called.
func (q *Queue) Enqueue(msg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return domain.ErrClosed
	}
	q.items = append(q.items, msg)
	q.cond.Signal()
	return nil
}

// Close stops intake. Messages already enqueued are still delivered on Out,
// after which Out is closed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Out is the consumer side. It is closed after Close once every queued
// message has been received.
func (q *Queue) Out() <-chan string {
	return q.out
}

// Len returns the number of messages not yet handed to the consumer.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Abandon stops intake and the pump, and returns every message the consumer
// has not received, in order. Only the consumer may call it, once it has
// stopped reading Out. Later calls return nil.
func (q *Queue) Abandon() []string {
	var rest []string
	q.abandon.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.cond.Broadcast()
		q.mu.Unlock()

		close(q.done)
		<-q.stopped

		q.mu.Lock()
		rest = q.items
		q.items = nil
		q.mu.Unlock()
	})
	return rest
}

func (q *Queue) pump() {
	defer close(q.stopped)
	defer close(q.out)
	for {
		q.mu.Lock()
		for len(q.items) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.items) == 0 {
			q.mu.Unlock()
			return
		}
		msg := q.items[0]
		q.items[0] = ""
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- msg:
		case <-q.done:
			q.mu.Lock()
			q.items = append([]string{msg}, q.items...)
			q.mu.Unlock()
			return
		}
	}
}
