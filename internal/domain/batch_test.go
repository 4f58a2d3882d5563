package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBatch_AddPreservesOrder(t *testing.T) {
	b := NewBatch()
	if !b.Empty() {
		t.Fatal("new batch should be empty")
	}

	for _, m := range []string{"first", "second", "third"} {
		b.Add(m)
	}

	if b.Size() != 3 {
		t.Errorf("Size() = %d, want 3", b.Size())
	}
	if b.TotalBytes != len("first")+len("second")+len("third") {
		t.Errorf("TotalBytes = %d", b.TotalBytes)
	}
	if got, want := b.Payload(), "first\nsecond\nthird"; got != want {
		t.Errorf("Payload() = %q, want %q", got, want)
	}
}

func TestBatch_MessagesIsCopy(t *testing.T) {
	b := NewBatch()
	b.Add("a")

	msgs := b.Messages()
	msgs[0] = "mutated"

	if b.Payload() != "a" {
		t.Errorf("batch changed through Messages() copy: %q", b.Payload())
	}
}

func TestBatch_Reset(t *testing.T) {
	b := NewBatch()
	b.Add("a")
	b.Add("b")
	b.Reset()

	if !b.Empty() || b.TotalBytes != 0 {
		t.Errorf("Reset() left size=%d bytes=%d", b.Size(), b.TotalBytes)
	}
	if b.Payload() != "" {
		t.Errorf("Payload() after reset = %q", b.Payload())
	}
}

func TestRateLimitError_Is(t *testing.T) {
	resume := time.Now().Add(time.Second)
	var err error = fmt.Errorf("send: %w", &RateLimitError{Provider: "matrix", ResumeAt: resume})

	if !errors.Is(err, ErrRateLimited) {
		t.Fatal("wrapped RateLimitError should match ErrRateLimited")
	}

	var rl *RateLimitError
	if !errors.As(err, &rl) {
		t.Fatal("errors.As failed")
	}
	if !rl.ResumeAt.Equal(resume) {
		t.Errorf("ResumeAt = %v, want %v", rl.ResumeAt, resume)
	}
	if errors.Is(err, ErrHeaderParsing) {
		t.Error("RateLimitError must not match ErrHeaderParsing")
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := &TransportError{Op: "post webhook", Err: inner}

	if !errors.Is(err, inner) {
		t.Error("TransportError should unwrap to inner error")
	}
	if err.Error() != "post webhook: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}
