// Package chatship is an embeddable notification client for chat backends.
//
// Messages handed to [Client.Send] are queued without blocking, batched by a
// single background dispatcher and delivered through a provider: a Matrix
// room or a Mattermost incoming webhook, or any custom [sender.Sender].
//
// # Basic Usage
//
//	c, err := chatship.NewMattermost(chatship.MattermostConfig{
//	    WebhookURL: "https://chat.example.org/hooks/xyz",
//	}, chatship.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close(context.Background())
//
//	_ = c.Send("deploy finished")
//
// # Delivery Policy
//
// A batch is flushed when it holds MaxBatch messages or when FlushInterval
// elapses with messages pending. Messages of a batch are joined with a
// newline and delivered with one provider call. When the provider throttles,
// the batch is kept and retried unchanged once the rate gate opens; throttling
// never counts as a failure. Any other failure is retried on the next tick,
// and after MaxRetries consecutive failures the batch is logged at error
// level and discarded.
//
// # Shutdown
//
// [Client.Close] stops plugins, closes the queue and lets the dispatcher make
// final flush attempts for up to DrainTimeout. If the context passed to Close
// expires first, the pending batch is discarded and [ErrShutdownTimeout] is
// returned.
//
// # Event Handling
//
// Implement [EventHandler] (embedding [BaseEventHandler]) and pass it via
// [WithEventHandler] to observe flushes, throttling, failures and discards.
// [WithMetrics] exports the same events as Prometheus metrics.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// Use [ModuleVersions] to get versions of all sub-modules.
package chatship
