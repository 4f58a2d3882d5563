// Package sender defines the provider side of chatship: the Sender capability,
// the shared RateGate it writes to when throttled, and the errors used to
// report the three possible outcomes of a delivery attempt.
//
// Concrete providers live in sub-packages:
//
//   - [github.com/bft-labs/chatship/pkg/sender/matrix]: Matrix client-server API
//   - [github.com/bft-labs/chatship/pkg/sender/mattermost]: Mattermost incoming webhooks
//
// # Outcomes
//
// Send returns nil when the provider accepted the batch. A throttle signal is
// reported with an error matching [ErrRateLimited]; the provider has already
// moved the RateGate to the resume time when it returns. Any other error is a
// generic failure and counts toward the dispatcher's give-up threshold. Use
// [Classify] to map an error to an [Outcome].
//
// # Custom Senders
//
// Implement the Sender interface to deliver to other destinations (Slack,
// Discord, a local file). Providers must perform at most one network call per
// Send and must not retry internally.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.1.0
//
// See version.go for version constants that can be used programmatically.
package sender
