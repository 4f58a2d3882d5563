// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Sender]: Delivers one joined batch to a chat provider
//   - [RateGate]: Shared resume-not-before deadline set on throttling
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//   - [Logger]: Structured logging abstraction
//   - [EventEmitter]: Observability hooks fired by the dispatcher
//
// The application layer (internal/app) depends only on these interfaces.
// Providers (pkg/sender/...) and adapters (internal/adapters) implement them.
package ports
