// Package domain contains the core domain entities and value objects for chatship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, logging, providers) and
// contains only the message model and the error taxonomy.
//
// # Entities
//
//   - [Batch]: The ordered group of messages joined into one outbound payload
//   - [RateLimitError]: A provider throttle signal carrying the resume time
//   - [TransportError]: A network or protocol failure from the HTTP layer
//
// # Design Principles
//
// Domain entities are:
//   - Free of infrastructure dependencies
//   - Owned by a single goroutine unless documented otherwise
//   - Testable without mocks or external systems
package domain
