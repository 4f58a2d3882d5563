// Package log provides the logging abstraction used across chatship.
//
// The dispatcher, the providers and the plugins log through the [Logger]
// interface. A zerolog-backed implementation and a no-op implementation are
// provided.
//
// # Usage
//
//	logger := log.NewStderrLogger(zerolog.InfoLevel)
//	logger.Info("batch delivered", log.Int("messages", 10))
//
// Use [NewNoopLogger] in tests. Any other logging library can be plugged in
// by implementing the four level methods.
//
// # Version
//
// Current version: 1.1.0
// Minimum compatible version: 1.0.0
package log
