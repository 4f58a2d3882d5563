// Package ratelimit provides the Rate Gate shared between a chat provider
// and the dispatcher.
//
// A provider that receives a throttle signal moves the gate forward with
// [Gate.Delay] or [Gate.DelayUntil]; the dispatcher calls [Gate.Wait] before
// every flush attempt. Reads copy the deadline out under the lock, so a waiter
// never holds the lock while sleeping.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package ratelimit
