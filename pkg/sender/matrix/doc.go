// Package matrix delivers chatship batches to a Matrix room through the
// client-server API (PUT /_matrix/client/v3/rooms/{room}/send/m.room.message/{txn}).
//
// A 429 response carries retry_after_ms in its JSON body; the sender moves
// the shared RateGate to now+retry_after_ms and reports the throttle as a
// [sender.RateLimitError]. Access tokens can be obtained with [Login].
package matrix
