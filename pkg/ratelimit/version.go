package ratelimit

// Version information for the ratelimit module.
const (
	Version              = "1.0.0"
	MinCompatibleVersion = "1.0.0"
)
