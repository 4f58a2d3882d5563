package ports

import "github.com/bft-labs/chatship/pkg/log"

// Logger is the structured logger used by the application core.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for the application core.
var (
	String   = log.String
	Strings  = log.Strings
	Int      = log.Int
	Bool     = log.Bool
	Duration = log.Duration
	Time     = log.Time
	Err      = log.Err
)
