package ports

import "github.com/bft-labs/wiresplit/pkg/log"

// Logger is the structured logging abstraction used across the agent.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors re-exported for adapter and app code.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Uint32   = log.Uint32
	Uint64   = log.Uint64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Err      = log.Err
	Any      = log.Any
)
