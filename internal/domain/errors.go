package domain

import "errors"

// Domain errors represent error conditions in the wiresplit domain.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("wiresplit: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("wiresplit: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("wiresplit: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("wiresplit: invalid configuration")

	// ErrNoSources is returned when the agent is started without any source.
	ErrNoSources = errors.New("wiresplit: no sources configured")
)
