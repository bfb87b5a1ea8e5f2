package wiresplit

import "github.com/bft-labs/wiresplit/internal/app"

// State is the lifecycle state of a Wiresplit instance.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// StreamOpenEvent is emitted when a source produces a new stream.
type StreamOpenEvent struct {
	Source   string
	StreamID string
}

// StreamCloseEvent is emitted when a stream ends. Err is nil for a clean
// end of stream or shutdown.
type StreamCloseEvent struct {
	StreamID string
	Chunks   uint64
	Bytes    uint64
	Frames   uint64
	Err      error
}

// EventHandler receives notifications about wiresplit operations.
// Methods are called synchronously from the streaming goroutines and must
// be safe for concurrent use.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnStreamOpen(StreamOpenEvent)
	OnStreamClose(StreamCloseEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnStreamOpen(StreamOpenEvent)   {}
func (BaseEventHandler) OnStreamClose(StreamCloseEvent) {}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
