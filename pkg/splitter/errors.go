package splitter

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is returned when buffered bytes plus an incoming
	// chunk, or a single announced frame, do not fit in the buffer.
	ErrCapacityExceeded = errors.New("splitter: capacity exceeded")

	// ErrInvalidCapacity is returned by New for capacities below HeaderSize.
	ErrInvalidCapacity = errors.New("splitter: invalid capacity")

	// ErrBroken is returned by every call after a fatal error.
	ErrBroken = errors.New("splitter: unusable after fatal error")

	// ErrCorrupt reports an internal invariant violation.
	ErrCorrupt = errors.New("splitter: corrupt state")

	// ErrPayloadTooLarge is returned by AppendFrame for payloads whose length
	// does not fit the 32-bit length field.
	ErrPayloadTooLarge = errors.New("splitter: payload too large")
)

// CapacityError describes a rejected chunk or frame.
type CapacityError struct {
	Capacity int
	Buffered int
	Incoming int
	// Frame is the on-wire size announced by a header, when the failure was
	// detected at header time. Zero otherwise.
	Frame uint64
}

func (e *CapacityError) Error() string {
	if e.Frame > 0 {
		return fmt.Sprintf("splitter: frame of %d bytes exceeds capacity %d", e.Frame, e.Capacity)
	}
	return fmt.Sprintf("splitter: %d buffered + %d incoming bytes exceeds capacity %d",
		e.Buffered, e.Incoming, e.Capacity)
}

// Is makes errors.Is(err, ErrCapacityExceeded) match.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}
