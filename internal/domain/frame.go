package domain

import "time"

// Message is a frame reassembled from a stream, detached from the splitter
// buffer so it can outlive the next read.
type Message struct {
	// StreamID identifies the stream the frame was read from.
	StreamID string

	// Seq is the 1-based position of the frame within its stream.
	Seq uint64

	// Type is the message type code from the frame header.
	Type uint32

	// Payload holds the frame payload bytes.
	Payload []byte

	// ReceivedAt is when the chunk completing the frame was read.
	ReceivedAt time.Time
}

// WireSize returns the on-wire size of the frame, header included.
func (m Message) WireSize() int {
	return 8 + len(m.Payload)
}

// StreamStats counts what a stream delivered.
type StreamStats struct {
	Chunks uint64
	Bytes  uint64
	Frames uint64
}
