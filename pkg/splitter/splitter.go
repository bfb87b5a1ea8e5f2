package splitter

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed size of a frame header: type (u32) + length (u32).
	HeaderSize = 8

	// DefaultCapacity is the buffer size used when no capacity is configured.
	DefaultCapacity = 16 * 1024
)

// Frame is one reassembled message.
//
// Payload aliases the splitter's internal buffer and is only valid until the
// next call to Feed or Each. Use Clone to keep it longer.
type Frame struct {
	Type    uint32
	Payload []byte
}

// Clone returns a copy of f whose payload no longer aliases the splitter.
func (f Frame) Clone() Frame {
	p := make([]byte, len(f.Payload))
	copy(p, f.Payload)
	return Frame{Type: f.Type, Payload: p}
}

// Size returns the on-wire size of the frame.
func (f Frame) Size() int {
	return HeaderSize + len(f.Payload)
}

type phase uint8

const (
	awaitingHeader phase = iota
	awaitingPayload
)

// Splitter reassembles length-prefixed frames from arbitrarily chunked input
// using a single fixed-size buffer. It is not safe for concurrent use.
type Splitter struct {
	buf      []byte
	start    int
	filled   int
	needed   int
	phase    phase
	typ      uint32
	failFast bool
	broken   error
}

// New creates a Splitter. Without options the capacity is DefaultCapacity and
// oversized headers are rejected as soon as they are parsed.
func New(opts ...Option) (*Splitter, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.capacity < HeaderSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, o.capacity)
	}
	return &Splitter{
		buf:      make([]byte, o.capacity),
		needed:   HeaderSize,
		phase:    awaitingHeader,
		failFast: o.failFast,
	}, nil
}

// Feed appends chunk to the buffered bytes and returns every frame that is
// now complete, in arrival order.
//
// If the chunk does not fit in the remaining capacity it is rejected without
// being appended and a *CapacityError is returned. Any error returned by Feed
// is fatal: the stream must be torn down and later calls return ErrBroken.
// When the error is raised while parsing a header, the frames extracted
// earlier in the same call are returned alongside it.
func (s *Splitter) Feed(chunk []byte) ([]Frame, error) {
	var frames []Frame
	err := s.Each(chunk, func(f Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}

// Each is the incremental form of Feed: fn is called for every complete
// frame as soon as it is extracted. If fn returns an error, iteration stops
// and the error is returned; the frame passed to fn is already consumed and
// the remaining bytes stay buffered for the next call.
//
// Payloads handed to fn stay valid until the next call to Feed or Each.
func (s *Splitter) Each(chunk []byte, fn func(Frame) error) error {
	if s.broken != nil {
		return s.broken
	}
	if err := s.check(); err != nil {
		return s.fail(err)
	}
	s.compact()

	if s.filled+len(chunk) > len(s.buf) {
		return s.fail(&CapacityError{
			Capacity: len(s.buf),
			Buffered: s.filled,
			Incoming: len(chunk),
		})
	}
	s.filled += copy(s.buf[s.filled:], chunk)

	for s.filled-s.start >= s.needed {
		switch s.phase {
		case awaitingHeader:
			typ, length := decodeHeader(s.buf[s.start : s.start+HeaderSize])
			if s.failFast && (uint64(length) > uint64(len(s.buf)-HeaderSize)) {
				return s.fail(&CapacityError{
					Capacity: len(s.buf),
					Buffered: s.Buffered(),
					Incoming: len(chunk),
					Frame:    uint64(length) + HeaderSize,
				})
			}
			s.typ = typ
			s.needed = HeaderSize + int(length)
			s.phase = awaitingPayload
		case awaitingPayload:
			end := s.start + s.needed
			f := Frame{Type: s.typ, Payload: s.buf[s.start+HeaderSize : end : end]}
			s.start = end
			s.needed = HeaderSize
			s.phase = awaitingHeader
			s.typ = 0
			if err := fn(f); err != nil {
				return err
			}
		}
	}

	if err := s.check(); err != nil {
		return s.fail(err)
	}
	return nil
}

// compact shifts the unconsumed bytes to offset zero. It runs at the start
// of a call so payloads from the previous call stay intact until then.
func (s *Splitter) compact() {
	if s.start == 0 {
		return
	}
	s.filled = copy(s.buf, s.buf[s.start:s.filled])
	s.start = 0
}

func (s *Splitter) fail(err error) error {
	s.broken = fmt.Errorf("%w: %w", ErrBroken, err)
	return err
}

func (s *Splitter) check() error {
	switch {
	case s.filled < 0 || s.filled > len(s.buf):
		return fmt.Errorf("%w: filled=%d capacity=%d", ErrCorrupt, s.filled, len(s.buf))
	case s.start < 0 || s.start > s.filled:
		return fmt.Errorf("%w: start=%d filled=%d", ErrCorrupt, s.start, s.filled)
	case s.needed < HeaderSize:
		return fmt.Errorf("%w: needed=%d", ErrCorrupt, s.needed)
	case s.phase == awaitingHeader && s.needed != HeaderSize:
		return fmt.Errorf("%w: awaiting header with needed=%d", ErrCorrupt, s.needed)
	}
	return nil
}

// Buffered returns the number of bytes held but not yet emitted.
func (s *Splitter) Buffered() int { return s.filled - s.start }

// Needed returns the number of buffered bytes required for the next parse
// step: HeaderSize while awaiting a header, header plus payload otherwise.
func (s *Splitter) Needed() int { return s.needed }

// Capacity returns the fixed buffer size.
func (s *Splitter) Capacity() int { return len(s.buf) }

// Free returns how many more bytes the next Feed can accept.
func (s *Splitter) Free() int { return len(s.buf) - s.Buffered() }

// Pending reports the type of the frame whose header has been parsed but
// whose payload is incomplete.
func (s *Splitter) Pending() (uint32, bool) {
	return s.typ, s.phase == awaitingPayload
}

// Err returns the fatal error that broke the splitter, if any.
func (s *Splitter) Err() error { return s.broken }

func (s *Splitter) String() string {
	return fmt.Sprintf("splitter{filled=%d needed=%d capacity=%d}", s.Buffered(), s.needed, len(s.buf))
}

func decodeHeader(b []byte) (typ, length uint32) {
	return binary.LittleEndian.Uint32(b[0:4]), binary.LittleEndian.Uint32(b[4:8])
}
