package ports

import (
	"context"
	"io"
)

// Source produces byte streams. A file source yields a single stream; a
// listener yields one stream per accepted connection.
type Source interface {
	// Name identifies the source in logs and events.
	Name() string

	// Open prepares the source (binds listeners, checks files).
	Open(ctx context.Context) error

	// Accept blocks until the next stream is available.
	// Returns io.EOF once the source will produce no more streams.
	Accept(ctx context.Context) (Stream, error)

	// Close releases the source. Streams already accepted stay open.
	Close() error
}

// Stream is one logical byte stream, framed independently of all others.
type Stream interface {
	// ID returns a unique identifier for the stream.
	ID() string

	// Read reads up to len(p) bytes. It returns io.EOF at end of stream and
	// ctx.Err() if the context ends first.
	Read(ctx context.Context, p []byte) (int, error)

	// Close releases the stream.
	Close() error
}

// ErrSourceDone indicates that a source will not produce more streams.
var ErrSourceDone = io.EOF
