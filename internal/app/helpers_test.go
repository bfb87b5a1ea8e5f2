package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/internal/ports"
	"github.com/bft-labs/wiresplit/pkg/splitter"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, fields ...ports.Field) {}
func (nopLogger) Info(msg string, fields ...ports.Field)  {}
func (nopLogger) Warn(msg string, fields ...ports.Field)  {}
func (nopLogger) Error(msg string, fields ...ports.Field) {}
func (n nopLogger) With(fields ...ports.Field) ports.Logger {
	return n
}

// chunkStream replays fixed chunks, then reports end.
type chunkStream struct {
	id     string
	chunks [][]byte
	end    error
	closed bool
	reads  []int
}

func (s *chunkStream) ID() string { return s.id }

func (s *chunkStream) Read(ctx context.Context, p []byte) (int, error) {
	s.reads = append(s.reads, len(p))
	if len(s.chunks) == 0 {
		if s.end != nil {
			return 0, s.end
		}
		return 0, io.EOF
	}
	n := copy(p, s.chunks[0])
	if n < len(s.chunks[0]) {
		s.chunks[0] = s.chunks[0][n:]
	} else {
		s.chunks = s.chunks[1:]
	}
	return n, nil
}

func (s *chunkStream) Close() error {
	s.closed = true
	return nil
}

// blockingStream blocks until ctx ends.
type blockingStream struct{ id string }

func (s *blockingStream) ID() string { return s.id }
func (s *blockingStream) Read(ctx context.Context, p []byte) (int, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}
func (s *blockingStream) Close() error { return nil }

// listSource hands out its streams in order, then either ends or blocks.
type listSource struct {
	name      string
	streams   []ports.Stream
	block     bool
	openErr   error
	acceptErr []error
	mu        sync.Mutex
	closed    bool
}

func (s *listSource) Name() string                   { return s.name }
func (s *listSource) Open(ctx context.Context) error { return s.openErr }

func (s *listSource) Accept(ctx context.Context) (ports.Stream, error) {
	s.mu.Lock()
	if len(s.acceptErr) > 0 {
		err := s.acceptErr[0]
		s.acceptErr = s.acceptErr[1:]
		s.mu.Unlock()
		return nil, err
	}
	if len(s.streams) > 0 {
		st := s.streams[0]
		s.streams = s.streams[1:]
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return nil, io.EOF
}

func (s *listSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// recordingSink keeps a copy of every delivered message.
type recordingSink struct {
	mu       sync.Mutex
	messages []domain.Message
	batches  []int
	failures int
}

var errSinkDown = errors.New("sink down")

func (s *recordingSink) Deliver(ctx context.Context, batch *domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errSinkDown
	}
	s.messages = append(s.messages, batch.Messages...)
	s.batches = append(s.batches, batch.Size())
	return nil
}

func (s *recordingSink) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Message(nil), s.messages...)
}

func frameBytes(t *testing.T, frames ...splitter.Frame) []byte {
	t.Helper()
	var out []byte
	for _, f := range frames {
		var err error
		if out, err = splitter.AppendFrame(out, f.Type, f.Payload); err != nil {
			t.Fatal(err)
		}
	}
	return out
}

func messageOf(payload int) domain.Message {
	return domain.Message{Payload: make([]byte, payload)}
}
