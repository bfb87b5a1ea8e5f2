// Package discard provides a sink that only counts what it receives.
package discard

import (
	"context"
	"sync/atomic"

	"github.com/bft-labs/wiresplit/internal/domain"
)

// Sink drops messages after counting them.
type Sink struct {
	messages atomic.Uint64
	bytes    atomic.Uint64
}

func New() *Sink { return &Sink{} }

func (s *Sink) Deliver(ctx context.Context, batch *domain.Batch) error {
	s.messages.Add(uint64(batch.Size()))
	s.bytes.Add(uint64(batch.TotalBytes))
	return nil
}

// Messages returns the number of messages delivered so far.
func (s *Sink) Messages() uint64 { return s.messages.Load() }

// Bytes returns the wire bytes delivered so far.
func (s *Sink) Bytes() uint64 { return s.bytes.Load() }
