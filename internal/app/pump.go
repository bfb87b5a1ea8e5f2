package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/internal/ports"
	"github.com/bft-labs/wiresplit/pkg/splitter"
)

// DefaultReadSize is the largest chunk requested from a stream at once.
const DefaultReadSize = 4096

// maxDeliverAttempts bounds sink retries for a single batch.
const maxDeliverAttempts = 3

// ErrTruncatedStream is returned when a stream ends in the middle of a frame.
var ErrTruncatedStream = errors.New("wiresplit: stream ended inside a frame")

// PumpConfig controls how a stream is framed and delivered.
type PumpConfig struct {
	// Capacity is the splitter buffer size; zero means splitter.DefaultCapacity.
	Capacity uint32
	// FailFast rejects oversized headers as soon as they are parsed.
	FailFast bool
	// ReadSize is the largest chunk read at once; zero means DefaultReadSize.
	ReadSize int
	// MaxBatchBytes bounds a single delivery; zero disables the limit.
	MaxBatchBytes int
}

// Pump frames one stream and delivers its messages to a sink.
type Pump struct {
	config PumpConfig
	stream ports.Stream
	sink   ports.Sink
	logger ports.Logger
	now    func() time.Time
}

// NewPump creates a pump for stream.
func NewPump(config PumpConfig, stream ports.Stream, sink ports.Sink, logger ports.Logger) *Pump {
	if config.Capacity == 0 {
		config.Capacity = splitter.DefaultCapacity
	}
	if config.ReadSize <= 0 {
		config.ReadSize = DefaultReadSize
	}
	return &Pump{
		config: config,
		stream: stream,
		sink:   sink,
		logger: logger,
		now:    time.Now,
	}
}

// Run reads the stream until EOF, a framing error, or the end of ctx.
// Every frame completed before an error is delivered before Run returns.
func (p *Pump) Run(ctx context.Context) (domain.StreamStats, error) {
	var stats domain.StreamStats

	sp, err := splitter.New(
		splitter.WithCapacity(p.config.Capacity),
		splitter.WithFailFast(p.config.FailFast),
	)
	if err != nil {
		return stats, err
	}

	buf := make([]byte, p.config.ReadSize)
	batcher := NewBatcher(p.config.MaxBatchBytes)
	var seq uint64

	for {
		// Never read more than the splitter can hold, so overflow only
		// happens for frames that cannot fit at all.
		limit := min(len(buf), sp.Free())
		if limit == 0 {
			limit = len(buf)
		}

		n, readErr := p.stream.Read(ctx, buf[:limit])
		if n > 0 {
			stats.Chunks++
			stats.Bytes += uint64(n)
			at := p.now()

			feedErr := sp.Each(buf[:n], func(f splitter.Frame) error {
				seq++
				m := domain.Message{
					StreamID:   p.stream.ID(),
					Seq:        seq,
					Type:       f.Type,
					Payload:    f.Clone().Payload,
					ReceivedAt: at,
				}
				if !batcher.Fits(m) {
					if err := p.deliver(ctx, batcher); err != nil {
						return err
					}
				}
				stats.Frames++
				if batcher.Add(m) {
					return p.deliver(ctx, batcher)
				}
				return nil
			})

			// Frames completed before a framing error are still delivered.
			if feedErr == nil || sp.Err() != nil {
				if err := p.deliver(ctx, batcher); err != nil && feedErr == nil {
					feedErr = err
				}
			}
			if feedErr != nil {
				p.logger.Debug("splitter state", ports.String("splitter", sp.String()))
				return stats, feedErr
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				if sp.Buffered() > 0 {
					return stats, fmt.Errorf("%w: %d bytes buffered", ErrTruncatedStream, sp.Buffered())
				}
				return stats, nil
			}
			return stats, readErr
		}
	}
}

// deliver hands the pending batch to the sink, retrying with backoff.
func (p *Pump) deliver(ctx context.Context, batcher *Batcher) error {
	if !batcher.HasPending() {
		return nil
	}
	batch := batcher.Batch()

	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	var err error
	for attempt := 1; attempt <= maxDeliverAttempts; attempt++ {
		if err = p.sink.Deliver(ctx, batch); err == nil {
			batcher.Reset()
			return nil
		}
		p.logger.Warn("deliver failed",
			ports.Err(err),
			ports.Int("messages", batch.Size()),
			ports.Int("attempt", attempt),
		)
		if attempt == maxDeliverAttempts {
			break
		}
		if werr := b.Wait(ctx); werr != nil {
			return werr
		}
	}
	return fmt.Errorf("deliver batch: %w", err)
}
