package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/internal/ports"
	"github.com/bft-labs/wiresplit/pkg/splitter"
)

// AgentConfig contains configuration for the agent loop.
type AgentConfig struct {
	Pump PumpConfig

	// Once stops each source after its first stream.
	Once bool
}

// StreamEventEmitter is notified when streams open and close.
type StreamEventEmitter interface {
	OnStreamOpen(source, streamID string)
	OnStreamClose(streamID string, stats domain.StreamStats, err error)
}

// Agent accepts streams from every source and runs one pump per stream.
type Agent struct {
	config  AgentConfig
	sources []ports.Source
	sink    ports.Sink
	logger  ports.Logger
	emitter StreamEventEmitter
}

// NewAgent creates a new agent with the given dependencies.
// The sink is shared by all streams; the agent serialises deliveries.
func NewAgent(
	config AgentConfig,
	sources []ports.Source,
	sink ports.Sink,
	logger ports.Logger,
	emitter StreamEventEmitter,
) *Agent {
	return &Agent{
		config:  config,
		sources: sources,
		sink:    &lockedSink{sink: sink},
		logger:  logger,
		emitter: emitter,
	}
}

// Run opens every source and frames every stream they produce.
// It returns nil once all sources are exhausted and all streams have
// finished, or ctx.Err() when the context ends first.
func (a *Agent) Run(ctx context.Context) error {
	if len(a.sources) == 0 {
		return domain.ErrNoSources
	}

	opened := make([]ports.Source, 0, len(a.sources))
	defer func() {
		for _, src := range opened {
			if err := src.Close(); err != nil {
				a.logger.Warn("close source", ports.String("source", src.Name()), ports.Err(err))
			}
		}
	}()
	for _, src := range a.sources {
		if err := src.Open(ctx); err != nil {
			return err
		}
		opened = append(opened, src)
		a.logger.Info("source opened", ports.String("source", src.Name()))
	}

	var wg sync.WaitGroup
	for _, src := range opened {
		wg.Add(1)
		go func(src ports.Source) {
			defer wg.Done()
			a.acceptLoop(ctx, src, &wg)
		}(src)
	}
	wg.Wait()

	return ctx.Err()
}

func (a *Agent) acceptLoop(ctx context.Context, src ports.Source, wg *sync.WaitGroup) {
	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	for {
		stream, err := src.Accept(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				a.logger.Debug("source done", ports.String("source", src.Name()))
				return
			}
			a.logger.Error("accept error", ports.String("source", src.Name()), ports.Err(err))
			if b.Wait(ctx) != nil {
				return
			}
			continue
		}
		b.Reset()

		wg.Add(1)
		go func() {
			defer wg.Done()
			a.runStream(ctx, src.Name(), stream)
		}()

		if a.config.Once {
			return
		}
	}
}

func (a *Agent) runStream(ctx context.Context, source string, stream ports.Stream) {
	logger := a.logger.With(ports.String("stream", stream.ID()))
	defer func() {
		if err := stream.Close(); err != nil {
			logger.Debug("close stream", ports.Err(err))
		}
	}()

	if a.emitter != nil {
		a.emitter.OnStreamOpen(source, stream.ID())
	}
	logger.Info("stream opened", ports.String("source", source))

	start := time.Now()
	stats, err := NewPump(a.config.Pump, stream, a.sink, logger).Run(ctx)

	fields := []ports.Field{
		ports.Uint64("chunks", stats.Chunks),
		ports.Uint64("bytes", stats.Bytes),
		ports.Uint64("frames", stats.Frames),
		ports.Duration("duration", time.Since(start)),
	}
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		logger.Info("stream closed", fields...)
	case errors.Is(err, splitter.ErrCapacityExceeded):
		logger.Error("framing error, dropping stream", append(fields, ports.Err(err))...)
	default:
		logger.Warn("stream failed", append(fields, ports.Err(err))...)
	}

	if a.emitter != nil {
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		a.emitter.OnStreamClose(stream.ID(), stats, err)
	}
}

// lockedSink serialises deliveries from concurrent streams.
type lockedSink struct {
	mu   sync.Mutex
	sink ports.Sink
}

func (s *lockedSink) Deliver(ctx context.Context, batch *domain.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Deliver(ctx, batch)
}
