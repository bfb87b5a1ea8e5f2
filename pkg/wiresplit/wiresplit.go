package wiresplit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/bft-labs/wiresplit/internal/adapters/sink/discard"
	"github.com/bft-labs/wiresplit/internal/adapters/sink/dump"
	httpsink "github.com/bft-labs/wiresplit/internal/adapters/sink/http"
	"github.com/bft-labs/wiresplit/internal/adapters/source/file"
	"github.com/bft-labs/wiresplit/internal/adapters/source/tcp"
	"github.com/bft-labs/wiresplit/internal/adapters/source/ws"
	"github.com/bft-labs/wiresplit/internal/app"
	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/internal/ports"
	"github.com/bft-labs/wiresplit/pkg/tags"
)

// Errors returned by the lifecycle methods.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrNoSources       = domain.ErrNoSources
)

// Wiresplit is a framing agent that can be embedded in other applications.
// Use New() to create an instance, then Start() to begin framing.
type Wiresplit struct {
	config    Config
	lifecycle *app.Lifecycle
	agent     *app.Agent
	tags      *tags.Registry
	logger    ports.Logger
	plugins   []Plugin

	mu          sync.Mutex
	done        chan struct{}
	runErr      error
	pluginsLive bool
}

// New creates a new Wiresplit instance with the given configuration.
// The instance is created in StateStopped; call Start() to begin.
func New(cfg Config, opts ...Option) (*Wiresplit, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions(&http.Client{Timeout: cfg.HTTPTimeout})
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger

	registry := tags.NewRegistry()
	if cfg.TagsFile != "" {
		loaded, err := tags.LoadFile(cfg.TagsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
		}
		registry = loaded
	}

	sources := buildSources(cfg, logger)
	sources = append(sources, o.sources...)
	if len(sources) == 0 {
		return nil, domain.ErrNoSources
	}

	sink := o.sink
	if sink == nil {
		sink = buildSink(cfg, o, registry, logger)
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}

	agentCfg := app.AgentConfig{
		Pump: app.PumpConfig{
			Capacity:      cfg.Capacity,
			FailFast:      cfg.FailFast,
			ReadSize:      cfg.ReadSize,
			MaxBatchBytes: cfg.MaxBatchBytes,
		},
		Once: cfg.Once,
	}

	return &Wiresplit{
		config:    cfg,
		lifecycle: app.NewLifecycle(logger, emitter),
		agent:     app.NewAgent(agentCfg, sources, sink, logger, emitter),
		tags:      registry,
		logger:    logger,
		plugins:   o.plugins,
	}, nil
}

func buildSources(cfg Config, logger ports.Logger) []ports.Source {
	var sources []ports.Source
	if cfg.File != "" {
		sources = append(sources, file.New(file.Config{
			Path:         cfg.File,
			Follow:       cfg.Follow,
			PollInterval: cfg.PollInterval,
		}, logger))
	}
	if cfg.Listen != "" {
		sources = append(sources, tcp.New(tcp.Config{Addr: cfg.Listen}, logger))
	}
	if cfg.WSListen != "" {
		sources = append(sources, ws.New(ws.Config{Addr: cfg.WSListen}, logger))
	}
	return sources
}

func buildSink(cfg Config, o options, registry *tags.Registry, logger ports.Logger) ports.Sink {
	switch cfg.Sink {
	case SinkHTTP:
		return httpsink.NewSender(o.httpClient, httpsink.Config{
			ServiceURL:        cfg.ServiceURL,
			AuthKey:           cfg.AuthKey,
			RequestsPerSecond: cfg.HTTPRate,
		}, logger)
	case SinkDiscard:
		return discard.New()
	default:
		out := o.output
		if out == nil {
			out = os.Stdout
		}
		return dump.New(out, registry, cfg.Hexdump)
	}
}

// Start begins framing in the background and returns immediately.
// Returns ErrAlreadyRunning if the instance is not stopped.
// The provided context bounds the lifetime of the agent.
func (w *Wiresplit) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := w.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.lifecycle.SetCancel(cancel)
	w.done = make(chan struct{})
	w.runErr = nil

	pluginCfg := PluginConfig{
		TagsFile: w.config.TagsFile,
		Tags:     w.tags,
		Logger:   w.logger,
	}
	for i, p := range w.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			w.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			shutdownPlugins(w.plugins[:i], w.logger)
			w.runErr = err
			close(w.done)
			_ = w.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		w.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}
	w.pluginsLive = true

	done := w.done
	w.lifecycle.AddWorker()
	go func() {
		defer close(done)
		defer w.lifecycle.WorkerDone()

		if err := w.lifecycle.TransitionTo(app.StateRunning, "agent starting"); err != nil {
			w.logger.Debug("not entering running state", ports.Err(err))
			return
		}

		err := w.agent.Run(runCtx)

		w.mu.Lock()
		w.runErr = err
		w.mu.Unlock()

		switch {
		case errors.Is(err, context.Canceled):
			// Stop() owns the transitions once it has moved us to Stopping.
			w.mu.Lock()
			selfStop := w.lifecycle.State() == app.StateRunning &&
				w.lifecycle.TransitionTo(app.StateStopping, "context canceled") == nil
			w.mu.Unlock()
			if selfStop {
				w.stopPlugins()
				_ = w.lifecycle.TransitionTo(app.StateStopped, "context canceled")
			}
		case err != nil:
			w.logger.Error("agent error", ports.Err(err))
			w.stopPlugins()
			_ = w.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		default:
			w.stopPlugins()
			if w.lifecycle.TransitionTo(app.StateStopping, "sources exhausted") == nil {
				_ = w.lifecycle.TransitionTo(app.StateStopped, "sources exhausted")
			}
		}
	}()

	return nil
}

// Stop cancels the agent and waits for every stream to finish.
// Waits up to 30 seconds before giving up.
// Returns nil on graceful shutdown, ErrShutdownTimeout if forced.
func (w *Wiresplit) Stop() error {
	w.mu.Lock()
	if !w.lifecycle.CanStop() {
		done := w.done
		stopping := w.lifecycle.State() == app.StateStopping
		w.mu.Unlock()
		if stopping && done != nil {
			// Already winding down on its own.
			<-done
			return nil
		}
		return domain.ErrNotRunning
	}
	if err := w.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		w.mu.Unlock()
		return err
	}
	w.lifecycle.Cancel()
	w.mu.Unlock()

	err := w.lifecycle.WaitWithTimeout(app.ShutdownTimeout)
	w.stopPlugins()

	if err != nil {
		_ = w.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = w.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Wait blocks until the agent finishes and returns why it stopped.
// Cancellation through Stop() or the Start context yields nil.
func (w *Wiresplit) Wait() error {
	w.mu.Lock()
	done := w.done
	w.mu.Unlock()
	if done == nil {
		return domain.ErrNotRunning
	}
	<-done

	w.mu.Lock()
	defer w.mu.Unlock()
	if errors.Is(w.runErr, context.Canceled) {
		return nil
	}
	return w.runErr
}

// Done returns a channel closed when the agent finishes, or nil before
// the first Start.
func (w *Wiresplit) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.done
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (w *Wiresplit) Status() State {
	return convertState(w.lifecycle.State())
}

// Tags returns the registry naming message types.
func (w *Wiresplit) Tags() *tags.Registry {
	return w.tags
}

func (w *Wiresplit) stopPlugins() {
	w.mu.Lock()
	live := w.pluginsLive
	w.pluginsLive = false
	w.mu.Unlock()
	if live {
		shutdownPlugins(w.plugins, w.logger)
	}
}

// shutdownPlugins shuts plugins down in reverse order.
func shutdownPlugins(plugins []Plugin, logger ports.Logger) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnStreamOpen(source, streamID string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStreamOpen(StreamOpenEvent{Source: source, StreamID: streamID})
}

func (e *eventEmitterWrapper) OnStreamClose(streamID string, stats domain.StreamStats, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnStreamClose(StreamCloseEvent{
		StreamID: streamID,
		Chunks:   stats.Chunks,
		Bytes:    stats.Bytes,
		Frames:   stats.Frames,
		Err:      err,
	})
}
