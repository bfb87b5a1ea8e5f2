package wiresplit

import (
	"io"
	"net/http"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/internal/ports"
	"github.com/bft-labs/wiresplit/pkg/log"
)

// Types used by custom sources and sinks.
type (
	// Logger is the structured logging interface from pkg/log.
	Logger = ports.Logger

	// HTTPClient sends requests for the http sink. *http.Client satisfies it.
	HTTPClient = ports.HTTPClient

	// Source produces streams. Accept returns io.EOF once exhausted.
	Source = ports.Source

	// Stream is a context-aware byte stream.
	Stream = ports.Stream

	// Sink receives batches of reassembled messages.
	Sink = ports.Sink

	// Batch is a group of messages delivered together.
	Batch = domain.Batch

	// Message is one reassembled frame.
	Message = domain.Message
)

// LogField is a structured log field.
type LogField = ports.Field

// Field constructors for plugins and custom sources.
var (
	LogString = ports.String
	LogInt    = ports.Int
	LogErr    = ports.Err
)

// Option configures optional behavior of Wiresplit.
type Option func(*options)

type options struct {
	httpClient   ports.HTTPClient
	logger       ports.Logger
	eventHandler EventHandler
	sink         ports.Sink
	sources      []ports.Source
	output       io.Writer
	plugins      []Plugin
}

func defaultOptions(client *http.Client) options {
	return options{
		httpClient: client,
		logger:     log.NewNoopLogger(),
	}
}

// WithHTTPClient sets the client used by the http sink.
// If not provided, a default client with the configured timeout is used.
func WithHTTPClient(client HTTPClient) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for wiresplit events.
// If not provided, no events are emitted.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithSink replaces the configured built-in sink.
func WithSink(sink Sink) Option {
	return func(o *options) {
		o.sink = sink
	}
}

// WithSource adds a source next to the ones described by Config.
func WithSource(src Source) Option {
	return func(o *options) {
		o.sources = append(o.sources, src)
	}
}

// WithOutput sets where the dump sink writes. Defaults to os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.output = w
	}
}

// WithPlugin registers a plugin to be initialized when Wiresplit starts.
// Plugins are initialized in registration order and shut down in reverse
// order.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}
