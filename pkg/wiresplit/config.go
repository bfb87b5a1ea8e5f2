package wiresplit

import (
	"fmt"
	"time"

	"github.com/bft-labs/wiresplit/internal/domain"
	"github.com/bft-labs/wiresplit/pkg/splitter"
)

// Sink names understood by Config.Sink.
const (
	SinkDump    = "dump"
	SinkHTTP    = "http"
	SinkDiscard = "discard"
)

// Config holds the configuration for a Wiresplit instance.
// Use DefaultConfig() to get a Config with sensible defaults.
type Config struct {
	// File is a capture file to frame. Compressed files (.gz, .zst) are
	// decoded transparently.
	File string

	// Follow keeps reading File as it grows.
	Follow bool

	// PollInterval is how often a followed file is checked without a
	// change notification.
	PollInterval time.Duration

	// Listen is a TCP address; every accepted connection is one stream.
	Listen string

	// WSListen is a websocket address; every connection is one stream.
	WSListen string

	// Capacity is the per-stream reassembly buffer size in bytes.
	Capacity uint32

	// FailFast rejects a frame as soon as its header announces a length
	// that can never fit in Capacity.
	FailFast bool

	// ReadSize is the largest chunk read from a stream at once.
	ReadSize int

	// MaxBatchBytes bounds a single delivery; zero disables the limit.
	MaxBatchBytes int

	// Sink selects the built-in sink when WithSink is not used.
	Sink string

	// Hexdump adds a payload dump to the dump sink output.
	Hexdump bool

	// TagsFile is a TOML file naming message types for the dump sink.
	TagsFile string

	ServiceURL  string
	AuthKey     string
	HTTPTimeout time.Duration

	// HTTPRate caps http sink requests per second; zero means unlimited.
	HTTPRate float64

	// Once stops each source after its first stream.
	Once bool
}

// DefaultConfig returns a Config with default values and no sources.
func DefaultConfig() Config {
	c := Config{FailFast: true}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with default values.
func (c *Config) SetDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.Capacity == 0 {
		c.Capacity = splitter.DefaultCapacity
	}
	if c.ReadSize <= 0 {
		c.ReadSize = 4096
	}
	if c.Sink == "" {
		c.Sink = SinkDump
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 15 * time.Second
	}
}

// Validate reports configuration errors. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.Capacity < splitter.HeaderSize {
		return fmt.Errorf("%w: capacity must be at least %d bytes", domain.ErrInvalidConfig, splitter.HeaderSize)
	}
	if c.MaxBatchBytes < 0 {
		return fmt.Errorf("%w: max batch bytes must not be negative", domain.ErrInvalidConfig)
	}
	if c.Follow && c.File == "" {
		return fmt.Errorf("%w: follow requires a file", domain.ErrInvalidConfig)
	}
	switch c.Sink {
	case SinkDump, SinkDiscard:
	case SinkHTTP:
		if c.ServiceURL == "" {
			return fmt.Errorf("%w: service url is required for the http sink", domain.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown sink %q", domain.ErrInvalidConfig, c.Sink)
	}
	return nil
}
