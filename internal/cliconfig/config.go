package cliconfig

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/wiresplit/pkg/splitter"
)

// DefaultServiceURL is the default collector endpoint for the http sink.
const DefaultServiceURL = "http://localhost:8080"

// Sink names accepted by --sink.
const (
	SinkDump    = "dump"
	SinkHTTP    = "http"
	SinkDiscard = "discard"
)

// Config holds CLI configuration for wiresplit.
type Config struct {
	File     string
	Follow   bool
	Listen   string
	WSListen string

	Capacity      int
	FailFast      bool
	ReadSize      int
	MaxBatchBytes int
	PollInterval  time.Duration

	Sink     string
	Hexdump  bool
	TagsFile string

	ServiceURL  string
	AuthKey     string
	HTTPTimeout time.Duration
	HTTPRate    float64

	LogLevel string
	Once     bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Capacity:      splitter.DefaultCapacity,
		FailFast:      true,
		ReadSize:      4096,
		MaxBatchBytes: 1 << 20, // 1MB
		PollInterval:  500 * time.Millisecond,
		Sink:          SinkDump,
		ServiceURL:    DefaultServiceURL,
		HTTPTimeout:   15 * time.Second,
		LogLevel:      "info",
		AuthKey:       os.Getenv("WIRESPLIT_AUTH_KEY"),
	}
}

// Validate checks the configuration for errors and normalises derived values.
func (c *Config) Validate() error {
	if c.File == "" && c.Listen == "" && c.WSListen == "" {
		return fmt.Errorf("one of file, listen or ws-listen is required")
	}
	if c.Capacity < splitter.HeaderSize {
		return fmt.Errorf("capacity must be at least %d bytes", splitter.HeaderSize)
	}
	if c.Capacity > math.MaxUint32 {
		return fmt.Errorf("capacity must fit in 32 bits")
	}
	if c.ReadSize <= 0 {
		return fmt.Errorf("read size must be positive")
	}
	if c.MaxBatchBytes < 0 {
		return fmt.Errorf("max batch bytes must not be negative")
	}
	if c.Follow && c.File == "" {
		return fmt.Errorf("follow requires file")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	c.Sink = strings.ToLower(c.Sink)
	switch c.Sink {
	case SinkDump, SinkDiscard:
	case SinkHTTP:
		if c.ServiceURL == "" {
			return fmt.Errorf("service-url is required for the http sink")
		}
		if c.HTTPTimeout <= 0 {
			return fmt.Errorf("http timeout must be positive")
		}
		if c.HTTPRate < 0 {
			return fmt.Errorf("http rate must not be negative")
		}
	default:
		return fmt.Errorf("unknown sink %q", c.Sink)
	}

	// Ensure no trailing slash
	c.ServiceURL = strings.TrimRight(c.ServiceURL, "/")

	return nil
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i <= 0 {
		return nil
	}
	*dst = i
	return nil
}

// setFloatFromString parses a string to float64 and sets the destination if valid.
// Used for environment variables that come as strings.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
