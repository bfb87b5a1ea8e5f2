package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	File          string  `toml:"file"`
	Follow        *bool   `toml:"follow"`
	Listen        string  `toml:"listen"`
	WSListen      string  `toml:"ws_listen"`
	Capacity      int     `toml:"capacity"`
	FailFast      *bool   `toml:"fail_fast"`
	ReadSize      int     `toml:"read_size"`
	MaxBatchBytes int     `toml:"max_batch_bytes"`
	PollInterval  string  `toml:"poll_interval"`
	Sink          string  `toml:"sink"`
	Hexdump       *bool   `toml:"hexdump"`
	TagsFile      string  `toml:"tags_file"`
	ServiceURL    string  `toml:"service_url"`
	AuthKey       string  `toml:"auth_key"`
	HTTPTimeout   string  `toml:"http_timeout"`
	HTTPRate      float64 `toml:"http_rate"`
	LogLevel      string  `toml:"log_level"`
	Once          *bool   `toml:"once"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.wiresplit/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".wiresplit", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("file", fc.File, &cfg.File)
	s.setString("listen", fc.Listen, &cfg.Listen)
	s.setString("ws-listen", fc.WSListen, &cfg.WSListen)
	s.setString("sink", fc.Sink, &cfg.Sink)
	s.setString("tags", fc.TagsFile, &cfg.TagsFile)
	s.setString("service-url", fc.ServiceURL, &cfg.ServiceURL)
	s.setString("auth-key", fc.AuthKey, &cfg.AuthKey)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)

	if err := s.setDuration("poll", fc.PollInterval, &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	s.setFloat("http-rate", fc.HTTPRate, &cfg.HTTPRate)

	s.setInt("capacity", fc.Capacity, &cfg.Capacity)
	s.setInt("read-size", fc.ReadSize, &cfg.ReadSize)
	s.setInt("max-batch-bytes", fc.MaxBatchBytes, &cfg.MaxBatchBytes)

	s.setBool("follow", fc.Follow, &cfg.Follow)
	s.setBool("fail-fast", fc.FailFast, &cfg.FailFast)
	s.setBool("hexdump", fc.Hexdump, &cfg.Hexdump)
	s.setBool("once", fc.Once, &cfg.Once)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
