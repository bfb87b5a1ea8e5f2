package cliconfig

import "os"

// ApplyEnvConfig applies configuration from environment variables (WIRESPLIT_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("file", os.Getenv("WIRESPLIT_FILE"), &cfg.File)
	s.setString("listen", os.Getenv("WIRESPLIT_LISTEN"), &cfg.Listen)
	s.setString("ws-listen", os.Getenv("WIRESPLIT_WS_LISTEN"), &cfg.WSListen)
	s.setString("sink", os.Getenv("WIRESPLIT_SINK"), &cfg.Sink)
	s.setString("tags", os.Getenv("WIRESPLIT_TAGS_FILE"), &cfg.TagsFile)
	s.setString("service-url", os.Getenv("WIRESPLIT_SERVICE_URL"), &cfg.ServiceURL)
	s.setString("auth-key", os.Getenv("WIRESPLIT_AUTH_KEY"), &cfg.AuthKey)
	s.setString("log-level", os.Getenv("WIRESPLIT_LOG_LEVEL"), &cfg.LogLevel)

	if err := s.setDuration("poll", os.Getenv("WIRESPLIT_POLL_INTERVAL"), &cfg.PollInterval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", os.Getenv("WIRESPLIT_HTTP_TIMEOUT"), &cfg.HTTPTimeout); err != nil {
		return err
	}

	if err := s.setFloatFromString("http-rate", os.Getenv("WIRESPLIT_HTTP_RATE"), &cfg.HTTPRate); err != nil {
		return err
	}

	if err := s.setIntFromString("capacity", os.Getenv("WIRESPLIT_CAPACITY"), &cfg.Capacity); err != nil {
		return err
	}
	if err := s.setIntFromString("read-size", os.Getenv("WIRESPLIT_READ_SIZE"), &cfg.ReadSize); err != nil {
		return err
	}
	if err := s.setIntFromString("max-batch-bytes", os.Getenv("WIRESPLIT_MAX_BATCH_BYTES"), &cfg.MaxBatchBytes); err != nil {
		return err
	}

	s.setBoolFromString("follow", os.Getenv("WIRESPLIT_FOLLOW"), &cfg.Follow)
	s.setBoolFromString("fail-fast", os.Getenv("WIRESPLIT_FAIL_FAST"), &cfg.FailFast)
	s.setBoolFromString("hexdump", os.Getenv("WIRESPLIT_HEXDUMP"), &cfg.Hexdump)
	s.setBoolFromString("once", os.Getenv("WIRESPLIT_ONCE"), &cfg.Once)

	return nil
}
