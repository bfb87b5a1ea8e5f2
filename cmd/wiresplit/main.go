package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/wiresplit/internal/cliconfig"
	"github.com/bft-labs/wiresplit/pkg/log"
	"github.com/bft-labs/wiresplit/pkg/wiresplit"
	"github.com/bft-labs/wiresplit/plugins/tagswatcher"
)

const longHelp = `Reassemble length-prefixed messages from byte streams.

Every message is an 8-byte little-endian header (type, length) followed by
the payload. Streams are read from a capture file, a TCP listener or a
websocket listener, split into messages and printed, posted to a collector
or counted.

Configure via file ($HOME/.wiresplit/config.toml), WIRESPLIT_* environment
variables or flags; flags win over the environment, which wins over the file.`

var exampleUsage = strings.TrimSpace(`
  wiresplit --file capture.bin --hexdump
  wiresplit --file live.bin --follow --tags tags.toml
  wiresplit --listen :7000 --sink http --service-url http://collector:8080
  wiresplit gen --count 1000 --out capture.bin.zst
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "wiresplit",
		Short:         "Reassemble length-prefixed messages from byte streams",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &cfg, cfgPath)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.wiresplit/config.toml)")

	root.Flags().StringVar(&cfg.File, "file", cfg.File, "capture file to read (.gz and .zst are decompressed)")
	root.Flags().BoolVar(&cfg.Follow, "follow", cfg.Follow, "keep reading the file as it grows")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "poll interval for a followed file")
	root.Flags().StringVar(&cfg.Listen, "listen", cfg.Listen, "TCP address to accept streams on")
	root.Flags().StringVar(&cfg.WSListen, "ws-listen", cfg.WSListen, "websocket address to accept streams on")

	root.Flags().IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "per-stream reassembly buffer in bytes")
	root.Flags().BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "reject oversized frames as soon as their header arrives")
	root.Flags().IntVar(&cfg.ReadSize, "read-size", cfg.ReadSize, "largest chunk read from a stream at once")
	root.Flags().IntVar(&cfg.MaxBatchBytes, "max-batch-bytes", cfg.MaxBatchBytes, "maximum bytes per delivery (0 for no limit)")

	root.Flags().StringVar(&cfg.Sink, "sink", cfg.Sink, "where messages go: dump, http or discard")
	root.Flags().BoolVar(&cfg.Hexdump, "hexdump", cfg.Hexdump, "hex dump payloads in dump output")
	root.Flags().StringVar(&cfg.TagsFile, "tags", cfg.TagsFile, "TOML file naming message types (reloaded on change)")

	root.Flags().StringVar(&cfg.ServiceURL, "service-url", cfg.ServiceURL, "collector base URL for the http sink")
	root.Flags().StringVar(&cfg.AuthKey, "auth-key", cfg.AuthKey, "API key for the http sink")
	root.Flags().DurationVar(&cfg.HTTPTimeout, "timeout", cfg.HTTPTimeout, "HTTP timeout")
	root.Flags().Float64Var(&cfg.HTTPRate, "http-rate", cfg.HTTPRate, "maximum http sink requests per second (0 for no limit)")

	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "stop each source after its first stream")

	root.AddCommand(newGenCommand())

	if err := root.Execute(); err != nil {
		logger := cliconfig.Logger(cfg.LogLevel)
		logger.Error().Err(err).Msg("wiresplit")
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, cfg *cliconfig.Config, cfgPath string) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}

	// Build set of changed flags
	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	}

	// These override file config but are overridden by flags (checked via changed map)
	if err := cliconfig.ApplyEnvConfig(cfg, changed); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	zl := cliconfig.Logger(cfg.LogLevel)

	// Log configuration (masking API key)
	logCfg := *cfg
	if len(logCfg.AuthKey) > 0 {
		logCfg.AuthKey = "*****"
	}
	zl.Debug().Interface("config", logCfg).Msg("configuration")

	libCfg := wiresplit.Config{
		File:          cfg.File,
		Follow:        cfg.Follow,
		PollInterval:  cfg.PollInterval,
		Listen:        cfg.Listen,
		WSListen:      cfg.WSListen,
		Capacity:      uint32(cfg.Capacity),
		FailFast:      cfg.FailFast,
		ReadSize:      cfg.ReadSize,
		MaxBatchBytes: cfg.MaxBatchBytes,
		Sink:          cfg.Sink,
		Hexdump:       cfg.Hexdump,
		TagsFile:      cfg.TagsFile,
		ServiceURL:    cfg.ServiceURL,
		AuthKey:       cfg.AuthKey,
		HTTPTimeout:   cfg.HTTPTimeout,
		HTTPRate:      cfg.HTTPRate,
		Once:          cfg.Once,
	}

	opts := []wiresplit.Option{
		wiresplit.WithLogger(log.NewZerologAdapterWithLogger(zl)),
	}
	if cfg.TagsFile != "" {
		opts = append(opts, tagswatcher.WithDefaultTagsWatcher())
	}

	w, err := wiresplit.New(libCfg, opts...)
	if err != nil {
		return fmt.Errorf("create wiresplit: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start wiresplit: %w", err)
	}

	select {
	case <-ctx.Done():
		zl.Info().Msg("received signal, stopping...")
		if err := w.Stop(); err != nil && !errors.Is(err, wiresplit.ErrNotRunning) {
			return fmt.Errorf("stop wiresplit: %w", err)
		}
		return nil
	case <-w.Done():
	}

	// All sources finished by themselves.
	if err := w.Wait(); err != nil {
		return err
	}
	if w.Status() == wiresplit.StateCrashed {
		return errors.New("wiresplit crashed")
	}
	return nil
}
