// Package file reads a capture file as a single byte stream.
//
// Files ending in .gz or .zst are decompressed on the fly. In follow mode
// the stream does not end at EOF: it waits for the file to grow, like
// tail -f, until the file is removed or the context ends.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"

	"github.com/bft-labs/wiresplit/internal/ports"
)

// DefaultPollInterval is how often a followed file is checked when no
// change notification arrives.
const DefaultPollInterval = 500 * time.Millisecond

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// ErrFollowCompressed is returned by Open when follow mode is requested for
// a compressed file.
var ErrFollowCompressed = errors.New("file: cannot follow a compressed file")

// Config describes a file source.
type Config struct {
	Path         string
	Follow       bool
	PollInterval time.Duration
	// Fs is the filesystem to read from. Defaults to the OS filesystem.
	// Change notifications are only used on the OS filesystem; other
	// filesystems are polled.
	Fs afero.Fs
}

// Source yields exactly one stream: the file's contents.
type Source struct {
	cfg    Config
	logger ports.Logger

	mu       sync.Mutex
	accepted bool
}

// New creates a file source.
func New(cfg Config, logger ports.Logger) *Source {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Source{cfg: cfg, logger: logger}
}

func (s *Source) Name() string { return "file:" + s.cfg.Path }

// Open checks that the file exists and can be followed.
func (s *Source) Open(ctx context.Context) error {
	if s.cfg.Follow && compression(s.cfg.Path) != "" {
		return fmt.Errorf("%w: %s", ErrFollowCompressed, s.cfg.Path)
	}
	fi, err := s.cfg.Fs.Stat(s.cfg.Path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("file: %s is a directory", s.cfg.Path)
	}
	return nil
}

// Accept returns the file stream on the first call and io.EOF afterwards.
func (s *Source) Accept(ctx context.Context) (ports.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.accepted {
		return nil, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.cfg.Fs.Open(s.cfg.Path)
	if err != nil {
		return nil, err
	}
	st := &stream{
		id:   uuid.NewString(),
		file: f,
		r:    f,
		poll: s.cfg.PollInterval,
	}

	switch compression(s.cfg.Path) {
	case "gzip":
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", s.cfg.Path, err)
		}
		st.r = zr
		st.closers = append(st.closers, zr.Close)
	case "zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd %s: %w", s.cfg.Path, err)
		}
		st.r = zr
		st.closers = append(st.closers, func() error { zr.Close(); return nil })
	}

	if s.cfg.Follow {
		st.follow = true
		if _, ok := s.cfg.Fs.(*afero.OsFs); ok {
			w, err := fsnotify.NewWatcher()
			if err == nil {
				err = w.Add(s.cfg.Path)
			}
			if err != nil {
				s.logger.Warn("file watch unavailable, polling", ports.String("path", s.cfg.Path), ports.Err(err))
				if w != nil {
					w.Close()
				}
			} else {
				st.watcher = w
			}
		}
	}

	s.accepted = true
	return st, nil
}

func (s *Source) Close() error { return nil }

type stream struct {
	id      string
	file    afero.File
	r       io.Reader
	closers []func() error
	follow  bool
	poll    time.Duration
	watcher *fsnotify.Watcher
	removed bool
}

func (st *stream) ID() string { return st.id }

func (st *stream) Read(ctx context.Context, p []byte) (int, error) {
	empty := 0
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := st.r.Read(p)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		if !st.follow || st.removed {
			if err == nil {
				if empty++; empty >= maxEmptyReads {
					return 0, io.ErrNoProgress
				}
				continue
			}
			return 0, io.EOF
		}
		if err := st.wait(ctx); err != nil {
			return 0, err
		}
	}
}

// wait blocks until the followed file may have grown.
func (st *stream) wait(ctx context.Context) error {
	timer := time.NewTimer(st.poll)
	defer timer.Stop()

	var events chan fsnotify.Event
	var errs chan error
	if st.watcher != nil {
		events, errs = st.watcher.Events, st.watcher.Errors
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				// Drain what was written before the file went away.
				st.removed = true
				return nil
			}
			if ev.Op&fsnotify.Write != 0 {
				return nil
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return fmt.Errorf("watch %s: %w", st.file.Name(), err)
		}
	}
}

func (st *stream) Close() error {
	var errs []error
	if st.watcher != nil {
		errs = append(errs, st.watcher.Close())
	}
	for _, c := range st.closers {
		errs = append(errs, c())
	}
	errs = append(errs, st.file.Close())
	return errors.Join(errs...)
}

func compression(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return "gzip"
	case ".zst", ".zstd":
		return "zstd"
	}
	return ""
}
