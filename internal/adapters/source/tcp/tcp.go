// Package tcp accepts TCP connections and exposes each one as a stream.
package tcp

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/wiresplit/internal/ports"
)

// Config describes a TCP listener source.
type Config struct {
	// Addr is the listen address, e.g. ":7000" or "127.0.0.1:0".
	Addr string
	// IdleTimeout closes a connection that sends nothing for this long.
	// Zero disables it.
	IdleTimeout time.Duration
}

// Source listens for TCP connections.
type Source struct {
	cfg    Config
	logger ports.Logger

	mu      sync.Mutex
	ln      net.Listener
	done    chan struct{}
	closeMu sync.Once
}

// New creates a TCP source. The listener is bound by Open.
func New(cfg Config, logger ports.Logger) *Source {
	return &Source{cfg: cfg, logger: logger, done: make(chan struct{})}
}

func (s *Source) Name() string { return "tcp:" + s.cfg.Addr }

// Open binds the listener. The listener is closed when ctx ends.
func (s *Source) Open(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			ln.Close()
		case <-s.done:
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Open.
func (s *Source) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Accept waits for the next connection. It returns io.EOF once the source
// is closed.
func (s *Source) Accept(ctx context.Context) (ports.Stream, error) {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return nil, errors.New("tcp: source not open")
	}

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, io.EOF
		}
		return nil, err
	}

	s.logger.Debug("connection accepted", ports.String("remote", conn.RemoteAddr().String()))
	return &stream{
		id:   uuid.NewString(),
		conn: conn,
		idle: s.cfg.IdleTimeout,
	}, nil
}

// Close stops the listener. Accepted connections stay open.
func (s *Source) Close() error {
	var err error
	s.closeMu.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ln != nil {
			err = s.ln.Close()
			if errors.Is(err, net.ErrClosed) {
				err = nil
			}
		}
	})
	return err
}

type stream struct {
	id   string
	conn net.Conn
	idle time.Duration
}

func (st *stream) ID() string { return st.id }

func (st *stream) Read(ctx context.Context, p []byte) (int, error) {
	if st.idle > 0 {
		if err := st.conn.SetReadDeadline(time.Now().Add(st.idle)); err != nil {
			return 0, err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		_ = st.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	n, err := st.conn.Read(p)
	if err != nil && ctx.Err() != nil {
		return n, ctx.Err()
	}
	return n, err
}

func (st *stream) Close() error { return st.conn.Close() }
