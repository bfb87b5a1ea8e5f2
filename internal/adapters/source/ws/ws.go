// Package ws accepts websocket connections and exposes each one as a
// stream. Binary messages are concatenated into the stream; message
// boundaries carry no meaning for framing.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bft-labs/wiresplit/internal/ports"
)

// DefaultPath is the HTTP path upgraded to a websocket.
const DefaultPath = "/"

// ErrTextMessage is returned when a peer sends a text message.
var ErrTextMessage = errors.New("ws: text messages are not accepted")

// Config describes a websocket listener source.
type Config struct {
	Addr string
	Path string
	// CheckOrigin overrides the upgrader's origin check. Nil accepts every
	// origin.
	CheckOrigin func(r *http.Request) bool
}

// Source serves websocket upgrades and queues each connection as a stream.
type Source struct {
	cfg      Config
	logger   ports.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	ln      net.Listener
	server  *http.Server
	streams chan *stream
	done    chan struct{}
	once    sync.Once
}

// New creates a websocket source. The listener is bound by Open.
func New(cfg Config, logger ports.Logger) *Source {
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}
	check := cfg.CheckOrigin
	if check == nil {
		check = func(*http.Request) bool { return true }
	}
	return &Source{
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize: 4096,
			CheckOrigin:    check,
		},
		streams: make(chan *stream),
		done:    make(chan struct{}),
	}
}

func (s *Source) Name() string { return "ws:" + s.cfg.Addr + s.cfg.Path }

// Open binds the listener and starts serving upgrades.
func (s *Source) Open(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.Path, s.handleUpgrade)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	s.mu.Lock()
	s.ln = ln
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("websocket server stopped", ports.Err(err))
		}
	}()
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
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

func (s *Source) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", ports.String("remote", r.RemoteAddr), ports.Err(err))
		return
	}

	st := &stream{id: uuid.NewString(), conn: conn}
	select {
	case s.streams <- st:
		s.logger.Debug("websocket accepted", ports.String("remote", r.RemoteAddr))
	case <-s.done:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
	}
}

// Accept waits for the next upgraded connection. It returns io.EOF once
// the source is closed.
func (s *Source) Accept(ctx context.Context) (ports.Stream, error) {
	select {
	case st := <-s.streams:
		return st, nil
	case <-s.done:
		return nil, io.EOF
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close stops the server. Upgraded connections stay open.
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.server != nil {
			err = s.server.Close()
		}
	})
	return err
}

type stream struct {
	id   string
	conn *websocket.Conn
	cur  io.Reader
}

func (st *stream) ID() string { return st.id }

func (st *stream) Read(ctx context.Context, p []byte) (int, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = st.conn.SetReadDeadline(time.Unix(1, 0))
	})
	defer stop()

	for {
		if st.cur == nil {
			mt, r, err := st.conn.NextReader()
			if err != nil {
				return 0, st.mapErr(ctx, err)
			}
			if mt != websocket.BinaryMessage {
				return 0, fmt.Errorf("%w (type %d)", ErrTextMessage, mt)
			}
			st.cur = r
		}

		n, err := st.cur.Read(p)
		if errors.Is(err, io.EOF) {
			st.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		if err != nil {
			return n, st.mapErr(ctx, err)
		}
		return n, nil
	}
}

func (st *stream) mapErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
		return io.EOF
	}
	return err
}

func (st *stream) Close() error { return st.conn.Close() }
