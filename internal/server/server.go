// Package server accepts TCP chat clients and runs one session per connection.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/mcoot/hangchat/internal/dependencies/clock"
	"github.com/mcoot/hangchat/internal/frame"
	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/session"
)

// ErrServerClosed is returned by Serve after Shutdown
var ErrServerClosed = errors.New("chat server closed")

// Config holds configuration for the TCP server
type Config struct {
	Addr            string
	FrameWidth      int
	SendQueueSize   int
	ShutdownTimeout time.Duration
	// FlushTimeout bounds how long a closing session may spend writing
	// its last queued frames
	FlushTimeout time.Duration
}

// DefaultConfig returns sensible defaults for server configuration
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:9090",
		FrameWidth:      frame.DefaultWidth,
		SendQueueSize:   session.DefaultQueueSize,
		ShutdownTimeout: 10 * time.Second,
		FlushTimeout:    2 * time.Second,
	}
}

// Handler reacts to session lifecycle events and client lines
type Handler interface {
	Welcome(s *session.Session)
	// Handle runs one line; a non-nil error ends the connection
	Handle(ctx context.Context, s *session.Session, line string) error
	Disconnect(ctx context.Context, s *session.Session)
}

// Server is the connection manager
type Server struct {
	config  Config
	codec   frame.Codec
	handler Handler
	clock   clock.Clock
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	listener net.Listener
	sessions map[model.SessionID]*session.Session
	closed   bool
}

// NewServer creates a new chat server
func NewServer(config Config, handler Handler, clock clock.Clock, logger *slog.Logger) (*Server, error) {
	codec, err := frame.NewCodec(config.FrameWidth)
	if err != nil {
		return nil, err
	}
	if config.FlushTimeout <= 0 {
		config.FlushTimeout = DefaultConfig().FlushTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		config:   config,
		codec:    codec,
		handler:  handler,
		clock:    clock,
		logger:   logger.With(slog.String("component", "tcp")),
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[model.SessionID]*session.Session),
	}, nil
}

// Listen binds the listen address. Addr reports the bound address afterwards.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		_ = ln.Close()
		return ErrServerClosed
	}
	s.listener = ln
	return nil
}

// Start binds the listen address and serves until Shutdown
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	err := s.Serve()
	if errors.Is(err, ErrServerClosed) {
		return nil
	}
	return err
}

// Serve accepts connections on the bound listener until Shutdown
func (s *Server) Serve() error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("serve called before listen")
	}

	s.logger.Info("starting chat server",
		slog.String("addr", ln.Addr().String()),
		slog.Int("frame_width", s.codec.Width()))

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("accept: %w", err)
			}
			// Descriptor exhaustion and aborted handshakes pass; keep serving
			backoff = nextBackoff(backoff)
			s.logger.Warn("accept failed, retrying",
				slog.Any("error", err),
				slog.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-s.ctx.Done():
				return ErrServerClosed
			}
			continue
		}
		backoff = 0

		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return 5 * time.Millisecond
	}
	if current *= 2; current > time.Second {
		return time.Second
	}
	return current
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	sess := session.New(conn, session.Options{
		Codec:       s.codec,
		QueueSize:   s.config.SendQueueSize,
		ConnectedAt: s.clock.Now(),
		Logger:      s.logger,
	})
	if !s.track(sess) {
		_ = conn.Close()
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		sess.WritePump(s.ctx)
	}()
	defer s.closeSession(sess, writerDone)

	s.logger.Info("client connected",
		slog.String("session_id", string(sess.ID())),
		slog.String("remote_addr", sess.RemoteAddr()))

	s.handler.Welcome(sess)

	for {
		line, err := sess.ReadMessage()
		if err != nil {
			if sess.Alive() {
				s.logger.Debug("read ended",
					slog.String("session_id", string(sess.ID())),
					slog.Any("error", err))
			}
			return
		}
		if err := s.handler.Handle(s.ctx, sess, line); err != nil {
			s.logger.Debug("session ended by handler",
				slog.String("session_id", string(sess.ID())),
				slog.Any("reason", err))
			return
		}
	}
}

// closeSession is the single cleanup path for a connection, whatever ended it
func (s *Server) closeSession(sess *session.Session, writerDone <-chan struct{}) {
	if r := recover(); r != nil {
		s.logger.Error("panic in connection handler",
			slog.String("session_id", string(sess.ID())),
			slog.Any("panic", r),
			slog.String("stack", string(debug.Stack())))
	}

	name := sess.Name()
	s.handler.Disconnect(context.Background(), sess)
	_ = sess.Close()

	select {
	case <-writerDone:
	case <-time.After(s.config.FlushTimeout):
		s.logger.Warn("writer did not finish flushing", slog.String("session_id", string(sess.ID())))
	}
	_ = sess.CloseConn()
	s.untrack(sess)

	s.logger.Info("client disconnected",
		slog.String("session_id", string(sess.ID())),
		slog.String("name", name),
		slog.Duration("connection_duration", s.clock.Since(sess.ConnectedAt())))
}

func (s *Server) track(sess *session.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess.ID()] = sess
	return true
}

func (s *Server) untrack(sess *session.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sess.ID())
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Shutdown stops accepting, closes every session and waits for their
// goroutines, bounded by ctx and the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down chat server")

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	open := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	for _, sess := range open {
		_ = sess.Close()
	}

	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
	case <-ctx.Done():
		// Stop the writers and drop whatever is still connected
		s.cancel()
		for _, sess := range open {
			_ = sess.CloseConn()
		}
		return fmt.Errorf("shutdown error: %w", ctx.Err())
	}

	s.logger.Info("chat server stopped", slog.Int("closed_sessions", len(open)))
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// Addr returns the bound address, or the configured one before Listen
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// SessionCount returns the number of open connections
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
