// Package session holds the per-connection state of a chat client.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/hangchat/internal/frame"
	"github.com/mcoot/hangchat/internal/model"
)

const (
	// Time allowed to write a frame to the peer
	writeWait = 10 * time.Second

	// DefaultQueueSize is the default number of outbound messages buffered per session
	DefaultQueueSize = 64
)

// Options configures a new Session
type Options struct {
	Codec       frame.Codec
	QueueSize   int
	ConnectedAt time.Time
	Logger      *slog.Logger
}

// Session represents one connected client
type Session struct {
	id          model.SessionID
	conn        net.Conn
	remoteAddr  string
	connectedAt time.Time

	reader *frame.Reader
	writer *frame.Writer
	logger *slog.Logger

	mu   sync.RWMutex
	name string

	alive     atomic.Bool
	send      chan string
	done      chan struct{}
	closeOnce sync.Once
}

// New wraps an accepted connection in a Session. The caller starts WritePump.
func New(conn net.Conn, opts Options) *Session {
	queueSize := opts.QueueSize
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	id := model.NewSessionID()
	s := &Session{
		id:          id,
		conn:        conn,
		remoteAddr:  conn.RemoteAddr().String(),
		connectedAt: opts.ConnectedAt,
		reader:      frame.NewReader(conn, opts.Codec),
		writer:      frame.NewWriter(conn, opts.Codec),
		send:        make(chan string, queueSize),
		done:        make(chan struct{}),
	}
	if opts.Logger != nil {
		s.logger = opts.Logger.With(slog.String("session_id", string(id)), slog.String("remote_addr", s.remoteAddr))
	} else {
		s.logger = slog.New(slog.DiscardHandler)
	}
	s.alive.Store(true)
	return s
}

func (s *Session) ID() model.SessionID    { return s.id }
func (s *Session) RemoteAddr() string     { return s.remoteAddr }
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }
func (s *Session) Alive() bool            { return s.alive.Load() }

// Name returns the display name, or "" while the session is unregistered
func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

// SetName records the display name. Only the registry should call this.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	s.name = name
	s.mu.Unlock()
}

// Label returns the name if set, otherwise the remote address. Used in logs.
func (s *Session) Label() string {
	if name := s.Name(); name != "" {
		return name
	}
	return s.remoteAddr
}

// ReadMessage blocks until the next full frame arrives from the client
func (s *Session) ReadMessage() (string, error) {
	return s.reader.ReadMessage()
}

// Send queues a message for delivery without blocking. A full queue means the
// client stopped reading: the session is closed and ErrSlowConsumer returned.
func (s *Session) Send(msg string) error {
	if !s.Alive() {
		return model.ErrConnectionLost
	}

	select {
	case <-s.done:
		return model.ErrConnectionLost
	default:
	}

	select {
	case s.send <- msg:
		return nil
	default:
		s.logger.Warn("outbound queue full, closing session", slog.Int("queue_size", cap(s.send)))
		_ = s.Close()
		return fmt.Errorf("%w: %s", model.ErrSlowConsumer, s.Label())
	}
}

// WritePump drains the outbound queue onto the connection until the session
// closes or ctx is cancelled. Queued messages are flushed before it returns
// on Close so a final reply (e.g. to :quit) still reaches the client.
func (s *Session) WritePump(ctx context.Context) {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				s.logger.Debug("write failed", slog.Any("error", err))
				_ = s.Close()
				return
			}
		case <-s.done:
			s.flush()
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Session) flush() {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(msg string) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	truncated, err := s.writer.WriteMessage(msg)
	if truncated {
		s.logger.Debug("outbound message truncated to frame width", slog.Int("length", len(msg)))
	}
	return err
}

// Close marks the session dead and stops the writer. The connection itself is
// closed once the writer has flushed, or straight away if it was never started.
// Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.alive.Store(false)
		close(s.done)
		// Unblock a reader waiting on the socket; the writer still gets a
		// short window to flush pending frames.
		err = s.conn.SetReadDeadline(time.Now())
	})
	return err
}

// Done is closed once the session starts shutting down
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// CloseConn closes the underlying connection. The connection manager calls it
// after the writer has exited.
func (s *Session) CloseConn() error {
	return s.conn.Close()
}
