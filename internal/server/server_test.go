package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/hangchat/internal/dependencies/clock"
	"github.com/mcoot/hangchat/internal/frame"
	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/session"
	"github.com/mcoot/hangchat/internal/testutil"
)

var errLeave = errors.New("leave")

// echoHandler replies to every line and records disconnects
type echoHandler struct {
	mu           sync.Mutex
	disconnected []model.SessionID
	gone         chan model.SessionID
}

func newEchoHandler() *echoHandler {
	return &echoHandler{gone: make(chan model.SessionID, 16)}
}

func (h *echoHandler) Welcome(s *session.Session) {
	_ = s.Send("welcome")
}

func (h *echoHandler) Handle(ctx context.Context, s *session.Session, line string) error {
	switch line {
	case "leave":
		_ = s.Send("bye")
		return errLeave
	case "boom":
		panic("boom")
	default:
		return s.Send("echo: " + line)
	}
}

func (h *echoHandler) Disconnect(ctx context.Context, s *session.Session) {
	h.mu.Lock()
	h.disconnected = append(h.disconnected, s.ID())
	h.mu.Unlock()
	h.gone <- s.ID()
}

type testClient struct {
	conn   net.Conn
	reader *frame.Reader
	writer *frame.Writer
}

type ServerSuite struct {
	suite.Suite
	handler *echoHandler
	server  *Server
	served  chan error
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerSuite))
}

func (s *ServerSuite) SetupTest() {
	s.handler = newEchoHandler()

	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.FrameWidth = testutil.TestFrameWidth

	srv, err := NewServer(cfg, s.handler, clock.New(), testutil.NopLogger())
	s.Require().NoError(err)
	s.Require().NoError(srv.Listen())
	s.server = srv

	s.served = make(chan error, 1)
	go func() { s.served <- srv.Serve() }()
}

func (s *ServerSuite) TearDownTest() {
	_ = s.server.Shutdown(context.Background())
}

func (s *ServerSuite) dial() *testClient {
	conn, err := net.Dial("tcp", s.server.Addr())
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })

	codec := frame.MustCodec(testutil.TestFrameWidth)
	c := &testClient{conn: conn, reader: frame.NewReader(conn, codec), writer: frame.NewWriter(conn, codec)}
	s.expect(c, "welcome")
	return c
}

func (s *ServerSuite) write(c *testClient, text string) {
	_, err := c.writer.WriteMessage(text)
	s.Require().NoError(err)
}

func (s *ServerSuite) expect(c *testClient, want string) {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := c.reader.ReadMessage()
	s.Require().NoError(err)
	s.Equal(want, got)
}

func (s *ServerSuite) expectClosed(c *testClient) {
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err := c.reader.ReadMessage()
	s.Require().Error(err)
	var ne net.Error
	s.False(errors.As(err, &ne) && ne.Timeout(), "connection was not closed")
}

func (s *ServerSuite) waitGone() model.SessionID {
	select {
	case id := <-s.handler.gone:
		return id
	case <-time.After(2 * time.Second):
		s.FailNow("session was not disconnected")
		return ""
	}
}

func (s *ServerSuite) TestNewServerRejectsBadWidth() {
	cfg := DefaultConfig()
	cfg.FrameWidth = 1
	_, err := NewServer(cfg, s.handler, clock.New(), testutil.NopLogger())
	s.ErrorIs(err, frame.ErrInvalidWidth)
}

func (s *ServerSuite) TestEcho() {
	c := s.dial()

	s.write(c, "hello")
	s.expect(c, "echo: hello")
	s.write(c, "again")
	s.expect(c, "echo: again")
}

func (s *ServerSuite) TestManyClients() {
	clients := make([]*testClient, 5)
	for i := range clients {
		clients[i] = s.dial()
	}
	s.Eventually(func() bool { return s.server.SessionCount() == 5 }, time.Second, 10*time.Millisecond)

	for _, c := range clients {
		s.write(c, "ping")
	}
	for _, c := range clients {
		s.expect(c, "echo: ping")
	}
}

func (s *ServerSuite) TestHandlerErrorClosesAfterFlush() {
	c := s.dial()

	s.write(c, "leave")
	s.expect(c, "bye")
	s.expectClosed(c)
	s.waitGone()
	s.Eventually(func() bool { return s.server.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func (s *ServerSuite) TestClientHangupDisconnects() {
	c := s.dial()
	s.Eventually(func() bool { return s.server.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	_ = c.conn.Close()
	s.waitGone()
	s.Eventually(func() bool { return s.server.SessionCount() == 0 }, time.Second, 10*time.Millisecond)
}

func (s *ServerSuite) TestPartialFrameThenHangup() {
	c := s.dial()

	_, err := c.conn.Write([]byte("half a frame"))
	s.Require().NoError(err)
	_ = c.conn.Close()

	s.waitGone()
}

func (s *ServerSuite) TestPanicIsRecovered() {
	c := s.dial()
	other := s.dial()

	s.write(c, "boom")
	s.expectClosed(c)
	s.waitGone()

	// the server keeps serving everyone else
	s.write(other, "still here")
	s.expect(other, "echo: still here")
	s.NotNil(s.dial())
}

func (s *ServerSuite) TestShutdownClosesSessions() {
	c := s.dial()
	s.Eventually(func() bool { return s.server.SessionCount() == 1 }, time.Second, 10*time.Millisecond)

	s.Require().NoError(s.server.Shutdown(context.Background()))
	s.expectClosed(c)

	select {
	case err := <-s.served:
		s.ErrorIs(err, ErrServerClosed)
	case <-time.After(2 * time.Second):
		s.Fail("Serve did not return")
	}

	_, err := net.DialTimeout("tcp", s.server.Addr(), 200*time.Millisecond)
	s.Error(err)

	s.handler.mu.Lock()
	s.Len(s.handler.disconnected, 1)
	s.handler.mu.Unlock()
}

func (s *ServerSuite) TestShutdownIsIdempotent() {
	s.NoError(s.server.Shutdown(context.Background()))
	s.NoError(s.server.Shutdown(context.Background()))
}

func TestNextBackoff(t *testing.T) {
	if got := nextBackoff(0); got != 5*time.Millisecond {
		t.Errorf("nextBackoff(0) = %v", got)
	}
	if got := nextBackoff(10 * time.Millisecond); got != 20*time.Millisecond {
		t.Errorf("nextBackoff(10ms) = %v", got)
	}
	if got := nextBackoff(800 * time.Millisecond); got != time.Second {
		t.Errorf("nextBackoff(800ms) = %v", got)
	}
}

// flakyListener fails its first Accept calls with errs, then hands out conns
type flakyListener struct {
	errs   chan error
	conns  chan net.Conn
	closed chan struct{}
	once   sync.Once
}

func newFlakyListener(errs ...error) *flakyListener {
	l := &flakyListener{
		errs:   make(chan error, len(errs)),
		conns:  make(chan net.Conn, 1),
		closed: make(chan struct{}),
	}
	for _, err := range errs {
		l.errs <- err
	}
	return l
}

func (l *flakyListener) Accept() (net.Conn, error) {
	select {
	case err := <-l.errs:
		return nil, err
	default:
	}
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *flakyListener) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

func (l *flakyListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9090}
}

func TestServeSurvivesAcceptErrors(t *testing.T) {
	ln := newFlakyListener(
		&net.OpError{Op: "accept", Net: "tcp", Err: syscall.EMFILE},
		&net.OpError{Op: "accept", Net: "tcp", Err: syscall.ECONNABORTED},
	)

	cfg := DefaultConfig()
	cfg.FrameWidth = testutil.TestFrameWidth
	srv, err := NewServer(cfg, newEchoHandler(), clock.New(), testutil.NopLogger())
	require.NoError(t, err)
	srv.listener = ln

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()

	server, client := net.Pipe()
	t.Cleanup(func() { _ = client.Close() })
	ln.conns <- server

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := frame.NewReader(client, frame.MustCodec(testutil.TestFrameWidth)).ReadMessage()
	require.NoError(t, err)
	require.Equal(t, "welcome", got)

	select {
	case err := <-served:
		t.Fatalf("Serve returned while still open: %v", err)
	default:
	}

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case err := <-served:
		require.ErrorIs(t, err, ErrServerClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
}

func TestServeStopsWhenListenerClosedElsewhere(t *testing.T) {
	ln := newFlakyListener()

	cfg := DefaultConfig()
	cfg.FrameWidth = testutil.TestFrameWidth
	srv, err := NewServer(cfg, newEchoHandler(), clock.New(), testutil.NopLogger())
	require.NoError(t, err)
	srv.listener = ln

	served := make(chan error, 1)
	go func() { served <- srv.Serve() }()
	_ = ln.Close()

	select {
	case err := <-served:
		require.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve kept running on a closed listener")
	}
}
