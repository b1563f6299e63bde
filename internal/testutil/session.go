package testutil

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/mcoot/hangchat/internal/frame"
	"github.com/mcoot/hangchat/internal/session"
)

// TestFrameWidth is wide enough for every message the server renders
const TestFrameWidth = 500

// Peer is the client end of a piped session
type Peer struct {
	t      *testing.T
	conn   net.Conn
	reader *frame.Reader
	writer *frame.Writer
}

// NewSession returns a session over net.Pipe without a running writer.
// Both ends are closed when the test finishes.
func NewSession(t *testing.T) (*session.Session, *Peer) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})

	codec := frame.MustCodec(TestFrameWidth)
	s := session.New(server, session.Options{
		Codec:       codec,
		QueueSize:   64,
		ConnectedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Logger:      NopLogger(),
	})
	return s, &Peer{
		t:      t,
		conn:   client,
		reader: frame.NewReader(client, codec),
		writer: frame.NewWriter(client, codec),
	}
}

// NewLiveSession is like NewSession but also runs the session's writer
func NewLiveSession(t *testing.T) (*session.Session, *Peer) {
	t.Helper()
	s, peer := NewSession(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go s.WritePump(ctx)
	return s, peer
}

// Expect reads the next frame and fails the test unless it equals want
func (p *Peer) Expect(want string) {
	p.t.Helper()
	got, err := p.Read()
	if err != nil {
		p.t.Fatalf("reading frame, want %q: %v", want, err)
	}
	if got != want {
		p.t.Fatalf("unexpected frame\ngot:  %q\nwant: %q", got, want)
	}
}

// Read returns the next frame, waiting at most a second
func (p *Peer) Read() (string, error) {
	_ = p.conn.SetReadDeadline(time.Now().Add(time.Second))
	return p.reader.ReadMessage()
}

// ExpectNothing fails the test if a frame arrives within a short window
func (p *Peer) ExpectNothing() {
	p.t.Helper()
	_ = p.conn.SetReadDeadline(time.Now().Add(50 * time.Millisecond))
	if msg, err := p.reader.ReadMessage(); err == nil {
		p.t.Fatalf("unexpected frame %q", msg)
	}
}

// Write sends text to the server end as one frame
func (p *Peer) Write(text string) error {
	_, err := p.writer.WriteMessage(text)
	return err
}

// Send writes text and fails the test on error
func (p *Peer) Send(text string) {
	p.t.Helper()
	if err := p.Write(text); err != nil {
		p.t.Fatalf("sending %q: %v", text, err)
	}
}

// ExpectClosed fails the test unless the server hangs up within a second
func (p *Peer) ExpectClosed() {
	p.t.Helper()
	for {
		msg, err := p.Read()
		if err == nil {
			p.t.Logf("frame before close: %q", msg)
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, net.ErrClosed) {
			return
		}
		p.t.Fatalf("want the connection closed, got %v", err)
	}
}

// Close hangs up the client end
func (p *Peer) Close() error {
	return p.conn.Close()
}

// Dial connects a client to a chat server over TCP. The connection is
// closed when the test finishes.
func Dial(t *testing.T, addr string) *Peer {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err != nil {
		t.Fatalf("dialing %s: %v", addr, err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	codec := frame.MustCodec(TestFrameWidth)
	return &Peer{
		t:      t,
		conn:   conn,
		reader: frame.NewReader(conn, codec),
		writer: frame.NewWriter(conn, codec),
	}
}
