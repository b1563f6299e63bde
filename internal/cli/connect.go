package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/hangchat/internal/frame"
)

const (
	dialTimeout = 5 * time.Second

	// quitGrace is how long to wait for the server's goodbye after :quit
	quitGrace = 2 * time.Second

	quitCommand = ":quit"
)

func newConnectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connect [name]",
		Short: "Join the chat",
		Long: `Connect to the chat server and join the conversation.

Every line typed is sent as a message; messages from the server are printed
as they arrive. When a name is given (or HANGCHAT_NAME is set) it is claimed
with :name right after connecting. Type :help for the command list and :quit
to leave.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := cfg.Name
			if len(args) == 1 {
				name = args[0]
			}

			codec, err := frame.NewCodec(cfg.FrameWidth)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dialer := &net.Dialer{Timeout: dialTimeout}
			conn, err := dialer.DialContext(ctx, "tcp", cfg.ServerAddr)
			if err != nil {
				return fmt.Errorf("connection failed: %w", err)
			}

			if cfg.Verbose {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Connected to %s\n", conn.RemoteAddr())
			}

			chat := NewChat(conn, codec, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return chat.Run(ctx, name, cmd.InOrStdin())
		},
	}

	return cmd
}

// Chat relays lines between a terminal and the chat server
type Chat struct {
	conn   net.Conn
	codec  frame.Codec
	writer *frame.Writer
	out    io.Writer
	errOut io.Writer
	grace  time.Duration

	readerDone chan struct{}
	readErr    error
}

// NewChat wraps an established connection. Server messages go to out,
// local notices to errOut.
func NewChat(conn net.Conn, codec frame.Codec, out, errOut io.Writer) *Chat {
	return &Chat{
		conn:       conn,
		codec:      codec,
		writer:     frame.NewWriter(conn, codec),
		out:        out,
		errOut:     errOut,
		grace:      quitGrace,
		readerDone: make(chan struct{}),
	}
}

// Run claims name (if any) and relays until the user quits, input ends,
// ctx is cancelled or the server closes the connection. The connection is
// closed when Run returns.
func (c *Chat) Run(ctx context.Context, name string, in io.Reader) error {
	go c.readLoop()
	defer func() {
		_ = c.conn.Close()
		<-c.readerDone
	}()

	stop := make(chan struct{})
	defer close(stop)
	lines, inputDone := scanLines(in, stop)

	if name != "" {
		if err := c.send(":name " + name); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return c.quit()

		case <-c.readerDone:
			return c.closedByServer()

		case line := <-lines:
			if err := c.send(line); err != nil {
				return err
			}
			if strings.TrimSpace(line) == quitCommand {
				c.awaitClose()
				return nil
			}

		case err := <-inputDone:
			if err != nil {
				_, _ = fmt.Fprintf(c.errOut, "reading input: %s\n", err)
			}
			return c.quit()
		}
	}
}

func (c *Chat) readLoop() {
	defer close(c.readerDone)
	reader := frame.NewReader(c.conn, c.codec)
	for {
		msg, err := reader.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		_, _ = fmt.Fprintln(c.out, msg)
	}
}

func (c *Chat) send(line string) error {
	truncated, err := c.writer.WriteMessage(line)
	if err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	if truncated {
		_, _ = fmt.Fprintf(c.errOut, "message truncated to %d bytes\n", c.codec.MaxText())
	}
	return nil
}

// quit says goodbye and waits briefly for the server to hang up
func (c *Chat) quit() error {
	if err := c.send(quitCommand); err == nil {
		c.awaitClose()
	}
	return nil
}

func (c *Chat) awaitClose() {
	timer := time.NewTimer(c.grace)
	defer timer.Stop()
	select {
	case <-c.readerDone:
	case <-timer.C:
	}
}

func (c *Chat) closedByServer() error {
	if c.readErr == nil || errors.Is(c.readErr, io.EOF) {
		_, _ = fmt.Fprintln(c.errOut, "Disconnected")
		return nil
	}
	return fmt.Errorf("connection lost: %w", c.readErr)
}

// scanLines feeds input lines to a channel until input ends or stop closes
func scanLines(in io.Reader, stop <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	done := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		done <- scanner.Err()
	}()
	return lines, done
}
