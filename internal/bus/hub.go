// Package bus fans chat messages out to every registered session.
package bus

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/session"
)

// ErrClosed is returned by Broadcast once the hub has stopped
var ErrClosed = errors.New("broadcast hub closed")

// Directory lists the sessions a broadcast is delivered to
type Directory interface {
	Sessions() []*session.Session
}

// envelope is one queued broadcast
type envelope struct {
	message   string
	exclude   model.SessionID
	delivered chan Delivery
}

// Delivery reports how a broadcast went
type Delivery struct {
	Sent    int
	Dropped int
}

// Hub serializes broadcasts: a single goroutine pulls envelopes one at a time
// and enqueues each on the targets' outbound queues, so every client sees
// broadcasts in the same order.
type Hub struct {
	directory Directory
	logger    *slog.Logger

	broadcast chan envelope
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewHub creates a Hub delivering to the sessions listed by directory
func NewHub(directory Directory, logger *slog.Logger) *Hub {
	return &Hub{
		directory: directory,
		logger:    logger.With(slog.String("component", "bus")),
		broadcast: make(chan envelope),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Run starts the hub's event loop. It returns after Close.
func (h *Hub) Run() {
	defer close(h.stopped)
	h.logger.Info("broadcast hub started")
	for {
		select {
		case env := <-h.broadcast:
			env.delivered <- h.deliver(env)

		case <-h.done:
			h.logger.Info("broadcast hub stopped")
			return
		}
	}
}

func (h *Hub) deliver(env envelope) Delivery {
	var d Delivery
	for _, s := range h.directory.Sessions() {
		if s.ID() == env.exclude {
			continue
		}
		if err := s.Send(env.message); err != nil {
			d.Dropped++
			if errors.Is(err, model.ErrSlowConsumer) {
				h.logger.Warn("dropping stalled client",
					slog.String("session_id", string(s.ID())),
					slog.String("name", s.Name()))
			}
			continue
		}
		d.Sent++
	}
	if d.Dropped > 0 {
		h.logger.Warn("broadcast partial failure",
			slog.Int("sent", d.Sent),
			slog.Int("dropped", d.Dropped))
	}
	return d
}

// Broadcast delivers message to every registered session except exclude (pass
// "" to include everyone). It blocks until the message sits on every target's
// outbound queue, so broadcasts issued in order arrive in order.
func (h *Hub) Broadcast(message string, exclude model.SessionID) (Delivery, error) {
	env := envelope{
		message:   message,
		exclude:   exclude,
		delivered: make(chan Delivery, 1),
	}

	select {
	case h.broadcast <- env:
	case <-h.done:
		return Delivery{}, ErrClosed
	}
	return <-env.delivered, nil
}

// BroadcastAll delivers message to every registered session
func (h *Hub) BroadcastAll(message string) (Delivery, error) {
	return h.Broadcast(message, "")
}

// Close stops the hub. Safe to call more than once.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// Stopped is closed once Run has returned
func (h *Hub) Stopped() <-chan struct{} {
	return h.stopped
}
