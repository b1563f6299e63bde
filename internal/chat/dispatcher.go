package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/hangchat/internal/bus"
	"github.com/mcoot/hangchat/internal/dependencies/clock"
	"github.com/mcoot/hangchat/internal/dependencies/random"
	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/session"
	"github.com/mcoot/hangchat/internal/storage"
)

// ErrQuit is returned by Handle when the client asked to leave
var ErrQuit = errors.New("client quit")

// Broadcaster delivers a message to every registered session except exclude
type Broadcaster interface {
	Broadcast(message string, exclude model.SessionID) (bus.Delivery, error)
}

// Dispatcher carries out client commands. Its mutex serializes every registry
// and game mutation together with the broadcasts it causes, so clients see
// game updates in the order they happened.
type Dispatcher struct {
	mu       sync.Mutex
	registry *registry.Registry
	engine   *hangman.Engine
	bus      Broadcaster
	storage  storage.Storage
	random   random.Random
	clock    clock.Clock
	logger   *slog.Logger
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(
	registry *registry.Registry,
	engine *hangman.Engine,
	bus Broadcaster,
	storage storage.Storage,
	random random.Random,
	clock clock.Clock,
	logger *slog.Logger,
) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		engine:   engine,
		bus:      bus,
		storage:  storage,
		random:   random,
		clock:    clock,
		logger:   logger.With(slog.String("component", "dispatcher")),
	}
}

// Welcome greets a freshly connected session
func (d *Dispatcher) Welcome(s *session.Session) {
	d.reply(s, msgWelcome)
}

// Handle parses and runs one line from s. It returns ErrQuit when the client
// asked to leave; the caller then closes the session and calls Disconnect.
func (d *Dispatcher) Handle(ctx context.Context, s *session.Session, line string) error {
	cmd := Parse(line)

	if s.Name() == "" && !allowedUnregistered(cmd) {
		d.reply(s, msgRegisterFirst)
		return nil
	}

	// History reads storage only, keep it outside the lock
	if _, ok := cmd.(HangHistory); ok {
		d.history(ctx, s)
		return nil
	}

	d.mu.Lock()
	finished, err := d.dispatch(s, cmd)
	d.mu.Unlock()

	if finished != nil {
		d.record(ctx, finished)
	}
	return err
}

// dispatch runs cmd with d.mu held. It returns the summary of a game the
// command finished, if any.
func (d *Dispatcher) dispatch(s *session.Session, cmd Command) (*model.GameSummary, error) {
	switch c := cmd.(type) {
	case Chat:
		d.chat(s, c.Text)
	case Name:
		d.name(s, c.Name)
	case Flip:
		d.flip(s)
	case List:
		d.reply(s, connectedList(d.registry.List()))
	case Help:
		d.reply(s, msgHelp)
	case Quit:
		d.reply(s, bye(s.Name()))
		return nil, ErrQuit
	case HangStart:
		d.hangStart(s, c.Word)
	case HangGuess:
		d.hangGuess(s, c.Letter)
	case HangEnd:
		return d.hangEnd(s), nil
	case HangUsage:
		d.reply(s, msgHangUsage)
	}
	return nil, nil
}

// Disconnect releases everything s held: its name and any game it hosts.
// Safe to call more than once.
func (d *Dispatcher) Disconnect(ctx context.Context, s *session.Session) {
	var finished *model.GameSummary

	d.mu.Lock()
	name, wasNamed := d.registry.Unregister(s)
	if wasNamed {
		d.broadcast(left(name), s.ID())
	}
	if final, ended := d.engine.HostLeft(s.ID()); ended {
		d.broadcast(hostLeft(final), s.ID())
		finished = d.summarize(final)
	}
	d.mu.Unlock()

	if finished != nil {
		d.record(ctx, finished)
	}
}

func (d *Dispatcher) chat(s *session.Session, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	d.broadcast(chatLine(s.Name(), text), s.ID())
}

func (d *Dispatcher) name(s *session.Session, name string) {
	if name == "" {
		d.reply(s, msgNameUsage)
		return
	}

	res, err := d.registry.Register(s, name)
	switch {
	case errors.Is(err, model.ErrNameTaken):
		d.reply(s, nameTaken(name))
		return
	case err != nil:
		d.reply(s, errorReply(err))
		return
	}

	switch res.Kind {
	case registry.FirstClaim:
		d.reply(s, nameClaimed(res.Name))
		d.broadcast(joined(res.Name), s.ID())
	case registry.Renamed:
		d.engine.RenameHost(s.ID(), res.Name)
		d.reply(s, nameChanged(res.Name))
		d.broadcast(renamed(res.Previous, res.Name), s.ID())
	case registry.Unchanged:
		d.reply(s, nameUnchanged(res.Name))
	}
}

func (d *Dispatcher) flip(s *session.Session) {
	heads := random.Heads(d.random)
	d.broadcast(flipped(s.Name(), heads), "")
}

func (d *Dispatcher) hangStart(s *session.Session, word string) {
	snap, err := d.engine.Start(s.ID(), s.Name(), word)
	if err != nil {
		d.reply(s, errorReply(err))
		return
	}
	d.reply(s, gameHosted(snap))
	d.broadcast(gameStarted(snap), s.ID())
}

func (d *Dispatcher) hangGuess(s *session.Session, letter string) {
	res, err := d.engine.Guess(letter)
	if err != nil {
		d.reply(s, errorReply(err))
		return
	}
	d.broadcast(guessed(s.Name(), res), "")
}

func (d *Dispatcher) hangEnd(s *session.Session) *model.GameSummary {
	final, err := d.engine.End()
	if err != nil {
		d.reply(s, errorReply(err))
		return nil
	}
	d.broadcast(gameEnded(s.Name(), final), "")
	return d.summarize(final)
}

func (d *Dispatcher) history(ctx context.Context, s *session.Session) {
	games, err := d.storage.ListGameSummaries(ctx, historyLimit)
	if err != nil {
		d.logger.Error("failed to list game history", slog.Any("error", err))
		d.reply(s, msgHistoryFailure)
		return
	}
	d.reply(s, history(games))
}

func (d *Dispatcher) summarize(final hangman.Snapshot) *model.GameSummary {
	return &model.GameSummary{
		ID:             model.NewGameSummaryID(),
		Word:           final.Word,
		HostName:       final.HostName,
		Outcome:        model.OutcomeFor(final.State),
		WrongAttempts:  final.WrongAttempts,
		MaxAttempts:    final.MaxAttempts,
		GuessedLetters: final.GuessedString(),
		StartedAt:      final.StartedAt,
		EndedAt:        d.clock.Now(),
	}
}

func (d *Dispatcher) record(ctx context.Context, summary *model.GameSummary) {
	if err := d.storage.SaveGameSummary(ctx, summary); err != nil {
		d.logger.Error("failed to save game summary",
			slog.String("game_id", summary.ID),
			slog.Any("error", err))
		return
	}
	d.logger.Info("game recorded",
		slog.String("game_id", summary.ID),
		slog.String("outcome", string(summary.Outcome)))
}

func (d *Dispatcher) reply(s *session.Session, msg string) {
	if err := s.Send(msg); err != nil {
		d.logger.Debug("reply not delivered",
			slog.String("session_id", string(s.ID())),
			slog.Any("error", err))
	}
}

func (d *Dispatcher) broadcast(msg string, exclude model.SessionID) {
	if _, err := d.bus.Broadcast(msg, exclude); err != nil {
		d.logger.Warn("broadcast failed", slog.Any("error", err))
	}
}
