package hangman

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/mcoot/hangchat/internal/dependencies/clock"
	"github.com/mcoot/hangchat/internal/model"
)

const (
	// DefaultMaxAttempts is the number of wrong guesses before game over
	DefaultMaxAttempts = 10

	// MaxWordLength keeps the rendered board inside a single frame
	MaxWordLength = 64

	placeholder = '_'
)

// Snapshot is a read-only view of the game at one instant
type Snapshot struct {
	State         model.GameState
	Word          string // as given by the host; only shown to players once the game ends
	Masked        string
	Length        int
	Letters       int // characters to guess; spaces and punctuation are not counted
	Guessed       []rune
	WrongAttempts int
	MaxAttempts   int
	HostID        model.SessionID
	HostName      string
	StartedAt     time.Time
}

// Remaining returns the number of wrong guesses left
func (s Snapshot) Remaining() int {
	if r := s.MaxAttempts - s.WrongAttempts; r > 0 {
		return r
	}
	return 0
}

// GuessedString returns the guessed letters in the order they were guessed
func (s Snapshot) GuessedString() string {
	return string(s.Guessed)
}

// GuessResult is returned for every accepted guess
type GuessResult struct {
	Letter   rune
	Hit      bool
	Snapshot Snapshot
}

// game is the state of the single active game
type game struct {
	word      string
	display   []rune // characters of the word as given
	secret    []rune // normalized characters, 0 where nothing survives normalization
	letters   int
	guessed   []rune
	seen      map[rune]bool
	wrong     int
	state     model.GameState
	hostID    model.SessionID
	hostName  string
	startedAt time.Time
}

// Engine owns the one hangman game of the server
type Engine struct {
	mu          sync.Mutex
	current     *game
	maxAttempts int
	clock       clock.Clock
	logger      *slog.Logger
}

// NewEngine creates an Engine with no active game
func NewEngine(maxAttempts int, clock clock.Clock, logger *slog.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Engine{
		maxAttempts: maxAttempts,
		clock:       clock,
		logger:      logger.With(slog.String("component", "hangman")),
	}
}

// MaxAttempts returns the number of wrong guesses allowed per game
func (e *Engine) MaxAttempts() int {
	return e.maxAttempts
}

// Start begins a new game hosted by the given session
func (e *Engine) Start(hostID model.SessionID, hostName, word string) (Snapshot, error) {
	word = strings.TrimSpace(norm.NFC.String(word))
	if word == "" {
		return Snapshot{}, fmt.Errorf("%w: word is empty", model.ErrInvalidWord)
	}
	if utf8.RuneCountInString(word) > MaxWordLength {
		return Snapshot{}, fmt.Errorf("%w: word is longer than %d characters", model.ErrInvalidWord, MaxWordLength)
	}

	g := &game{
		word:     word,
		seen:     make(map[rune]bool),
		state:    model.GameStateInProgress,
		hostID:   hostID,
		hostName: hostName,
	}
	guessable := 0
	for _, r := range word {
		n, ok := normalizeRune(r)
		if !ok {
			n = 0
		}
		g.display = append(g.display, r)
		g.secret = append(g.secret, n)
		if isGuessable(n) {
			guessable++
		}
	}
	if guessable == 0 {
		return Snapshot{}, fmt.Errorf("%w: word has no letters to guess", model.ErrInvalidWord)
	}
	g.letters = guessable

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		return Snapshot{}, model.ErrGameAlreadyActive
	}

	g.startedAt = e.clock.Now()
	e.current = g

	e.logger.Info("game started",
		slog.String("host_id", string(hostID)),
		slog.String("host", hostName),
		slog.Int("length", len(g.display)))

	return e.snapshotLocked(), nil
}

// Guess records a guessed letter for the active game
func (e *Engine) Guess(input string) (GuessResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g := e.current
	if g == nil {
		return GuessResult{}, fmt.Errorf("%w: %w", model.ErrInvalidGuess, model.ErrNoGameActive)
	}

	letter, ok := parseGuess(input)
	if !ok {
		return GuessResult{}, fmt.Errorf("%w: %q is not a single letter", model.ErrInvalidGuess, input)
	}
	if g.state == model.GameStateWon {
		return GuessResult{}, model.ErrWordSolved
	}
	if g.seen[letter] {
		return GuessResult{}, fmt.Errorf("%w: %c", model.ErrAlreadyGuessed, letter)
	}

	g.seen[letter] = true
	g.guessed = append(g.guessed, letter)

	hit := g.contains(letter)
	if !hit && g.state == model.GameStateInProgress {
		g.wrong++
		if g.wrong >= e.maxAttempts {
			g.state = model.GameStateGameOver
			e.logger.Info("game over", slog.Int("wrong_attempts", g.wrong))
		}
	}
	if g.solved() {
		g.state = model.GameStateWon
		e.logger.Info("word solved", slog.Int("wrong_attempts", g.wrong))
	}

	return GuessResult{Letter: letter, Hit: hit, Snapshot: e.snapshotLocked()}, nil
}

// End resets the engine and returns the final view of the game
func (e *Engine) End() (Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil {
		return Snapshot{}, model.ErrNoGameActive
	}
	return e.endLocked(), nil
}

// HostLeft ends the game if hostID is hosting it. The bool reports whether a
// game was ended.
func (e *Engine) HostLeft(hostID model.SessionID) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.current.hostID != hostID {
		return Snapshot{}, false
	}
	return e.endLocked(), true
}

// RenameHost updates the host name shown for the active game when hostID is
// hosting it
func (e *Engine) RenameHost(hostID model.SessionID, name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == nil || e.current.hostID != hostID {
		return
	}
	e.current.hostName = name
}

// Snapshot returns the current view of the game. State is GameStateNone when
// no game is active.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) endLocked() Snapshot {
	final := e.snapshotLocked()
	e.current = nil
	e.logger.Info("game ended",
		slog.String("state", string(final.State)),
		slog.Int("wrong_attempts", final.WrongAttempts))
	return final
}

func (e *Engine) snapshotLocked() Snapshot {
	g := e.current
	if g == nil {
		return Snapshot{State: model.GameStateNone, MaxAttempts: e.maxAttempts}
	}

	guessed := make([]rune, len(g.guessed))
	copy(guessed, g.guessed)

	return Snapshot{
		State:         g.state,
		Word:          g.word,
		Masked:        g.masked(),
		Length:        len(g.display),
		Letters:       g.letters,
		Guessed:       guessed,
		WrongAttempts: g.wrong,
		MaxAttempts:   e.maxAttempts,
		HostID:        g.hostID,
		HostName:      g.hostName,
		StartedAt:     g.startedAt,
	}
}

func (g *game) contains(letter rune) bool {
	for _, r := range g.secret {
		if r == letter {
			return true
		}
	}
	return false
}

func (g *game) solved() bool {
	for _, r := range g.secret {
		if isGuessable(r) && !g.seen[r] {
			return false
		}
	}
	return true
}

func (g *game) masked() string {
	var b strings.Builder
	for i, r := range g.secret {
		if !isGuessable(r) || g.seen[r] {
			b.WriteRune(g.display[i])
		} else {
			b.WriteRune(placeholder)
		}
	}
	return b.String()
}
