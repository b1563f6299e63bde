package response

import (
	"time"

	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/session"
)

// Health is the response for the health endpoint
type Health struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Storage  string `json:"storage"`
}

// Session represents a registered chat client
type Session struct {
	Name        string    `json:"name"`
	ConnectedAt time.Time `json:"connected_at"`
}

// SessionFromModel converts a session to a response Session
func SessionFromModel(s *session.Session) Session {
	return Session{
		Name:        s.Name(),
		ConnectedAt: s.ConnectedAt(),
	}
}

// SessionList is the response for the sessions endpoint
type SessionList struct {
	Count    int       `json:"count"`
	Sessions []Session `json:"sessions"`
}

// Game represents the running hangman game
type Game struct {
	State          string     `json:"state"`
	Host           string     `json:"host,omitempty"`
	Masked         string     `json:"masked,omitempty"`
	Length         int        `json:"length,omitempty"`
	GuessedLetters []string   `json:"guessed_letters"`
	WrongAttempts  int        `json:"wrong_attempts"`
	MaxAttempts    int        `json:"max_attempts"`
	Remaining      int        `json:"remaining"`
	Word           *string    `json:"word,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
}

// GameFromSnapshot converts an engine snapshot. The word is only included
// once it can no longer be guessed.
func GameFromSnapshot(s hangman.Snapshot) Game {
	guessed := make([]string, len(s.Guessed))
	for i, r := range s.Guessed {
		guessed[i] = string(r)
	}

	g := Game{
		State:          string(s.State),
		Host:           s.HostName,
		Masked:         s.Masked,
		Length:         s.Length,
		GuessedLetters: guessed,
		WrongAttempts:  s.WrongAttempts,
		MaxAttempts:    s.MaxAttempts,
		Remaining:      s.Remaining(),
	}
	if s.State == model.GameStateWon || s.State == model.GameStateGameOver {
		word := s.Word
		g.Word = &word
	}
	if s.State.IsActive() {
		started := s.StartedAt
		g.StartedAt = &started
	}
	return g
}

// GameSummary represents a finished game
type GameSummary struct {
	ID             string    `json:"id"`
	Word           string    `json:"word"`
	Host           string    `json:"host"`
	Outcome        string    `json:"outcome"`
	WrongAttempts  int       `json:"wrong_attempts"`
	MaxAttempts    int       `json:"max_attempts"`
	GuessedLetters string    `json:"guessed_letters"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
}

// GameSummaryFromModel converts model.GameSummary
func GameSummaryFromModel(g *model.GameSummary) GameSummary {
	return GameSummary{
		ID:             g.ID,
		Word:           g.Word,
		Host:           g.HostName,
		Outcome:        string(g.Outcome),
		WrongAttempts:  g.WrongAttempts,
		MaxAttempts:    g.MaxAttempts,
		GuessedLetters: g.GuessedLetters,
		StartedAt:      g.StartedAt,
		EndedAt:        g.EndedAt,
	}
}

// GameList is the response for the game history endpoint
type GameList struct {
	Total int           `json:"total"`
	Games []GameSummary `json:"games"`
}
