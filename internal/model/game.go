package model

import (
	"time"

	"github.com/google/uuid"
)

// GameState represents the current phase of the hangman game
type GameState string

const (
	GameStateNone       GameState = "no_game"     // No game is active
	GameStateInProgress GameState = "in_progress" // Guesses are being taken
	GameStateGameOver   GameState = "game_over"   // Out of attempts, word can still be revealed
	GameStateWon        GameState = "won"         // Every letter has been revealed
)

// IsActive returns true for every state other than GameStateNone
func (s GameState) IsActive() bool {
	return s != GameStateNone && s != ""
}

// GameOutcome describes how a game finished
type GameOutcome string

const (
	OutcomeWon       GameOutcome = "won"
	OutcomeLost      GameOutcome = "lost"
	OutcomeAbandoned GameOutcome = "abandoned"
)

// OutcomeFor returns the outcome of a game that is ended while in the given state
func OutcomeFor(state GameState) GameOutcome {
	switch state {
	case GameStateWon:
		return OutcomeWon
	case GameStateGameOver:
		return OutcomeLost
	default:
		return OutcomeAbandoned
	}
}

// GameSummary is a lightweight record of a finished game
type GameSummary struct {
	ID             string      `json:"id"`
	Word           string      `json:"word"`
	HostName       string      `json:"host_name"`
	Outcome        GameOutcome `json:"outcome"`
	WrongAttempts  int         `json:"wrong_attempts"`
	MaxAttempts    int         `json:"max_attempts"`
	GuessedLetters string      `json:"guessed_letters"`
	StartedAt      time.Time   `json:"started_at"`
	EndedAt        time.Time   `json:"ended_at"`
}

// NewGameSummaryID generates an id for a finished game
func NewGameSummaryID() string {
	return uuid.NewString()
}
