package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintf(o.w, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case HealthResult:
		o.printHealthResult(v)
	case SessionList:
		o.printSessionList(v)
	case GameState:
		o.printGameState(v)
	case GameSummary:
		o.printGameSummary(v)
	case GameList:
		o.printGameList(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Storage  string `json:"storage"`
}

// Session response type
type Session struct {
	Name        string    `json:"name"`
	ConnectedAt time.Time `json:"connected_at"`
}

// SessionList response type
type SessionList struct {
	Count    int       `json:"count"`
	Sessions []Session `json:"sessions"`
}

// GameState response type
type GameState struct {
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

// GameSummary response type
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

// GameList response type
type GameList struct {
	Total int           `json:"total"`
	Games []GameSummary `json:"games"`
}

func (o *Output) printHealthResult(h HealthResult) {
	_, _ = fmt.Fprintf(o.w, "Status: %s\n", h.Status)
	_, _ = fmt.Fprintf(o.w, "Sessions: %d\n", h.Sessions)
	_, _ = fmt.Fprintf(o.w, "Storage: %s\n", h.Storage)
}

func (o *Output) printSessionList(l SessionList) {
	_, _ = fmt.Fprintf(o.w, "Connected (%d):\n", l.Count)
	for _, s := range l.Sessions {
		_, _ = fmt.Fprintf(o.w, "  - %s (since %s)\n", s.Name, s.ConnectedAt.Format(time.DateTime))
	}
}

func (o *Output) printGameState(g GameState) {
	if g.State == "no_game" {
		_, _ = fmt.Fprintln(o.w, "No hangman game is running")
		return
	}

	_, _ = fmt.Fprintf(o.w, "State: %s\n", g.State)
	_, _ = fmt.Fprintf(o.w, "Host: %s\n", g.Host)
	_, _ = fmt.Fprintf(o.w, "Word: %s\n", g.Masked)
	if len(g.GuessedLetters) > 0 {
		_, _ = fmt.Fprintf(o.w, "Guessed: %s\n", strings.Join(g.GuessedLetters, " "))
	}
	_, _ = fmt.Fprintf(o.w, "Wrong: %d/%d (%d left)\n", g.WrongAttempts, g.MaxAttempts, g.Remaining)
	if g.Word != nil {
		_, _ = fmt.Fprintf(o.w, "Solution: %s\n", *g.Word)
	}
}

func (o *Output) printGameSummary(g GameSummary) {
	_, _ = fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	_, _ = fmt.Fprintf(o.w, "Word: %s\n", g.Word)
	_, _ = fmt.Fprintf(o.w, "Host: %s\n", g.Host)
	_, _ = fmt.Fprintf(o.w, "Outcome: %s\n", g.Outcome)
	_, _ = fmt.Fprintf(o.w, "Wrong: %d/%d\n", g.WrongAttempts, g.MaxAttempts)
	if g.GuessedLetters != "" {
		_, _ = fmt.Fprintf(o.w, "Guessed: %s\n", g.GuessedLetters)
	}
	_, _ = fmt.Fprintf(o.w, "Ended: %s\n", g.EndedAt.Format(time.DateTime))
}

func (o *Output) printGameList(l GameList) {
	if len(l.Games) == 0 {
		_, _ = fmt.Fprintln(o.w, "No games played yet")
		return
	}

	_, _ = fmt.Fprintf(o.w, "Recent games (%d of %d):\n", len(l.Games), l.Total)
	for _, g := range l.Games {
		_, _ = fmt.Fprintf(o.w, "  %s  %-10s %-9s by %s (%d/%d wrong)\n",
			g.EndedAt.Format(time.DateTime), g.Word, g.Outcome, g.Host, g.WrongAttempts, g.MaxAttempts)
	}
}
