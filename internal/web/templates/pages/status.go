package pages

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/hangchat/internal/api/response"
	"github.com/mcoot/hangchat/internal/web/templates/layout"
)

const timeFormat = "2006-01-02 15:04:05"

// StatusData is everything shown on the status page
type StatusData struct {
	layout.PageData
	Sessions []response.Session
	Game     response.Game
	Games    []response.GameSummary
	// HistoryError is set when the game history could not be loaded
	HistoryError bool
}

func formatTime(t time.Time) string {
	return t.Format(timeFormat)
}

func guessedLetters(game response.Game) string {
	return strings.Join(game.GuessedLetters, " ")
}

func wrongOf(wrong, limit int) string {
	return fmt.Sprintf("%d/%d", wrong, limit)
}

func sessionCount(sessions []response.Session) string {
	return strconv.Itoa(len(sessions))
}
