package hangman

import (
	"fmt"
	"strings"

	"github.com/mcoot/hangchat/internal/model"
)

const boardRule = " ---------------- "

// gallows is drawn one stage per wrong guess
var gallows = [...]string{
	"\n \n \n \n \nn∩",
	"\n |\n |\n |\n |\nn∩",
	" ____\n |\n |\n |\n |\nn∩",
	" ____\n |  !\n |\n |\n |\nn∩",
	" ____\n |  !\n |  o\n |\n |\nn∩",
	" ____\n |  !\n |  o\n |  |\n |\nn∩",
	" ____\n |  !\n | \\o\n |  |\n |\nn∩",
	" ____\n |  !\n | \\o\n |  |\\\n |\nn∩",
	" ____\n |  !\n | \\o\n |  |\\\n |   \\\nn∩",
	" ____\n |  !\n | \\o\n |  |\\\n | / \\\nn∩",
}

// Gallows returns the drawing for a number of wrong guesses, scaled so the
// last stage is reached exactly at maxAttempts.
func Gallows(wrong, maxAttempts int) string {
	last := len(gallows) - 1
	if maxAttempts <= 0 || wrong >= maxAttempts {
		return gallows[last]
	}
	if wrong < 0 {
		wrong = 0
	}
	return gallows[wrong*last/maxAttempts]
}

// StatusLine describes how the game is going
func StatusLine(state model.GameState) string {
	switch state {
	case model.GameStateWon:
		return "Success! You guessed the word - hangman is safe."
	case model.GameStateGameOver:
		return "Game Over! Keep guessing to reveal the word."
	case model.GameStateInProgress:
		return "Hangman can still be saved - guess wisely!"
	default:
		return "No hangman game is running."
	}
}

// RenderBoard formats the game for the players. The secret word itself is
// never part of the board.
func RenderBoard(s Snapshot) string {
	var b strings.Builder
	b.WriteString(boardRule)
	fmt.Fprintf(&b, "\nWord: %s", s.Masked)
	if len(s.Guessed) == 0 {
		b.WriteString("\nStart with your guesses!")
	} else {
		fmt.Fprintf(&b, "\nGuessed letters: %s", spaced(s.Guessed))
	}
	fmt.Fprintf(&b, "\nIncorrect guesses: %d (%d left)", s.WrongAttempts, s.Remaining())
	b.WriteString("\n")
	b.WriteString(Gallows(s.WrongAttempts, s.MaxAttempts))
	b.WriteString("\n")
	b.WriteString(StatusLine(s.State))
	b.WriteString("\n")
	b.WriteString(boardRule)
	return b.String()
}

func spaced(letters []rune) string {
	parts := make([]string, len(letters))
	for i, r := range letters {
		parts[i] = string(r)
	}
	return strings.Join(parts, " ")
}
