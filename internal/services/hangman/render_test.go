package hangman

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/hangchat/internal/model"
)

func TestGallowsStages(t *testing.T) {
	assert.Equal(t, gallows[0], Gallows(0, 10))
	assert.Equal(t, gallows[4], Gallows(5, 10))
	assert.Equal(t, gallows[8], Gallows(9, 10))
	assert.Equal(t, gallows[9], Gallows(10, 10))
	assert.Equal(t, gallows[9], Gallows(12, 10))
	assert.Equal(t, gallows[9], Gallows(3, 3))
	assert.Equal(t, gallows[0], Gallows(-1, 10))
}

func TestRenderBoardBeforeGuesses(t *testing.T) {
	board := RenderBoard(Snapshot{
		State:       model.GameStateInProgress,
		Word:        "apple",
		Masked:      "_____",
		MaxAttempts: 10,
	})

	assert.Contains(t, board, "Word: _____")
	assert.Contains(t, board, "Start with your guesses!")
	assert.Contains(t, board, "Incorrect guesses: 0 (10 left)")
	assert.Contains(t, board, "Hangman can still be saved - guess wisely!")
	assert.NotContains(t, board, "apple")
}

func TestRenderBoardStatusLines(t *testing.T) {
	won := RenderBoard(Snapshot{
		State:         model.GameStateWon,
		Masked:        "apple",
		Guessed:       []rune("aplex"),
		WrongAttempts: 1,
		MaxAttempts:   10,
	})
	assert.Contains(t, won, "Guessed letters: a p l e x")
	assert.Contains(t, won, "Success! You guessed the word - hangman is safe.")

	over := RenderBoard(Snapshot{
		State:         model.GameStateGameOver,
		Masked:        "a____",
		Guessed:       []rune("abcdfghijkm"),
		WrongAttempts: 10,
		MaxAttempts:   10,
	})
	assert.Contains(t, over, "Game Over!")
	assert.Contains(t, over, "Incorrect guesses: 10 (0 left)")
	assert.Contains(t, over, " | / \\")
}
