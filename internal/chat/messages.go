package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
)

// historyLimit is the number of games listed by :hang history
const historyLimit = 5

const (
	msgWelcome        = "welcome to hangchat! pick a name with :name <name>, :help lists the commands"
	msgRegisterFirst  = "please register first with :name <name>"
	msgNameUsage      = "usage: :name <name>"
	msgHangUsage      = "usage: :hang start <word> | :hang guess <letter> | :hang end | :hang history"
	msgNoHistory      = "no hangman games have finished yet"
	msgHistoryFailure = "game history is unavailable right now"

	msgHelp = `commands:
:name <name>          pick or change your name
:list                 show who is connected
:flip                 flip a coin for everyone
:hang start <word>    host a hangman game
:hang guess <letter>  guess a letter
:hang end             end the running game
:hang history         show recent games
:help                 show this help
:quit                 leave the chat`
)

func chatLine(name, text string) string {
	return name + ": " + text
}

func nameClaimed(name string) string {
	return name + " is unique and was appended to your client!"
}

func nameTaken(name string) string {
	return "name_taken: " + name + "\nchange the name with :name <new_name>"
}

func nameUnchanged(name string) string {
	return "you are already known as " + name
}

func nameChanged(name string) string {
	return "you are now known as " + name
}

func joined(name string) string {
	return name + " joined"
}

func renamed(previous, name string) string {
	return previous + " is now known as " + name
}

func left(name string) string {
	return name + " left"
}

func bye(name string) string {
	if name == "" {
		return "bye!"
	}
	return "bye " + name + "!"
}

func flipped(name string, heads bool) string {
	side := "tails"
	if heads {
		side = "heads"
	}
	return name + " flipped a coin: " + side
}

func connectedList(names []string) string {
	return fmt.Sprintf("connected (%d): %s", len(names), strings.Join(names, ", "))
}

func gameHosted(snap hangman.Snapshot) string {
	return fmt.Sprintf("your hangman game has started: %s. the others are guessing now", letterCount(snap.Letters))
}

func gameStarted(snap hangman.Snapshot) string {
	return fmt.Sprintf("%s started a hangman game: %s\nWord: %s\nguess with :hang guess <letter>",
		snap.HostName, letterCount(snap.Letters), snap.Masked)
}

func letterCount(n int) string {
	if n == 1 {
		return "1 letter"
	}
	return fmt.Sprintf("%d letters", n)
}

func guessed(name string, res hangman.GuessResult) string {
	verdict := "miss"
	if res.Hit {
		verdict = "hit"
	}
	return fmt.Sprintf("%s guessed %c (%s)\n%s", name, res.Letter, verdict, hangman.RenderBoard(res.Snapshot))
}

func gameEnded(name string, final hangman.Snapshot) string {
	return fmt.Sprintf("%s ended the hangman game (%s). The word was: %s",
		name, model.OutcomeFor(final.State), final.Word)
}

func hostLeft(final hangman.Snapshot) string {
	return fmt.Sprintf("%s left, so the hangman game is over (%s). The word was: %s",
		final.HostName, model.OutcomeFor(final.State), final.Word)
}

func history(games []*model.GameSummary) string {
	if len(games) == 0 {
		return msgNoHistory
	}
	var b strings.Builder
	b.WriteString("recent games:")
	for _, g := range games {
		fmt.Fprintf(&b, "\n%s by %s: %s (%d/%d wrong)", g.Word, g.HostName, g.Outcome, g.WrongAttempts, g.MaxAttempts)
	}
	return b.String()
}

// errorReply turns a command error into the text sent back to the requester
func errorReply(err error) string {
	switch {
	case errors.Is(err, model.ErrNoGameActive):
		return "no hangman game is running, start one with :hang start <word>"
	case errors.Is(err, model.ErrGameAlreadyActive):
		return "a hangman game is already running, end it with :hang end"
	case errors.Is(err, model.ErrAlreadyGuessed):
		return "that letter was already guessed"
	case errors.Is(err, model.ErrWordSolved):
		return "the word is already solved, end the game with :hang end"
	case errors.Is(err, model.ErrInvalidGuess):
		return "guess a single letter with :hang guess <letter>"
	case errors.Is(err, model.ErrInvalidWord):
		return fmt.Sprintf("the word needs at least one letter and at most %d characters", hangman.MaxWordLength)
	case errors.Is(err, model.ErrInvalidName):
		return fmt.Sprintf("names must be 1 to %d characters without spaces", registry.MaxNameLength)
	case errors.Is(err, model.ErrNotRegistered):
		return msgRegisterFirst
	default:
		return "something went wrong, please try again"
	}
}
