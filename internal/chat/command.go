// Package chat turns client lines into commands and carries them out.
package chat

import "strings"

const commandPrefix = ":"

// Command is one parsed client line. The set of implementations is closed.
type Command interface {
	command()
}

type (
	// Chat is plain text for everyone else
	Chat struct{ Text string }
	// Name claims or changes the display name. Name is empty when missing.
	Name struct{ Name string }
	// Flip tosses a coin for everyone
	Flip struct{}
	// List asks for the connected names
	List struct{}
	// Help asks for the command summary
	Help struct{}
	// Quit leaves the chat
	Quit struct{}
	// HangStart hosts a new hangman game
	HangStart struct{ Word string }
	// HangEnd ends the running game
	HangEnd struct{}
	// HangGuess guesses one letter
	HangGuess struct{ Letter string }
	// HangHistory asks for recently finished games
	HangHistory struct{}
	// HangUsage is a :hang line with a missing or unknown subcommand
	HangUsage struct{ Subcommand string }
)

func (Chat) command()        {}
func (Name) command()        {}
func (Flip) command()        {}
func (List) command()        {}
func (Help) command()        {}
func (Quit) command()        {}
func (HangStart) command()   {}
func (HangEnd) command()     {}
func (HangGuess) command()   {}
func (HangHistory) command() {}
func (HangUsage) command()   {}

// Parse classifies a line. Anything that is not a known command, including
// unknown :words, is chat.
func Parse(line string) Command {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, commandPrefix) {
		return Chat{Text: line}
	}

	word, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch word {
	case ":name":
		return Name{Name: rest}
	case ":flip":
		return Flip{}
	case ":list":
		return List{}
	case ":help":
		return Help{}
	case ":quit":
		return Quit{}
	case ":hang":
		return parseHang(rest)
	default:
		return Chat{Text: line}
	}
}

func parseHang(args string) Command {
	sub, arg, _ := strings.Cut(args, " ")
	arg = strings.TrimSpace(arg)

	switch sub {
	case "start":
		if arg == "" {
			return HangUsage{Subcommand: sub}
		}
		return HangStart{Word: arg}
	case "guess":
		if arg == "" {
			return HangUsage{Subcommand: sub}
		}
		return HangGuess{Letter: arg}
	case "end":
		return HangEnd{}
	case "history":
		return HangHistory{}
	default:
		return HangUsage{Subcommand: sub}
	}
}

// allowedUnregistered reports whether a session without a name may run cmd
func allowedUnregistered(cmd Command) bool {
	switch cmd.(type) {
	case Name, Help, Quit:
		return true
	default:
		return false
	}
}
