package hangman

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize strips diacritics and lower-cases s, so "É" and "e" compare equal.
// It is idempotent.
func Normalize(s string) string {
	// transform.Chain keeps per-call state, so build a fresh chain each time
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// normalizeRune normalizes a single character. It returns false when the
// character vanishes (a lone combining mark) or expands to several runes.
func normalizeRune(r rune) (rune, bool) {
	n := Normalize(string(r))
	if utf8.RuneCountInString(n) != 1 {
		return 0, false
	}
	out, _ := utf8.DecodeRuneInString(n)
	return out, true
}

// isGuessable reports whether a normalized character has to be guessed.
// Everything else in a word (spaces, hyphens, apostrophes) is always shown.
func isGuessable(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// parseGuess turns raw input into a normalized guessable character
func parseGuess(input string) (rune, bool) {
	n := Normalize(strings.TrimSpace(input))
	if utf8.RuneCountInString(n) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(n)
	if !isGuessable(r) {
		return 0, false
	}
	return r, true
}
