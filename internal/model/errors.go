package model

import "errors"

// Common errors used across the application
var (
	// Registry errors
	ErrNameTaken     = errors.New("name is already taken")
	ErrInvalidName   = errors.New("invalid name")
	ErrNotRegistered = errors.New("session has no registered name")

	// Hangman errors
	ErrGameAlreadyActive = errors.New("a hangman game is already active")
	ErrNoGameActive      = errors.New("no hangman game is active")
	ErrInvalidGuess      = errors.New("invalid guess")
	ErrAlreadyGuessed    = errors.New("letter was already guessed")
	ErrInvalidWord       = errors.New("invalid word")
	ErrWordSolved        = errors.New("word is already solved")

	// Storage errors
	ErrGameNotFound = errors.New("game not found")

	// Connection errors
	ErrConnectionLost = errors.New("connection lost")
	ErrSlowConsumer   = errors.New("session outbound queue is full")
)
