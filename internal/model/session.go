package model

import "github.com/google/uuid"

// SessionID uniquely identifies a connected session for its lifetime
type SessionID string

// NewSessionID generates a fresh random SessionID
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}
