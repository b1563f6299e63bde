package storage

import (
	"context"

	"github.com/mcoot/hangchat/internal/model"
)

// DefaultListLimit is used when a caller asks for a non-positive number of games
const DefaultListLimit = 20

// Storage defines the interface for game history persistence
type Storage interface {
	// Game history operations
	SaveGameSummary(ctx context.Context, summary *model.GameSummary) error
	GetGameSummary(ctx context.Context, id string) (*model.GameSummary, error)
	// ListGameSummaries returns up to limit games, most recently ended first
	ListGameSummaries(ctx context.Context, limit int) ([]*model.GameSummary, error)
	CountGameSummaries(ctx context.Context) (int, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error
	Close() error
}
