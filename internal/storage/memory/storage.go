package memory

import (
	"context"
	"sync"

	"github.com/mcoot/hangchat/internal/model"
	"github.com/mcoot/hangchat/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	games   map[string]*model.GameSummary
	history []string // ids, oldest first
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games: make(map[string]*model.GameSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game history operations

func (s *Storage) SaveGameSummary(ctx context.Context, summary *model.GameSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *summary
	if _, exists := s.games[summary.ID]; !exists {
		s.history = append(s.history, summary.ID)
	}
	s.games[summary.ID] = &stored
	return nil
}

func (s *Storage) GetGameSummary(ctx context.Context, id string) (*model.GameSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	summary, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	out := *summary
	return &out, nil
}

func (s *Storage) ListGameSummaries(ctx context.Context, limit int) ([]*model.GameSummary, error) {
	if limit <= 0 {
		limit = storage.DefaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.GameSummary, 0, min(limit, len(s.history)))
	for i := len(s.history) - 1; i >= 0 && len(result) < limit; i-- {
		summary := *s.games[s.history[i]]
		result = append(result, &summary)
	}
	return result, nil
}

func (s *Storage) CountGameSummaries(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history), nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return nil
}

func (s *Storage) Close() error {
	return nil
}
