package handler

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/mcoot/hangchat/internal/api/response"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/storage"
	"github.com/mcoot/hangchat/internal/web/templates/layout"
	"github.com/mcoot/hangchat/internal/web/templates/pages"
)

const (
	recentGames    = 10
	refreshSeconds = 5
)

// StatusHandler renders the status page
type StatusHandler struct {
	registry *registry.Registry
	engine   *hangman.Engine
	storage  storage.Storage
	logger   *slog.Logger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(registry *registry.Registry, engine *hangman.Engine, storage storage.Storage, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		registry: registry,
		engine:   engine,
		storage:  storage,
		logger:   logger,
	}
}

// Status renders the status page
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	data := pages.StatusData{
		PageData: layout.PageData{
			Title:          "Status",
			RefreshSeconds: refreshSeconds,
		},
		Game: response.GameFromSnapshot(h.engine.Snapshot()),
	}

	for _, s := range h.registry.Sessions() {
		data.Sessions = append(data.Sessions, response.SessionFromModel(s))
	}
	sort.Slice(data.Sessions, func(i, j int) bool { return data.Sessions[i].Name < data.Sessions[j].Name })

	games, err := h.storage.ListGameSummaries(r.Context(), recentGames)
	if err != nil {
		h.logger.Warn("status page without history", slog.Any("error", err))
		data.HistoryError = true
	}
	for _, g := range games {
		data.Games = append(data.Games, response.GameSummaryFromModel(g))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.Status(data).Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render status page", slog.Any("error", err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
