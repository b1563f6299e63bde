package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/patrickmn/go-cache"

	"github.com/mcoot/hangchat/internal/api/apierr"
	"github.com/mcoot/hangchat/internal/api/response"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/storage"
)

// MaxHistoryLimit caps the limit query parameter of the history endpoint
const MaxHistoryLimit = 100

// StatusHandler serves read-only views of the chat server
type StatusHandler struct {
	registry *registry.Registry
	engine   *hangman.Engine
	storage  storage.Storage
	history  *cache.Cache
	logger   *slog.Logger
}

// NewStatusHandler creates a new status handler. Game history responses are
// cached for historyTTL; zero disables the cache.
func NewStatusHandler(
	registry *registry.Registry,
	engine *hangman.Engine,
	storage storage.Storage,
	historyTTL time.Duration,
	logger *slog.Logger,
) *StatusHandler {
	h := &StatusHandler{
		registry: registry,
		engine:   engine,
		storage:  storage,
		logger:   logger,
	}
	if historyTTL > 0 {
		h.history = cache.New(historyTTL, 2*historyTTL)
	}
	return h
}

// Health handles GET /api/v1/health
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := response.Health{
		Status:   "ok",
		Sessions: h.registry.Len(),
		Storage:  "ok",
	}
	status := http.StatusOK

	if err := h.storage.Ping(r.Context()); err != nil {
		h.logger.Warn("storage ping failed", slog.Any("error", err))
		resp.Status = "degraded"
		resp.Storage = "unavailable"
		status = http.StatusServiceUnavailable
	}

	response.JSON(w, status, resp)
}

// Sessions handles GET /api/v1/sessions
func (h *StatusHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.sessionList())
}

func (h *StatusHandler) sessionList() response.SessionList {
	sessions := h.registry.Sessions()
	list := make([]response.Session, 0, len(sessions))
	for _, s := range sessions {
		list = append(list, response.SessionFromModel(s))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })

	return response.SessionList{Count: len(list), Sessions: list}
}

// Game handles GET /api/v1/game
func (h *StatusHandler) Game(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.GameFromSnapshot(h.engine.Snapshot()))
}

// Games handles GET /api/v1/games?limit=n
func (h *StatusHandler) Games(w http.ResponseWriter, r *http.Request) {
	limit := storage.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > MaxHistoryLimit {
			WriteError(w, apierr.NewInvalidRequestError(fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit)))
			return
		}
		limit = n
	}

	list, err := h.gameList(r, limit)
	if err != nil {
		h.logger.Error("failed to list games", slog.Any("error", err))
		WriteError(w, apierr.NewStorageUnavailableError())
		return
	}
	response.JSON(w, http.StatusOK, list)
}

func (h *StatusHandler) gameList(r *http.Request, limit int) (response.GameList, error) {
	key := "games:" + strconv.Itoa(limit)
	if h.history != nil {
		if cached, ok := h.history.Get(key); ok {
			return cached.(response.GameList), nil
		}
	}

	games, err := h.storage.ListGameSummaries(r.Context(), limit)
	if err != nil {
		return response.GameList{}, err
	}
	total, err := h.storage.CountGameSummaries(r.Context())
	if err != nil {
		return response.GameList{}, err
	}

	list := response.GameList{Total: total, Games: make([]response.GameSummary, len(games))}
	for i, g := range games {
		list.Games[i] = response.GameSummaryFromModel(g)
	}

	if h.history != nil {
		h.history.SetDefault(key, list)
	}
	return list, nil
}

// GameByID handles GET /api/v1/games/{id}
func (h *StatusHandler) GameByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	summary, err := h.storage.GetGameSummary(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.GameSummaryFromModel(summary))
}
