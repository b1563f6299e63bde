package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/hangchat/internal/api/apierr"
	"github.com/mcoot/hangchat/internal/api/handler"
	"github.com/mcoot/hangchat/internal/middleware"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Registry        *registry.Registry
	Engine          *hangman.Engine
	Storage         storage.Storage
	HistoryCacheTTL time.Duration
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	statusHandler := handler.NewStatusHandler(cfg.Registry, cfg.Engine, cfg.Storage, cfg.HistoryCacheTTL, cfg.Logger)

	logger := cfg.Logger.With(slog.String("component", "api"))
	loggingMiddleware := middleware.Logging(logger)
	recoveryMiddleware := middleware.Recovery(logger, func(w http.ResponseWriter, _ *http.Request, _ any) {
		apierr.WriteError(w, apierr.NewInternalError())
	})

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	api.HandleFunc("/health", statusHandler.Health).Methods(http.MethodGet)
	api.HandleFunc("/sessions", statusHandler.Sessions).Methods(http.MethodGet)
	api.HandleFunc("/game", statusHandler.Game).Methods(http.MethodGet)
	api.HandleFunc("/games", statusHandler.Games).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", statusHandler.GameByID).Methods(http.MethodGet)

	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewNotFoundError())
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		apierr.WriteError(w, apierr.NewMethodNotAllowedError())
	})
	api.MethodNotAllowedHandler = methodNotAllowed
	r.MethodNotAllowedHandler = methodNotAllowed

	return r
}
