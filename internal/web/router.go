package web

//go:generate go run github.com/a-h/templ/cmd/templ generate -path ./templates

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/hangchat/internal/middleware"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/storage"
	"github.com/mcoot/hangchat/internal/web/handler"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger   *slog.Logger
	Registry *registry.Registry
	Engine   *hangman.Engine
	Storage  storage.Storage
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	logger := cfg.Logger.With(slog.String("component", "web"))

	// Apply global middleware to all routes
	r.Use(middleware.Recovery(logger, panicPage))
	r.Use(middleware.Logging(logger))

	statusHandler := handler.NewStatusHandler(cfg.Registry, cfg.Engine, cfg.Storage, cfg.Logger)

	r.HandleFunc("/", statusHandler.Status).Methods(http.MethodGet)

	return r
}

// panicPage answers with an HTML error page after a handler panicked
func panicPage(w http.ResponseWriter, _ *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Error | hangchat</title></head>
<body>
<h1>Internal Server Error</h1>
<p>Something went wrong. Please try again later.</p>
<p><a href="/">Back to the status page</a></p>
</body>
</html>`))
}
