package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/hangchat/internal/api"
	"github.com/mcoot/hangchat/internal/config"
	"github.com/mcoot/hangchat/internal/factory"
	"github.com/mcoot/hangchat/internal/server"
	"github.com/mcoot/hangchat/internal/web"
)

func main() {
	configPath := flag.String("config", os.Getenv("HANGCHAT_CONFIG"), "Path to a YAML config file (env: HANGCHAT_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	// Create application factory
	app, err := factory.New(factory.ConfigFrom(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	app.Start()

	// Create chat server
	chatConfig := server.Config{
		Addr:            cfg.ListenAddr,
		FrameWidth:      cfg.FrameWidth,
		SendQueueSize:   cfg.SendQueueSize,
		ShutdownTimeout: cfg.ShutdownTimeout,
		FlushTimeout:    server.DefaultConfig().FlushTimeout,
	}
	chatServer, err := server.NewServer(chatConfig, app.Dispatcher, app.Clock, logger)
	if err != nil {
		logger.Error("failed to create chat server", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := chatServer.Listen(); err != nil {
		logger.Error("failed to bind chat server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create admin server
	var adminServer *api.Server
	if cfg.Admin.Enabled {
		apiRouter := api.NewRouter(api.RouterConfig{
			Logger:          logger,
			Registry:        app.Registry,
			Engine:          app.Engine,
			Storage:         app.Storage,
			HistoryCacheTTL: cfg.HistoryCacheTTL,
		})
		webRouter := web.NewRouter(web.RouterConfig{
			Logger:   logger,
			Registry: app.Registry,
			Engine:   app.Engine,
			Storage:  app.Storage,
		})

		// Combine routers
		mux := http.NewServeMux()
		mux.Handle("/api/", apiRouter)
		mux.Handle("/", webRouter)

		adminConfig := api.DefaultServerConfig()
		adminConfig.Addr = cfg.Admin.Addr
		adminServer = api.NewServer(mux, adminConfig, logger)
	}

	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() {
		errCh <- chatServer.Serve()
	}()
	if adminServer != nil {
		go func() {
			errCh <- adminServer.Start()
		}()
	}

	logger.Info("server started",
		slog.String("addr", chatServer.Addr()),
		slog.Bool("admin", cfg.Admin.Enabled),
		slog.String("storage", cfg.Storage.Type),
	)

	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, server.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	if err := chatServer.Shutdown(context.Background()); err != nil {
		logger.Error("chat shutdown error", slog.String("error", err.Error()))
		exitCode = 1
	}
	if adminServer != nil {
		if err := adminServer.Shutdown(context.Background()); err != nil {
			logger.Error("admin shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}
	if err := app.Close(); err != nil {
		logger.Error("failed to close storage", slog.String("error", err.Error()))
		exitCode = 1
	}

	logger.Info("server stopped")
	os.Exit(exitCode)
}
