package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/mcoot/hangchat/internal/bus"
	"github.com/mcoot/hangchat/internal/chat"
	"github.com/mcoot/hangchat/internal/config"
	"github.com/mcoot/hangchat/internal/dependencies/clock"
	"github.com/mcoot/hangchat/internal/dependencies/random"
	"github.com/mcoot/hangchat/internal/services/hangman"
	"github.com/mcoot/hangchat/internal/services/registry"
	"github.com/mcoot/hangchat/internal/storage"
	"github.com/mcoot/hangchat/internal/storage/memory"
	redisstorage "github.com/mcoot/hangchat/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = config.StorageTypeMemory
	StorageTypeRedis  = config.StorageTypeRedis
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Registry   *registry.Registry
	Engine     *hangman.Engine
	Hub        *bus.Hub
	Dispatcher *chat.Dispatcher

	running bool
}

// Config holds configuration for the application factory
type Config struct {
	// MaxAttempts is the number of wrong guesses per game (optional)
	// If zero, defaults to hangman.DefaultMaxAttempts
	MaxAttempts int
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// ConfigFrom translates the server configuration into a factory Config
func ConfigFrom(cfg *config.Config, logger *slog.Logger) Config {
	fc := Config{
		MaxAttempts: cfg.MaxAttempts,
		Logger:      logger,
		StorageType: cfg.Storage.Type,
	}
	if cfg.Storage.Type == StorageTypeRedis {
		r := cfg.Storage.Redis
		fc.RedisConfig = &redisstorage.Config{
			URL:          r.URL,
			PoolSize:     r.PoolSize,
			MinIdleConns: r.MinIdleConns,
			MaxHistory:   r.MaxHistory,
			GameTTL:      r.GameTTL,
		}
	}
	return fc
}

// New creates a new application with all dependencies wired. The hub is not
// running yet; call Start.
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = hangman.DefaultMaxAttempts
	}

	return newWithDependencies(store, clock.New(), random.New(), maxAttempts, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, maxAttempts int, logger *slog.Logger) *App {
	reg := registry.New(logger)
	engine := hangman.NewEngine(maxAttempts, clk, logger)
	hub := bus.NewHub(reg, logger)
	dispatcher := chat.NewDispatcher(reg, engine, hub, store, rnd, clk, logger)

	return &App{
		Storage:    store,
		Clock:      clk,
		Random:     rnd,
		Registry:   reg,
		Engine:     engine,
		Hub:        hub,
		Dispatcher: dispatcher,
	}
}

// Start runs the broadcast hub
func (a *App) Start() {
	a.running = true
	go a.Hub.Run()
}

// Close stops the hub and releases storage. Call it after the chat server
// has shut down.
func (a *App) Close() error {
	a.Hub.Close()
	if a.running {
		<-a.Hub.Stopped()
	}
	return a.Storage.Close()
}
