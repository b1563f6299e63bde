// Package config loads the chat server settings from defaults, an optional
// YAML file and HANGCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envVarPrefix = "HANGCHAT"

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Config contains every option of the chat server
type Config struct {
	// Address the TCP chat listener binds to.
	ListenAddr string `mapstructure:"listen_addr"`
	// Size in bytes of every frame on the wire.
	FrameWidth int `mapstructure:"frame_width"`
	// Outbound messages buffered per client before it counts as stalled.
	SendQueueSize int `mapstructure:"send_queue_size"`
	// Wrong guesses allowed per hangman game.
	MaxAttempts int `mapstructure:"max_attempts"`
	// Upper bound for draining connections on shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// How long the admin API caches the game history.
	HistoryCacheTTL time.Duration `mapstructure:"history_cache_ttl"`

	Log     LogConfig     `mapstructure:"log"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Storage StorageConfig `mapstructure:"storage"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	// Minimum level written. Options: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Options: json, text
	Format string `mapstructure:"format"`
}

// AdminConfig controls the HTTP admin API
type AdminConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// StorageConfig selects where finished games are kept
type StorageConfig struct {
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig is only read when Storage.Type is redis
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxHistory   int           `mapstructure:"max_history"`
	GameTTL      time.Duration `mapstructure:"game_ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", "127.0.0.1:9090")
	v.SetDefault("frame_width", 500)
	v.SetDefault("send_queue_size", 64)
	v.SetDefault("max_attempts", 10)
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("history_cache_ttl", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("admin.enabled", true)
	v.SetDefault("admin.addr", "127.0.0.1:8080")

	v.SetDefault("storage.type", StorageTypeMemory)
	v.SetDefault("storage.redis.url", "redis://localhost:6379")
	v.SetDefault("storage.redis.pool_size", 10)
	v.SetDefault("storage.redis.min_idle_conns", 2)
	v.SetDefault("storage.redis.max_history", 100)
	v.SetDefault("storage.redis.game_ttl", 30*24*time.Hour)
}

// Load builds the configuration. path may be empty, in which case only
// defaults and environment variables apply. Nested keys are set through the
// environment with dots replaced by underscores, e.g. HANGCHAT_ADMIN_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envVarPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values a server cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if c.FrameWidth < 2 {
		errs = append(errs, fmt.Errorf("frame_width must be at least 2, got %d", c.FrameWidth))
	}
	if c.SendQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("send_queue_size must be positive, got %d", c.SendQueueSize))
	}
	if c.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		errs = append(errs, fmt.Errorf("log.format must be json or text, got %q", c.Log.Format))
	}
	if c.Admin.Enabled && c.Admin.Addr == "" {
		errs = append(errs, errors.New("admin.addr is required when the admin API is enabled"))
	}
	switch c.Storage.Type {
	case StorageTypeMemory:
	case StorageTypeRedis:
		if c.Storage.Redis.URL == "" {
			errs = append(errs, errors.New("storage.redis.url is required when storage.type is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be memory or redis, got %q", c.Storage.Type))
	}

	return errors.Join(errs...)
}

// SlogLevel parses the configured level
func (c LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger writing to w
func (c LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := c.SlogLevel()
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
