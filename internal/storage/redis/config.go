package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// MaxHistory caps the number of finished games kept in the history list
	MaxHistory int

	// GameTTL is how long a single game summary is kept; 0 keeps it forever
	GameTTL time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		MaxHistory:   100,
		GameTTL:      30 * 24 * time.Hour,
	}
}
