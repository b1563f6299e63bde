package cli

import (
	"os"
	"strconv"

	"github.com/mcoot/hangchat/internal/frame"
)

// Config holds CLI configuration
type Config struct {
	ServerAddr string
	AdminURL   string
	Name       string
	FrameWidth int
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerAddr: getEnvOrDefault("HANGCHAT_SERVER", "127.0.0.1:9090"),
		AdminURL:   getEnvOrDefault("HANGCHAT_ADMIN", "http://127.0.0.1:8080"),
		Name:       os.Getenv("HANGCHAT_NAME"),
		FrameWidth: getEnvIntOrDefault("HANGCHAT_FRAME_WIDTH", frame.DefaultWidth),
		Output:     "text",
		Verbose:    false,
	}
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}
