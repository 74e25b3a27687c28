// config.go

// Environment variable loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

// DefaultEventsChannel is the pub/sub channel both services share for change events.
const DefaultEventsChannel = "habit.events"

// Config holds all env configuration vars for the habits and records services.
type Config struct {
	DatabaseURL string
	RedisURL    string
	Port        string
	LogLevel    slog.Level

	// JWTSecret is the HS256 key used to verify bearer tokens issued by the auth service.
	JWTSecret string

	// EventsChannel is the Redis channel change events are published on and subscribed to.
	EventsChannel string

	// HabitsCacheTTL bounds how long a cached habit list may be served. Default 120s.
	HabitsCacheTTL time.Duration

	// ShutdownTimeout caps how long in-flight requests get to finish on shutdown. Default 30s.
	ShutdownTimeout time.Duration
}

// LoadConfig reads environment variables and returns a validated Config.
// Returns an error if required variables (DATABASE_URL, REDIS_URL) are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg.Port = os.Getenv("PORT")
	if cfg.Port == "" {
		cfg.Port = "3000"
	}

	// Parse log level, default to info
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		cfg.LogLevel = slog.LevelDebug
	case "warn":
		cfg.LogLevel = slog.LevelWarn
	case "error":
		cfg.LogLevel = slog.LevelError
	default:
		cfg.LogLevel = slog.LevelInfo
	}

	// Matches the auth service's development default so local stacks work out of the box.
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = "dev-secret"
	}

	cfg.EventsChannel = os.Getenv("EVENTS_CHANNEL")
	if cfg.EventsChannel == "" {
		cfg.EventsChannel = DefaultEventsChannel
	}

	cfg.HabitsCacheTTL = envDuration("HABITS_CACHE_TTL", 120*time.Second)
	cfg.ShutdownTimeout = envDuration("SHUTDOWN_TIMEOUT", 30*time.Second)

	return cfg, nil
}

// envDuration reads an env var as time.Duration, returning def if missing or unparseable.
func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid env var, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}
