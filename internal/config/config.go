// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/pkordes/trip-tracker/internal/fetch"
	"github.com/pkordes/trip-tracker/internal/notify"
)

// Report store backends selectable through REPORT_STORE.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

// Config holds all configuration values for the tracker service.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"].
	CORSOrigins []string

	// TripsURL and StopsURL are the upstream feed endpoints.
	TripsURL string
	StopsURL string

	// ReportStore picks the contact report backend: memory, postgres or redis.
	ReportStore string

	// DatabaseURL is the Postgres connection string. Required for postgres.
	DatabaseURL string

	// RedisAddr is host:port of the Redis server. Required for redis.
	RedisAddr string

	// NATSURL enables badge publishing when set.
	NATSURL string

	// BadgeSubject is the NATS subject for badge counts.
	BadgeSubject string

	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Load reads an optional .env file from the working directory, then builds a
// Config from the environment. Variables already set in the environment win
// over the file. Returns an error naming every missing or invalid variable.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		LogLevel:     strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		TripsURL:     getEnv("TRIPS_URL", fetch.DefaultTripsURL),
		StopsURL:     getEnv("STOPS_URL", fetch.DefaultStopsURL),
		ReportStore:  strings.ToLower(getEnv("REPORT_STORE", StoreMemory)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		NATSURL:      os.Getenv("NATS_URL"),
		BadgeSubject: getEnv("BADGE_SUBJECT", notify.DefaultSubject),
	}

	var missing, invalid []string

	switch cfg.ReportStore {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreRedis:
		if cfg.RedisAddr == "" {
			missing = append(missing, "REDIS_ADDR")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("REPORT_STORE=%q (want memory, postgres or redis)", cfg.ReportStore))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		invalid = append(invalid, fmt.Sprintf("LOG_LEVEL=%q", cfg.LogLevel))
	}

	maxBody := getEnv("MAX_BODY_BYTES", "1048576")
	n, err := strconv.ParseInt(maxBody, 10, 64)
	if err != nil || n <= 0 {
		invalid = append(invalid, fmt.Sprintf("MAX_BODY_BYTES=%q", maxBody))
	}
	cfg.MaxBodyBytes = n

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, "; "))
	}

	return cfg, nil
}

// SlogLevel returns LogLevel as a slog.Level, falling back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
