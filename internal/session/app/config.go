package app

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/tabletally/tabletally/pkg/jwtx"
)

type Config struct {
	SigningSecret string // Required: shared secret for HS256 token signing
	Issuer        string // Optional: issuer claim for tokens (default: tabletally-session)

	AccessTTL  time.Duration // Optional: access token lifetime (default: 15m)
	RefreshTTL time.Duration // Optional: refresh token lifetime (default: 168h)

	SweeperEnabled   bool          // Optional: run the expiry sweeper (default: true)
	SweeperInterval  time.Duration // Optional: sweep interval (default: 1h)
	SweeperBatchSize int           // Optional: max rows deleted per batch (default: 100)

	DatabaseFile        string        // Optional: path to SQLite database file (default: ./session.db)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

// ErrNoSigningSecret is returned when SESSION_SIGNING_SECRET is unset. The
// service refuses to fall back to a generated secret because restarts would
// silently invalidate every outstanding token.
var ErrNoSigningSecret = errors.New("SESSION_SIGNING_SECRET must be set")

func LoadConfig() (Config, error) {
	cfg := Config{
		SigningSecret: os.Getenv("SESSION_SIGNING_SECRET"),
		Issuer:        getEnvOrDefault("SESSION_ISSUER", "tabletally-session"),

		AccessTTL:  getEnvDurationOrDefault("SESSION_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL: getEnvDurationOrDefault("SESSION_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),

		SweeperEnabled:   getEnvBoolOrDefault("SESSION_SWEEPER_ENABLED", true),
		SweeperInterval:  getEnvDurationOrDefault("SESSION_SWEEPER_INTERVAL", time.Hour),
		SweeperBatchSize: getEnvIntOrDefault("SESSION_SWEEPER_BATCH_SIZE", 100),

		DatabaseFile:        getEnvOrDefault("SESSION_DATABASE_FILE", "session.db"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	if cfg.SigningSecret == "" {
		return Config{}, ErrNoSigningSecret
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Accept Go duration syntax (e.g. "1h", "30m", "90s").
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Accept bare integers as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
