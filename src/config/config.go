package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	ServerHost     string
	DBDriver       string
	DBDSN          string
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	GinMode        string
	LogLevel       slog.Level
	UploadDir      string
}

var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
}

// Load reads the optional .env file and builds a Config from the environment.
func Load() (*Config, error) {
	// A missing .env is fine, the variables may come from the process environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using the given lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		ServerHost: valueOr(getenv("SERVER_HOST"), ":8080"),
		DBDriver:   strings.ToLower(valueOr(getenv("DB_DRIVER"), "postgres")),
		DBDSN:      getenv("DB_DSN"),
		JWTSecret:  getenv("JWT_SECRET"),
		GinMode:    valueOr(getenv("GIN_MODE"), "release"),
		UploadDir:  valueOr(getenv("UPLOAD_DIR"), "uploads"),
		TokenTTL:   12 * time.Hour,
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.DBDSN == "" {
		if cfg.DBDriver != "sqlite" {
			return nil, errors.New("DB_DSN is required")
		}
		cfg.DBDSN = "bookclub.db"
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	if raw := getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q", raw)
		}
		cfg.TokenTTL = ttl
	}

	cfg.AllowedOrigins = defaultOrigins
	if raw := getenv("CORS_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}

	if raw := getenv("LOG_LEVEL"); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", raw, err)
		}
	}

	return cfg, nil
}

// NewLogger returns the JSON logger used across the server.
func (c *Config) NewLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: c.LogLevel}))
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
