package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// config is read from the environment, optionally seeded from .env.
type config struct {
	Addr            string
	LogLevel        string
	ShutdownTimeout time.Duration
	SessionTTL      time.Duration
	SweepInterval   time.Duration
	OTelLogs        bool
}

func loadConfig() (config, error) {
	if err := loadDotEnv(); err != nil {
		return config{}, err
	}

	cfg := config{
		Addr:     envOr("ADDR", ":8080"),
		LogLevel: os.Getenv("LOG_LEVEL"),
	}

	var err error
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 5*time.Second); err != nil {
		return config{}, err
	}
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return config{}, err
	}
	if cfg.SweepInterval, err = envDuration("SESSION_SWEEP_INTERVAL", time.Minute); err != nil {
		return config{}, err
	}
	if raw := os.Getenv("OTEL_LOGS_ENABLED"); raw != "" {
		if cfg.OTelLogs, err = strconv.ParseBool(raw); err != nil {
			return config{}, fmt.Errorf("parse OTEL_LOGS_ENABLED: %w", err)
		}
	}

	return cfg, nil
}

// loadDotEnv loads environment variables from .env when present.
// Existing process environment variables are not overridden.
func loadDotEnv() error {
	err := godotenv.Load()
	if err == nil {
		return nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load .env: %w", err)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("parse %s: must be positive, got %s", key, d)
	}
	return d, nil
}
