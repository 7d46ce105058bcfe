package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultMenuURL = "http://www.stwdo.de/gastronomie/speiseplaene/hauptmensa/wochenansicht-hauptmensa"

// AppConfig holds all configuration for the application
type AppConfig struct {
	TelegramToken   string
	DatabaseURL     string
	MenuURL         string
	LogLevel        string
	Environment     string
	NotifyHour      int           // hour of the weekday delivery trigger
	NotifyMinute    int           // minute of the weekday delivery trigger
	CutoffHour      int           // after this local hour /menu shows tomorrow's menu
	ExcludedCounter string        // counter never rendered in menu messages
	PollInterval    time.Duration // pause between update poll cycles
	ErrorBackoff    time.Duration // pause after a failed poll cycle
	MisfireGrace    time.Duration // tolerance for firing a missed scheduled delivery late
	HTTPTimeout     time.Duration // timeout for all outbound HTTP calls
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	cfg.MenuURL = os.Getenv("MENU_URL")
	if cfg.MenuURL == "" {
		cfg.MenuURL = defaultMenuURL
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info" // Default log level
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development" // Default environment
	}

	if cfg.NotifyHour, err = intFromEnv("NOTIFY_HOUR", 11); err != nil {
		return nil, err
	}
	if cfg.NotifyMinute, err = intFromEnv("NOTIFY_MINUTE", 0); err != nil {
		return nil, err
	}
	if cfg.CutoffHour, err = intFromEnv("MENU_CUTOFF_HOUR", 15); err != nil {
		return nil, err
	}

	cfg.ExcludedCounter = os.Getenv("EXCLUDED_COUNTER")
	if cfg.ExcludedCounter == "" {
		cfg.ExcludedCounter = "Grillstation"
	}

	if cfg.PollInterval, err = durationFromEnv("POLL_INTERVAL", time.Second); err != nil {
		return nil, err
	}
	if cfg.ErrorBackoff, err = durationFromEnv("ERROR_BACKOFF", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.MisfireGrace, err = durationFromEnv("MISFIRE_GRACE", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = durationFromEnv("HTTP_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}

	return cfg, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
