// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime settings.
type Config struct {
	Addr            string
	DBPath          string
	DictionaryPath  string // empty means the embedded list
	MaxPlayers      int
	LogLevel        string
	LogFormat       string // "json" or "console"
	CleanupInterval time.Duration
	SessionMaxAge   time.Duration
	RequestTimeout  time.Duration
}

// Load reads a .env file if present, then the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(k, def string) string {
		if v := strings.TrimSpace(getenv(k)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Addr:           ":" + get("PORT", "8080"),
		DBPath:         get("DB_PATH", "tilegame.db"),
		DictionaryPath: get("DICTIONARY_PATH", ""),
		LogLevel:       get("LOG_LEVEL", "info"),
		LogFormat:      get("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.MaxPlayers, err = strconv.Atoi(get("MAX_PLAYERS", "2")); err != nil {
		return Config{}, fmt.Errorf("MAX_PLAYERS: %w", err)
	}
	if cfg.MaxPlayers < 2 || cfg.MaxPlayers > 4 {
		return Config{}, fmt.Errorf("MAX_PLAYERS must be between 2 and 4, got %d", cfg.MaxPlayers)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"CLEANUP_INTERVAL", "1m", &cfg.CleanupInterval},
		{"SESSION_MAX_AGE", "1h", &cfg.SessionMaxAge},
		{"REQUEST_TIMEOUT", "10s", &cfg.RequestTimeout},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(get(d.key, d.def))
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", d.key, err)
		}
		if v <= 0 {
			return Config{}, fmt.Errorf("%s must be positive", d.key)
		}
		*d.dst = v
	}

	switch cfg.LogFormat {
	case "json", "console":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT must be json or console, got %q", cfg.LogFormat)
	}
	return cfg, nil
}
