// Package config loads runtime settings from the environment. A .env
// file in the working directory is read first when present.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort     = "8080"
	DefaultAIModel  = "oai-resp/gpt-5-mini"
	DefaultMaxSteps = 100_000
	DefaultTimeout  = 2 * time.Second
	DefaultHistory  = 50
)

type Config struct {
	Port         string
	Dir          string
	DatabasePath string
	// CatalogPath and RegistryPath are optional YAML files extending the
	// built-in suggestion catalog and component registry.
	CatalogPath  string
	RegistryPath string
	BackendURL   string
	AIModel      string
	Timeout      time.Duration
	MaxSteps     int
	HistoryLimit int
}

// Load reads .env (ignoring a missing file) and then the environment.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	dir := Dir()
	cfg := Config{
		Port:         getenv("LIVEPREVIEW_PORT", DefaultPort),
		Dir:          dir,
		DatabasePath: getenv("LIVEPREVIEW_DB", filepath.Join(dir, "history.sqlite")),
		CatalogPath:  os.Getenv("LIVEPREVIEW_CATALOG"),
		RegistryPath: os.Getenv("LIVEPREVIEW_REGISTRY"),
		BackendURL:   os.Getenv("LIVEPREVIEW_BACKEND_URL"),
		AIModel:      getenv("LIVEPREVIEW_AI_MODEL", DefaultAIModel),
		Timeout:      time.Duration(getenvInt("LIVEPREVIEW_TIMEOUT_MS", int(DefaultTimeout/time.Millisecond))) * time.Millisecond,
		MaxSteps:     getenvInt("LIVEPREVIEW_MAX_STEPS", DefaultMaxSteps),
		HistoryLimit: getenvInt("LIVEPREVIEW_HISTORY_LIMIT", DefaultHistory),
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxSteps < 1 {
		cfg.MaxSteps = DefaultMaxSteps
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = DefaultHistory
	}
	return cfg
}

// Dir returns the configuration directory:
// $LIVEPREVIEW_CONFIG_DIR, then $XDG_CONFIG_HOME/livepreview, then
// ~/.config/livepreview.
func Dir() string {
	if d := os.Getenv("LIVEPREVIEW_CONFIG_DIR"); d != "" {
		return d
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "livepreview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "livepreview")
	}
	return filepath.Join(home, ".config", "livepreview")
}

func getenv(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func getenvInt(name string, fallback int) int {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
