package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration, sourced from environment
// variables (a .env file is honored when present).
//
// Environment Variables:
//
// Catalog APIs:
//   - TMDB_API_KEY: TMDb API key, sent as a query parameter (required)
//   - TVDB_API_KEY: TVDb v4 API key, exchanged for a bearer token (required)
//   - TVDB_PIN: TVDb subscriber PIN for user-supported keys (optional)
//
// Storage:
//   - DATA_DIRECTORY: root directory scanned for YAML manifests (default: /data)
//   - DATABASE_PATH: sqlite database file (default: parsed_data.db)
//   - IMAGE_CACHE_DIR: directory for cached poster images (default: image_cache)
//
// Server:
//   - PORT: HTTP listen port (default: 8000)
//   - LOG_PATH: when set, logs also rotate into this file
//
// Overseerr (optional, /api/request is disabled when unset):
//   - OVERSEERR_URL: base URL of the Overseerr instance
//   - OVERSEERR_API_KEY: Overseerr API key
type Config struct {
	TMDBAPIKey string
	TVDBAPIKey string
	TVDBPin    string

	DataDirectory string
	DatabasePath  string
	ImageCacheDir string

	Port    int
	LogPath string

	OverseerrURL    string
	OverseerrAPIKey string
}

var ErrMissingAPIKey = errors.New("missing required API key")

// Load reads configuration from the environment. Missing required keys are
// fatal; everything else falls back to defaults.
func Load() (Config, error) {
	cfg := Config{
		TMDBAPIKey:      strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TVDBAPIKey:      strings.TrimSpace(os.Getenv("TVDB_API_KEY")),
		TVDBPin:         strings.TrimSpace(os.Getenv("TVDB_PIN")),
		DataDirectory:   envOrDefault("DATA_DIRECTORY", "/data"),
		DatabasePath:    envOrDefault("DATABASE_PATH", "parsed_data.db"),
		ImageCacheDir:   envOrDefault("IMAGE_CACHE_DIR", "image_cache"),
		LogPath:         strings.TrimSpace(os.Getenv("LOG_PATH")),
		OverseerrURL:    strings.TrimRight(strings.TrimSpace(os.Getenv("OVERSEERR_URL")), "/"),
		OverseerrAPIKey: strings.TrimSpace(os.Getenv("OVERSEERR_API_KEY")),
	}

	if cfg.TMDBAPIKey == "" {
		return Config{}, fmt.Errorf("%w: TMDB_API_KEY", ErrMissingAPIKey)
	}
	if cfg.TVDBAPIKey == "" {
		return Config{}, fmt.Errorf("%w: TVDB_API_KEY", ErrMissingAPIKey)
	}

	cfg.Port = 8000
	if raw := strings.TrimSpace(os.Getenv("PORT")); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT %q", raw)
		}
		cfg.Port = port
	}

	return cfg, nil
}

// OverseerrEnabled reports whether the optional Overseerr proxy is configured.
func (c Config) OverseerrEnabled() bool {
	return c.OverseerrURL != "" && c.OverseerrAPIKey != ""
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
