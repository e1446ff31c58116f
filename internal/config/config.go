// Package config loads application configuration from environment
// variables, with .env support for local development. Required settings are
// validated on startup so misconfiguration fails fast instead of at the
// first request.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the service.
type Config struct {
	Server  ServerConfig
	Spotify SpotifyConfig
	CORS    CORSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        string
	Environment string
	DatabaseURL string
}

// SpotifyConfig holds the OAuth application credentials and recommendation
// behavior toggles.
type SpotifyConfig struct {
	ClientID       string
	ClientSecret   string
	RedirectURL    string
	SearchFallback bool
}

// CORSConfig holds allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
		},
		Spotify: SpotifyConfig{
			ClientID:       os.Getenv("SPOTIFY_CLIENT_ID"),
			ClientSecret:   os.Getenv("SPOTIFY_CLIENT_SECRET"),
			RedirectURL:    getEnv("SPOTIFY_REDIRECT_URI", "http://127.0.0.1:8080/callback"),
			SearchFallback: getEnvBool("RECOMMEND_SEARCH_FALLBACK", false),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	if c.Spotify.ClientID == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if c.Spotify.ClientSecret == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if c.Server.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
