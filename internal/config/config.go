// Package config loads server configuration from environment variables,
// a .env file, and an optional models.yaml for the agent's model list.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	// Port the HTTP server listens on.
	Port int

	// DBPath is the SQLite database location for durable trip storage.
	DBPath string

	// PostgresDSN enables the Postgres checkpoint store when set; with
	// it empty, checkpoints stay in memory.
	PostgresDSN string

	// AuthMode selects between "local" (bcrypt accounts, self-issued
	// JWTs) and "supabase" (tokens verified against the project).
	AuthMode string

	// JWTSecret signs local session tokens. Required in local mode.
	JWTSecret string
	// TokenDuration is how long local tokens stay valid.
	TokenDuration time.Duration

	// Supabase project settings. Required in supabase mode and for
	// photo blob storage.
	SupabaseURL            string
	SupabaseServiceRoleKey string
	PhotoBucket            string

	// GeminiAPIKey authorizes the agent's model calls.
	GeminiAPIKey string

	// Models is the agent's ordered model preference list.
	Models []string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// modelsFile mirrors the models.yaml layout.
type modelsFile struct {
	Models []string `yaml:"models"`
}

// defaultModels is used when no models.yaml is present.
var defaultModels = []string{
	"gemini-2.5-pro",
	"gemini-2.5-flash",
	"gemini-2.5-flash-lite",
}

// Load reads configuration, loading a .env file from the working
// directory first if one exists.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	port, err := parseIntEnv("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	tokenHours, err := parseIntEnv("TOKEN_DURATION_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_DURATION_HOURS: %w", err)
	}

	cfg := &Config{
		Port:                   port,
		DBPath:                 getEnv("DB_PATH", "./data/journi.db"),
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		AuthMode:               getEnv("AUTH_MODE", "local"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		TokenDuration:          time.Duration(tokenHours) * time.Hour,
		SupabaseURL:            os.Getenv("SUPABASE_URL"),
		SupabaseServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		PhotoBucket:            getEnv("PHOTO_BUCKET", "trip-photos"),
		GeminiAPIKey:           os.Getenv("GEMINI_API_KEY"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	cfg.Models, err = loadModels(getEnv("MODELS_PATH", "./models.yaml"))
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.AuthMode {
	case "local":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in local auth mode")
		}
	case "supabase":
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY are required in supabase auth mode")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}
	return nil
}

// loadModels reads the model preference list, falling back to the
// defaults when the file does not exist.
func loadModels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return append([]string(nil), defaultModels...), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read models file: %w", err)
	}

	var file modelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse models file: %w", err)
	}
	if len(file.Models) == 0 {
		return nil, fmt.Errorf("models file %s lists no models", path)
	}
	return file.Models, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}
