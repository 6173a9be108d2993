package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	// ExerciseDB
	ExerciseDBBaseURL string
	ExerciseDBAPIKey  string
	HTTPTimeout       time.Duration

	// Import
	RetryDelay     time.Duration // Base backoff delay after a rate limit (default: 60s)
	ImportLimit    int           // Advisory cap on imported records (default: 2000)
	ImportSchedule string        // Cron expression for scheduled imports in serve mode, empty disables

	// Cursor cache
	RedisURL   string // Use Redis for the resume cursor when set
	CursorFile string // $CONFIG_DIR/cursor.json

	// Server
	ServerPort string

	// Paths
	DatabaseFile string // $CONFIG_DIR/exercises.db

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	return LoadWith(viper.GetViper())
}

// LoadWith loads configuration into v, so callers can bind flags over the same keys first
func LoadWith(v *viper.Viper) (*Config, error) {
	// Setup viper FIRST to load .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	// Load .env file if it exists (ignore if not found)
	_ = v.ReadInConfig()

	SetDefaults(v)

	return FromViper(v)
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("EXERCISEDB_BASE_URL", "https://exercisedb.dev/api/v1")
	v.SetDefault("HTTP_TIMEOUT_SECONDS", 30)
	v.SetDefault("RETRY_DELAY_SECONDS", 60)
	v.SetDefault("IMPORT_LIMIT", 2000)
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
}

// FromViper builds a Config from an already populated viper instance
func FromViper(v *viper.Viper) (*Config, error) {
	configDir := v.GetString("CONFIG_DIR")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "exercisedb-sync")
	} else {
		// Convert relative path to absolute path
		absPath, err := filepath.Abs(configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for CONFIG_DIR: %w", err)
		}
		configDir = absPath
	}

	// Create config directory if it doesn't exist
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	config := &Config{
		// ExerciseDB
		ExerciseDBBaseURL: v.GetString("EXERCISEDB_BASE_URL"),
		ExerciseDBAPIKey:  v.GetString("EXERCISEDB_API_KEY"),
		HTTPTimeout:       time.Duration(v.GetInt("HTTP_TIMEOUT_SECONDS")) * time.Second,

		// Import
		RetryDelay:     time.Duration(v.GetInt("RETRY_DELAY_SECONDS")) * time.Second,
		ImportLimit:    v.GetInt("IMPORT_LIMIT"),
		ImportSchedule: v.GetString("IMPORT_SCHEDULE"),

		// Cursor cache
		RedisURL:   v.GetString("REDIS_URL"),
		CursorFile: filepath.Join(configDir, "cursor.json"),

		// Server
		ServerPort: v.GetString("SERVER_PORT"),

		// Paths
		DatabaseFile: filepath.Join(configDir, "exercises.db"),

		// Logging
		LogLevel: v.GetString("LOG_LEVEL"),
	}

	// Validate required fields
	if config.ExerciseDBBaseURL == "" {
		return nil, fmt.Errorf("EXERCISEDB_BASE_URL is required")
	}
	if config.RetryDelay < 0 {
		return nil, fmt.Errorf("RETRY_DELAY_SECONDS must not be negative")
	}
	if config.HTTPTimeout <= 0 {
		return nil, fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive")
	}

	return config, nil
}
