// Package config provides configuration management functionality.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aristath/cpagateway/internal/modules/settings"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir             string // Base directory for all databases (always absolute)
	LogLevel            string
	Port                int
	DevMode             bool
	RandomSeed          int64  // 0 = seed every generation from the clock
	HistoryWindowDays   int    // Days of deposit history used to avoid values (0 = unlimited)
	MaintenanceSchedule string // robfig/cron expression with a seconds field
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("CPA_DATA_DIR", "./data")

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		Port:                getEnvAsInt("CPA_PORT", 8080),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		RandomSeed:          getEnvAsInt64("CPA_RANDOM_SEED", 0),
		HistoryWindowDays:   getEnvAsInt("CPA_HISTORY_WINDOW_DAYS", 90),
		MaintenanceSchedule: getEnv("CPA_MAINTENANCE_SCHEDULE", "0 0 3 * * *"),
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// UpdateFromSettings updates configuration from settings database
// This should be called after the config database is initialized
// Settings DB values take precedence over environment variables
func (c *Config) UpdateFromSettings(ctx context.Context, settingsRepo *settings.Repository) error {
	window, err := settingsRepo.GetInt(ctx, settings.KeyHistoryWindowDays, c.HistoryWindowDays)
	if err != nil {
		return fmt.Errorf("failed to get %s from settings: %w", settings.KeyHistoryWindowDays, err)
	}
	if window >= 0 {
		c.HistoryWindowDays = window
	}

	return nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("CPA_PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.HistoryWindowDays < 0 {
		return fmt.Errorf("CPA_HISTORY_WINDOW_DAYS must not be negative, got %d", c.HistoryWindowDays)
	}
	if strings.TrimSpace(c.MaintenanceSchedule) == "" {
		return fmt.Errorf("CPA_MAINTENANCE_SCHEDULE must not be empty")
	}
	return nil
}

// DatabasePath returns the path of a named database inside DataDir.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
