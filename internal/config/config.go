package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlite3, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
	DBLogLevel        string

	// Search configuration
	ESURL      string
	ESIndex    string
	ESUsername string
	ESPassword string

	// Task queue configuration
	NATSURL     string
	TaskStream  string
	TaskWorkers int

	// Auth configuration
	JWTSecret string
}

// Load reads an optional .env file and then loads configuration from environment variables
func Load() (*Config, error) {
	if err := loadEnvFile(getEnv("ENV_FILE", "")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		DBType:            getEnv("DB_TYPE", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBLogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		ESURL:             getEnv("ES_URL", ""),
		ESIndex:           getEnv("ES_INDEX", "addons"),
		ESUsername:        getEnv("ES_USERNAME", ""),
		ESPassword:        getEnv("ES_PASSWORD", ""),
		NATSURL:           getEnv("NATS_URL", ""),
		TaskStream:        getEnv("TASK_STREAM", "TASKS"),
		TaskWorkers:       getEnvAsInt("TASK_WORKERS", 1),
		JWTSecret:         getEnv("JWT_SECRET", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required fields are present
func (cfg *Config) Validate() error {
	if cfg.DBDatabase == "" {
		return fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBUser == "" && !cfg.IsSQLite() {
		return fmt.Errorf("DB_USER is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.TaskWorkers < 1 {
		return fmt.Errorf("TASK_WORKERS must be at least 1")
	}
	return nil
}

// IsSQLite reports whether the configured database is a sqlite file
func (cfg *Config) IsSQLite() bool {
	return cfg.DBType == "sqlite" || cfg.DBType == "sqlite3"
}

// SearchEnabled reports whether an elasticsearch cluster is configured
func (cfg *Config) SearchEnabled() bool {
	return cfg.ESURL != ""
}

// QueueEnabled reports whether tasks go through NATS instead of running inline
func (cfg *Config) QueueEnabled() bool {
	return cfg.NATSURL != ""
}

// loadEnvFile loads variables from the named file, or from ./.env when it exists.
// Variables already set in the environment win.
func loadEnvFile(name string) error {
	if name != "" {
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("failed to load %s: %w", name, err)
		}
		return nil
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
