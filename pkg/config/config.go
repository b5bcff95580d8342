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
	Database      DatabaseConfig
	Import        ImportConfig
	AI            AIConfig
	Observability ObservabilityConfig
	Storage       StorageConfig
	Worker        WorkerConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type ImportConfig struct {
	BatchSize   int
	MaxBytes    int
	RemoteWrite bool
}

type AIConfig struct {
	Enabled           bool
	APIKey            string
	Model             string
	BatchSize         int
	RequestsPerMinute int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
}

type StorageConfig struct {
	LocalPath string
}

type WorkerConfig struct {
	RecategorizeSchedule string
	SweepLimit           int
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	apiKey := getEnv("GEMINI_API_KEY", "")
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "statements"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Import: ImportConfig{
			BatchSize:   getEnvAsInt("IMPORT_BATCH_SIZE", 50),
			MaxBytes:    getEnvAsInt("IMPORT_MAX_BYTES", 5<<20),
			RemoteWrite: getEnvAsBool("IMPORT_REMOTE_WRITE", true),
		},
		AI: AIConfig{
			Enabled:           getEnvAsBool("AI_ENABLED", apiKey != ""),
			APIKey:            apiKey,
			Model:             getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			BatchSize:         getEnvAsInt("AI_BATCH_SIZE", 80),
			RequestsPerMinute: getEnvAsInt("AI_REQUESTS_PER_MINUTE", 30),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
		},
		Storage: StorageConfig{
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./data/uploads"),
		},
		Worker: WorkerConfig{
			RecategorizeSchedule: getEnv("RECATEGORIZE_SCHEDULE", "0 3 * * *"),
			SweepLimit:           getEnvAsInt("RECATEGORIZE_SWEEP_LIMIT", 500),
		},
	}

	if cfg.AI.Enabled && cfg.AI.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is required when AI_ENABLED is set")
	}
	if cfg.Import.BatchSize <= 0 {
		return nil, fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", cfg.Import.BatchSize)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
