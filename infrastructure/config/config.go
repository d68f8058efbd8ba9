package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Blob storage configuration
	StorageURL     string // Supabase storage endpoint, empty selects the in-memory store
	StorageKey     string
	StorageBucket  string
	CollectionName string // key of the JSON collection blob inside the bucket
	PublicBaseURL  string // base for shareable file links; defaults from StorageURL

	// Layout configuration
	ZoomThreshold float64
	MaxTagButtons int
	ClusterRadius float64

	// Ingestion configuration
	IngestWorkers int

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableCORS    bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		StorageURL:     getEnv("STORAGE_URL", ""),
		StorageKey:     getEnv("STORAGE_KEY", ""),
		StorageBucket:  getEnv("STORAGE_BUCKET", "documents"),
		CollectionName: getEnv("COLLECTION_NAME", "documents.json"),
		PublicBaseURL:  getEnv("PUBLIC_BASE_URL", ""),

		ZoomThreshold: getEnvFloat("ZOOM_THRESHOLD", 1.0),
		MaxTagButtons: getEnvInt("MAX_TAG_BUTTONS", 12),
		ClusterRadius: getEnvFloat("CLUSTER_RADIUS", 250),

		IngestWorkers: getEnvInt("INGEST_WORKERS", 4),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if cfg.PublicBaseURL == "" && cfg.StorageURL != "" {
		cfg.PublicBaseURL = fmt.Sprintf("%s/object/public/%s", cfg.StorageURL, cfg.StorageBucket)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig for backwards compatibility
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.Environment == "production" {
		if c.StorageURL == "" {
			return fmt.Errorf("STORAGE_URL is required in production")
		}
		if c.StorageKey == "" {
			return fmt.Errorf("STORAGE_KEY is required in production")
		}
		if c.StorageBucket == "" {
			return fmt.Errorf("STORAGE_BUCKET is required")
		}
	}
	if c.CollectionName == "" {
		return fmt.Errorf("COLLECTION_NAME must not be empty")
	}
	if c.ZoomThreshold <= 0 {
		return fmt.Errorf("ZOOM_THRESHOLD must be positive")
	}
	if c.MaxTagButtons < 1 {
		return fmt.Errorf("MAX_TAG_BUTTONS must be at least 1")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}
