package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Converter (document-mutation) service
	ConverterBaseURL string
	ConverterTimeout time.Duration

	// Detector sidecar; empty disables detection endpoints
	DetectorBaseURL string
	DetectorTimeout time.Duration

	// MinDownloadBytes is the corruption heuristic: a binary document
	// body smaller than this is treated as a failed conversion.
	MinDownloadBytes int

	// DataDir holds the symbol library file
	DataDir string

	// DynamicConfigPath points at the watched YAML limits file; empty
	// disables the watcher
	DynamicConfigPath string

	// Logging
	LogLevel string

	// Feature flags
	EnableMetrics bool
	EnableTracing bool
	EnableCORS    bool

	// Tracing
	TracingEndpoint string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		ConverterBaseURL: getEnv("CONVERTER_BASE_URL", "http://localhost:5055"),
		ConverterTimeout: getEnvDuration("CONVERTER_TIMEOUT", 120*time.Second),

		DetectorBaseURL: getEnv("DETECTOR_BASE_URL", ""),
		DetectorTimeout: getEnvDuration("DETECTOR_TIMEOUT", 300*time.Second),

		MinDownloadBytes: getEnvInt("MIN_DOWNLOAD_BYTES", 1024),

		DataDir:           getEnv("DATA_DIR", "./data"),
		DynamicConfigPath: getEnv("DYNAMIC_CONFIG_PATH", ""),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableTracing: getEnvBool("ENABLE_TRACING", false),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),

		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4317"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.ConverterBaseURL == "" {
		return fmt.Errorf("CONVERTER_BASE_URL is required")
	}
	if c.MinDownloadBytes < 0 {
		return fmt.Errorf("MIN_DOWNLOAD_BYTES cannot be negative")
	}
	if c.EnableTracing && c.TracingEndpoint == "" {
		return fmt.Errorf("TRACING_ENDPOINT is required when tracing is enabled")
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

// getEnvDuration gets a duration environment variable with a default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
