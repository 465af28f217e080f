package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	LLM      LLMConfig
	Pipeline PipelineConfig
	Report   ReportConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr       string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// LLMConfig holds extraction-service configuration
type LLMConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// PipelineConfig holds batch-processing behavior
type PipelineConfig struct {
	// Concurrency caps the number of in-flight extraction calls per batch.
	Concurrency int
}

// ReportConfig holds report-rendering overrides
type ReportConfig struct {
	Title    string
	FileName string
}

// LoadConfig loads configuration from the environment (and .env, if present).
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Server: ServerConfig{
			HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
			MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 32<<20),
			AllowedOrigins: []string{getEnv("CORS_ORIGIN", "*")},
		},
		LLM: LLMConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			Model:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			Timeout: getEnvAsDuration("GEMINI_TIMEOUT", 90*time.Second),
		},
		Pipeline: PipelineConfig{
			Concurrency: getEnvAsInt("EXTRACT_CONCURRENCY", 2),
		},
		Report: ReportConfig{
			Title:    getEnv("REPORT_TITLE", ""),
			FileName: getEnv("REPORT_FILENAME", ""),
		},
	}
}

// Helper functions for environment variable parsing
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GEMINI_API_KEY is required", ErrInvalidInput)
	}
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Pipeline.Concurrency < 1 {
		return NewAppError("CONFIG_ERROR", "EXTRACT_CONCURRENCY must be >= 1", ErrInvalidInput)
	}
	return nil
}
