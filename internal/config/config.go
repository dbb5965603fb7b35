// Package config provides configuration loading for constraintd.
//
// Configuration is loaded from a YAML file with environment variable
// overrides and sensible defaults.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete constraintd configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Logging       LoggingConfig       `koanf:"logging"`
	Observability ObservabilityConfig `koanf:"observability"`
	Embeddings    EmbeddingsConfig    `koanf:"embeddings"`
	Extraction    ExtractionConfig    `koanf:"extraction"`
	Store         StoreConfig         `koanf:"store"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LoggingConfig holds logger configuration.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// ObservabilityConfig holds OpenTelemetry configuration.
type ObservabilityConfig struct {
	EnableTelemetry bool   `koanf:"enable_telemetry"`
	ServiceName     string `koanf:"service_name"`
	OTLPEndpoint    string `koanf:"otlp_endpoint"`
}

// EmbeddingsConfig holds embedding provider configuration.
type EmbeddingsConfig struct {
	Provider string `koanf:"provider"`
	BaseURL  string `koanf:"base_url"`
	Model    string `koanf:"model"`
	APIKey   string `koanf:"api_key"`
}

// ExtractionConfig holds extraction provider configuration.
type ExtractionConfig struct {
	Provider   string `koanf:"provider"`
	Model      string `koanf:"model"`
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	Timeout    int    `koanf:"timeout"`
	MaxRetries int    `koanf:"max_retries"`
}

// StoreConfig holds persistence configuration.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Observability.EnableTelemetry && c.Observability.ServiceName == "" {
		return errors.New("service name required when telemetry is enabled")
	}

	switch c.Embeddings.Provider {
	case "openai", "tei":
	default:
		return fmt.Errorf("invalid embeddings provider: %s", c.Embeddings.Provider)
	}
	if c.Embeddings.BaseURL == "" {
		return errors.New("embeddings base URL required")
	}

	if c.Extraction.Provider != "openai" {
		return fmt.Errorf("invalid extraction provider: %s", c.Extraction.Provider)
	}

	if c.Store.Path == "" {
		return errors.New("store path required")
	}

	return nil
}
