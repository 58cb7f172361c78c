package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	pkgconfig "github.com/lewisedginton/agent_memory_service/pkg/config"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
)

// AppConfig holds all application configuration
type AppConfig struct {
	// Service configuration
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"agent-memory-service"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	// HTTP server configuration
	HTTP pkgconfig.HTTPServerConfig `yaml:"http,inline"`

	// RequestTimeout bounds each API request at the middleware layer
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" yaml:"request_timeout" default:"30s"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging,inline"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage,inline"`

	// Embedding configuration
	Embedding EmbeddingConfig `yaml:"embedding,inline"`

	// Vector index configuration
	VectorIndex VectorIndexConfig `yaml:"vector_index,inline"`

	// Monitoring configuration
	Monitoring MonitoringConfig `yaml:"monitoring,inline"`

	// Security configuration
	Security SecurityConfig `yaml:"security,inline"`
}

// Validate validates the configuration and returns an error if invalid
func (c *AppConfig) Validate() error {
	var result error

	// Validate log level
	if err := c.Logging.CommonConfig.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	// Validate log format
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log_format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	// Validate HTTP server and metrics sections
	if err := c.HTTP.Validate(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := c.Monitoring.MetricsConfig.Validate(); err != nil {
		result = multierror.Append(result, err)
	}

	// Validate timeout values
	if c.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("request_timeout must be greater than 0"))
	}

	// Validate storage config
	switch c.Storage.Backend {
	case "local":
		if c.Storage.LocalDir == "" {
			result = multierror.Append(result, fmt.Errorf("storage_local_dir is required when storage backend is 'local'"))
		}
	case "s3":
		if c.Storage.S3Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("storage_s3_bucket is required when storage backend is 's3'"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("storage_backend must be either 'local' or 's3', got %q", c.Storage.Backend))
	}

	// Validate embedding config
	switch c.Embedding.Backend {
	case "openai":
		if c.Embedding.APIKey == "" {
			result = multierror.Append(result, fmt.Errorf("embedding_api_key is required when embedding backend is 'openai'"))
		}
	case "http":
		if c.Embedding.BaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("embedding_base_url is required when embedding backend is 'http'"))
		}
	case "mock":
	default:
		result = multierror.Append(result, fmt.Errorf("embedding_backend must be one of [openai, http, mock], got %q", c.Embedding.Backend))
	}

	if c.Embedding.Dimensions < 0 {
		result = multierror.Append(result, fmt.Errorf("embedding_dimensions cannot be negative"))
	}

	// Validate vector index config
	switch c.VectorIndex.Backend {
	case "local":
	case "http":
		if c.VectorIndex.Endpoint == "" && c.Embedding.BaseURL == "" {
			result = multierror.Append(result, fmt.Errorf("vector_index_endpoint is required when vector index backend is 'http'"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("vector_index_backend must be either 'local' or 'http', got %q", c.VectorIndex.Backend))
	}

	return result
}

// GetLogLevel returns the parsed logger level
func (c *AppConfig) GetLogLevel() logger.Level {
	switch strings.ToLower(c.Logging.LogLevel) {
	case "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// IsDevelopment returns true if running in development environment
func (c *AppConfig) IsDevelopment() bool {
	env := strings.ToLower(c.Environment)
	return env == "development" || env == "dev"
}

// LogConfig logs the current configuration (without sensitive data)
func (c *AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("port", c.HTTP.Port),
		logger.StringField("log_level", c.Logging.LogLevel),
		logger.StringField("log_format", c.Logging.Format),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.StringField("embedding_backend", c.Embedding.Backend),
		logger.StringField("vector_index_backend", c.VectorIndex.Backend),
		logger.BoolField("metrics_exposed", c.Monitoring.ExposeMetrics),
	)
}
