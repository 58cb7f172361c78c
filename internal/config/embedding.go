package config

import "time"

// EmbeddingConfig holds embedding backend configuration
type EmbeddingConfig struct {
	Backend    string        `env:"EMBEDDING_BACKEND" yaml:"backend" default:"mock"` // "openai", "http", or "mock"
	APIKey     string        `env:"EMBEDDING_API_KEY" yaml:"api_key"`                // OpenAI API key
	BaseURL    string        `env:"EMBEDDING_BASE_URL" yaml:"base_url"`              // Remote service base URL
	Model      string        `env:"EMBEDDING_MODEL" yaml:"model"`                    // Model name for the openai backend
	Dimensions int           `env:"EMBEDDING_DIMENSIONS" yaml:"dimensions" default:"768"`
	Timeout    time.Duration `env:"EMBEDDING_TIMEOUT" yaml:"timeout" default:"10s"`
}

// VectorIndexConfig holds vector similarity index configuration
type VectorIndexConfig struct {
	Backend  string `env:"VECTOR_INDEX_BACKEND" yaml:"backend" default:"local"` // "local" or "http"
	Endpoint string `env:"VECTOR_INDEX_ENDPOINT" yaml:"endpoint"`               // Remote index base URL; falls back to EMBEDDING_BASE_URL
}
