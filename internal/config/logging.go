package config

import (
	pkgconfig "github.com/lewisedginton/agent_memory_service/pkg/config"
)

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	pkgconfig.CommonConfig `yaml:",inline"`

	Format string `env:"LOG_FORMAT" yaml:"format" default:"json"`
}
