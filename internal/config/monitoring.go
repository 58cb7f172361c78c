package config

import (
	"time"

	pkgconfig "github.com/lewisedginton/agent_memory_service/pkg/config"
)

// MonitoringConfig holds monitoring configuration
type MonitoringConfig struct {
	pkgconfig.MetricsConfig `yaml:",inline"`

	HealthCheckTimeout time.Duration `env:"HEALTH_CHECK_TIMEOUT" yaml:"health_check_timeout" default:"10s"`
}
