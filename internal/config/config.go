package config

import (
	"time"

	"github.com/defilens/debank-mcp/internal/safety"
)

// Config is the complete application configuration. Values are layered:
// built-in defaults, then the optional config file, then DEBANK_* environment
// variables, then runtime overrides such as command-line flags.
type Config struct {
	DeBank  DeBankConfig      `mapstructure:"debank"`
	Safety  safety.Thresholds `mapstructure:"safety"`
	Server  ServerConfig      `mapstructure:"server"`
	Logging LoggingConfig     `mapstructure:"logging"`
	Metrics MetricsConfig     `mapstructure:"metrics"`
	Health  HealthConfig      `mapstructure:"health"`
}

// DeBankConfig configures the upstream API client.
type DeBankConfig struct {
	AccessKey   string        `mapstructure:"access_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// AdminToken enables the bearer-protected signal endpoint.
	AdminToken string `mapstructure:"admin_token"`
}

// LoggingConfig contains logging configuration.
// Valid levels: trace, debug, info, warn, error.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated Prometheus endpoint port. JSON metrics are also
	// served on the main HTTP port.
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}
