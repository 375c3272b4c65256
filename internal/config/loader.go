// Package config loads debank-mcp configuration from defaults, an optional
// YAML file, DEBANK_* environment variables and runtime overrides.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/defilens/debank-mcp/internal/debank"
)

const (
	// AppName names the config directory and telemetry namespace.
	AppName = "debank-mcp"

	// EnvPrefix is prepended to every environment variable.
	EnvPrefix = "DEBANK_"

	// AccessKeyEnv holds the DeBank Pro API key.
	AccessKeyEnv = EnvPrefix + "ACCESS_KEY"
)

// ErrMissingAccessKey is returned by RequireAccessKey.
var ErrMissingAccessKey = errors.New(AccessKeyEnv + " is not set")

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec defines environment variable mappings for config fields
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetDefaults registers built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("debank.access_key", "")
	v.SetDefault("debank.base_url", debank.DefaultBaseURL)
	v.SetDefault("debank.timeout", debank.DefaultTimeout.String())
	v.SetDefault("debank.max_retries", debank.DefaultMaxRetries)
	v.SetDefault("debank.backoff_base", debank.DefaultBackoffBase.String())

	v.SetDefault("safety.large_transfer_usd", 10000.0)
	v.SetDefault("safety.high_gas_units", 500000)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.admin_token", "")

	v.SetDefault("logging.level", "info")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	v.SetDefault("health.enabled", true)
}

// Load decodes the layered configuration. v supplies defaults and the config
// file; a nil v uses defaults only. Later runtime overrides win.
func Load(v *viper.Viper, runtimeOverrides ...map[string]any) (*Config, error) {
	if v == nil {
		v = viper.New()
		SetDefaults(v)
	}

	merged := v.AllSettings()

	envOverrides, err := gfconfig.LoadEnvOverrides(EnvSpecs())
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}
	mergeInto(merged, envOverrides)
	for _, overrides := range runtimeOverrides {
		mergeInto(merged, overrides)
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(merged); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DeBank.AccessKey = strings.TrimSpace(cfg.DeBank.AccessKey)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate rejects values the client or server cannot run with. A missing
// access key is not an error here; see RequireAccessKey.
func (c *Config) Validate() error {
	switch {
	case c.DeBank.Timeout <= 0:
		return fmt.Errorf("debank.timeout must be positive, got %s", c.DeBank.Timeout)
	case c.DeBank.MaxRetries < 0:
		return fmt.Errorf("debank.max_retries must be >= 0, got %d", c.DeBank.MaxRetries)
	case c.DeBank.BackoffBase < 0:
		return fmt.Errorf("debank.backoff_base must be >= 0, got %s", c.DeBank.BackoffBase)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// RequireAccessKey fails when no DeBank access key is configured.
func (c *Config) RequireAccessKey() error {
	if c == nil || c.DeBank.AccessKey == "" {
		return ErrMissingAccessKey
	}
	return nil
}

// GetConfig returns the most recently loaded configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// EnvSpecs maps DEBANK_* variables to config paths. Durations and floats are
// read as strings and converted by the decode hooks.
func EnvSpecs() []EnvVarSpec {
	p := EnvPrefix
	return []EnvVarSpec{
		{Name: p + "ACCESS_KEY", Path: []string{"debank", "access_key"}, Type: EnvString},
		{Name: p + "BASE_URL", Path: []string{"debank", "base_url"}, Type: EnvString},
		{Name: p + "TIMEOUT", Path: []string{"debank", "timeout"}, Type: EnvString},
		{Name: p + "MAX_RETRIES", Path: []string{"debank", "max_retries"}, Type: EnvInt},
		{Name: p + "BACKOFF_BASE", Path: []string{"debank", "backoff_base"}, Type: EnvString},

		{Name: p + "SAFETY_LARGE_TRANSFER_USD", Path: []string{"safety", "large_transfer_usd"}, Type: EnvString},
		{Name: p + "SAFETY_HIGH_GAS_UNITS", Path: []string{"safety", "high_gas_units"}, Type: EnvInt},

		{Name: p + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: p + "PORT", Path: []string{"server", "port"}, Type: EnvInt},
		{Name: p + "SHUTDOWN_TIMEOUT", Path: []string{"server", "shutdown_timeout"}, Type: EnvString},
		{Name: p + "ADMIN_TOKEN", Path: []string{"server", "admin_token"}, Type: EnvString},

		{Name: p + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},

		{Name: p + "METRICS_ENABLED", Path: []string{"metrics", "enabled"}, Type: EnvBool},
		{Name: p + "METRICS_PORT", Path: []string{"metrics", "port"}, Type: EnvInt},

		{Name: p + "HEALTH_ENABLED", Path: []string{"health", "enabled"}, Type: EnvBool},
	}
}

// DefaultConfigDir returns the XDG config directory for the app.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(AppName)
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// mergeInto overlays src onto dst, descending into nested maps.
func mergeInto(dst, src map[string]any) {
	for key, value := range src {
		key = strings.ToLower(key)
		srcMap, srcIsMap := value.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			mergeInto(dstMap, srcMap)
			continue
		}
		if srcIsMap {
			fresh := map[string]any{}
			mergeInto(fresh, srcMap)
			dst[key] = fresh
			continue
		}
		dst[key] = value
	}
}
