package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/defilens/debank-mcp/internal/config"
	"github.com/defilens/debank-mcp/internal/debank"
	"github.com/defilens/debank-mcp/internal/observability"
	"github.com/defilens/debank-mcp/internal/safety"
	"github.com/defilens/debank-mcp/internal/tools"
)

// loadConfig decodes the layered configuration, exiting on invalid values.
// overrides carry flags the user set explicitly.
func loadConfig(overrides map[string]any) *config.Config {
	cfg, err := config.Load(viper.GetViper(), overrides)
	if err != nil {
		ExitWithCode(observability.Logger(), foundry.ExitConfigInvalid, "Invalid configuration", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg
}

// requireClient builds the DeBank client, exiting when no access key is set.
func requireClient(cfg *config.Config, logger *logging.Logger) *debank.Client {
	if err := cfg.RequireAccessKey(); err != nil {
		ExitWithCode(logger, foundry.ExitConfigInvalid,
			"DeBank access key missing: set "+config.AccessKeyEnv+" in the environment or .env file", err)
	}
	client, err := debank.New(cfg.DeBank.AccessKey,
		debank.WithBaseURL(cfg.DeBank.BaseURL),
		debank.WithTimeout(cfg.DeBank.Timeout),
		debank.WithMaxRetries(cfg.DeBank.MaxRetries),
		debank.WithBackoffBase(cfg.DeBank.BackoffBase),
		debank.WithLogger(logger),
	)
	if err != nil {
		ExitWithCode(logger, foundry.ExitConfigInvalid, "Failed to create DeBank client", err)
	}
	return client
}

func newRegistry(cfg *config.Config, api debank.Caller, logger *logging.Logger) *tools.Registry {
	return tools.NewRegistry(api,
		tools.WithAnalyzer(safety.New(cfg.Safety)),
		tools.WithLogger(logger),
	)
}

// changedFlags maps explicitly set flags to config paths.
func changedFlags(cmd *cobra.Command, paths map[string][]string) map[string]any {
	out := map[string]any{}
	for name, path := range paths {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		setPath(out, path, flag.Value.String())
	}
	return out
}

func setPath(m map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
