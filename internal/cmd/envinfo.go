package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/config"
	"github.com/defilens/debank-mcp/internal/observability"
	"github.com/defilens/debank-mcp/internal/server/handlers"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display version, runtime and effective configuration. The access key is never printed.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		v := handlers.CurrentVersion()

		log.Info("=== debank-mcp Environment Information ===")
		log.Info("Application:")
		log.Info("  Version:    "+v.App.Version, zap.String("commit", v.App.Commit), zap.String("built", v.App.BuildDate))
		log.Info("  Gofulmen:   "+v.Dependencies.Gofulmen, zap.String("crucible_version", v.Dependencies.Crucible))
		log.Info("  Go:         "+runtime.Version(), zap.String("platform", v.Runtime.Platform))
		log.Info("")

		cfg := loadConfig(nil)
		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			configFile = "(none; default " + config.DefaultConfigPath() + ")"
		}

		log.Info("DeBank:")
		log.Info("  Base URL:       "+cfg.DeBank.BaseURL, zap.String("base_url", cfg.DeBank.BaseURL))
		log.Info("  Access Key:     "+keyStatus(cfg.DeBank.AccessKey), zap.Bool("access_key_set", cfg.DeBank.AccessKey != ""))
		log.Info("  Timeout:        "+cfg.DeBank.Timeout.String(), zap.Duration("timeout", cfg.DeBank.Timeout))
		log.Info(fmt.Sprintf("  Max Retries:    %d", cfg.DeBank.MaxRetries), zap.Int("max_retries", cfg.DeBank.MaxRetries))
		log.Info("  Backoff Base:   "+cfg.DeBank.BackoffBase.String(), zap.Duration("backoff_base", cfg.DeBank.BackoffBase))
		log.Info("")

		log.Info("Safety:")
		log.Info(fmt.Sprintf("  Large Transfer: $%.2f", cfg.Safety.LargeTransferUSD))
		log.Info(fmt.Sprintf("  High Gas Units: %d", cfg.Safety.HighGasUnits))
		log.Info("")

		log.Info("Server:")
		log.Info(fmt.Sprintf("  Listen:         %s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info("  Log Level:      " + cfg.Logging.Level)
		log.Info("  Config File:    "+configFile, zap.String("config_file", configFile))
		log.Info("=== End Environment Information ===")
	},
}

func keyStatus(key string) string {
	if key == "" {
		return "(not set)"
	}
	return "(set)"
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
