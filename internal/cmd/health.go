package cmd

import (
	"context"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/config"
	"github.com/defilens/debank-mcp/internal/debank"
	errwrap "github.com/defilens/debank-mcp/internal/errors"
	"github.com/defilens/debank-mcp/internal/observability"
)

var healthProbe bool

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Verify the configuration loads and an access key is present. With --probe,
also make one authenticated call (account units) to confirm the key works.`,
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger

		cfg := loadConfig(nil)
		logger.Info("✅ Configuration valid",
			zap.String("base_url", cfg.DeBank.BaseURL),
			zap.Duration("timeout", cfg.DeBank.Timeout))

		if err := cfg.RequireAccessKey(); err != nil {
			ExitWithCode(logger, foundry.ExitConfigInvalid, "❌ "+config.AccessKeyEnv+" is not set",
				errwrap.NewConfigInvalidError(err.Error()))
		}
		logger.Info("✅ Access key present")

		if !healthProbe {
			logger.Info("✅ All health checks passed")
			return
		}

		client := requireClient(cfg, logger)
		defer client.Close() // nolint:errcheck // Close never fails

		ctx, cancel := context.WithTimeout(cmd.Context(), cfg.DeBank.Timeout+5*time.Second)
		defer cancel()
		if _, err := debank.AccountUnits(ctx, client); err != nil {
			code := foundry.ExitExternalServiceUnavailable
			if debank.KindOf(err) == debank.KindAuth {
				code = foundry.ExitConfigInvalid
			}
			ExitWithCode(logger, code, "❌ DeBank probe failed", errwrap.FromUpstream(ctx, err))
		}
		logger.Info("✅ DeBank API reachable")

		if snap := client.RateLimit(); snap.Remaining != nil {
			logger.Info("Rate limit", zap.Int("remaining", *snap.Remaining))
		}
		logger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().BoolVar(&healthProbe, "probe", false, "call the DeBank API once to verify the access key")
}
