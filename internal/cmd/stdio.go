package cmd

import (
	"context"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/mcpserver"
	"github.com/defilens/debank-mcp/internal/observability"
)

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve MCP tools over stdin/stdout",
	Long: `Run the MCP server on stdin/stdout, the transport MCP clients use when
they launch debank-mcp as a subprocess. Logs go to stderr; stdout carries
only MCP frames.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(nil)
		logger := observability.CLILogger

		client := requireClient(cfg, logger)
		defer client.Close() // nolint:errcheck // Close never fails

		registry := newRegistry(cfg, client, logger)
		mcp := mcpserver.New(registry, versionInfo.Version)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		signals.OnShutdown(func(context.Context) error {
			logger.Debug("Stopping stdio transport")
			cancel()
			return nil
		})
		go func() {
			if err := signals.Listen(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Signal handler error", zap.Error(err))
			}
		}()

		logger.Info("Serving MCP over stdio",
			zap.Int("tools", len(registry.Names())),
			zap.String("base_url", client.BaseURL()))

		if err := mcpserver.ServeStdio(ctx, mcp, os.Stdin, os.Stdout, os.Stderr); err != nil {
			ExitWithCode(logger, foundry.ExitFailure, "stdio transport failed", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stdioCmd)
}
