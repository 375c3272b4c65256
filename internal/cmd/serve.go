package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/defilens/debank-mcp/internal/config"
	"github.com/defilens/debank-mcp/internal/debank"
	errwrap "github.com/defilens/debank-mcp/internal/errors"
	"github.com/defilens/debank-mcp/internal/mcpserver"
	"github.com/defilens/debank-mcp/internal/metrics"
	"github.com/defilens/debank-mcp/internal/observability"
	"github.com/defilens/debank-mcp/internal/server"
	"github.com/defilens/debank-mcp/internal/server/handlers"
)

var serveFlagPaths = map[string][]string{
	"host":         {"server", "host"},
	"port":         {"server", "port"},
	"metrics-port": {"metrics", "port"},
}

// clientHealthChecker fails once the DeBank client has been closed.
type clientHealthChecker struct {
	client *debank.Client
}

func (c clientHealthChecker) CheckHealth(ctx context.Context) error {
	if c.client == nil || c.client.Closed() {
		return errwrap.NewServiceUnavailableError("DeBank client is closed")
	}
	return nil
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve MCP tools over streamable HTTP",
	Long: `Start the HTTP host: MCP streamable HTTP on /mcp plus /health, /version
and /metrics.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config file re-read (restart to apply client settings)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(changedFlags(cmd, serveFlagPaths))
		namespace := config.AppName

		observability.InitServerLogger(config.AppName, cfg.Logging.Level, namespace)
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(cfg.Metrics.Port, observability.DefaultNamespace); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}
		metrics.SetServerStartTime(time.Now().Unix())

		client := requireClient(cfg, logger)
		registry := newRegistry(cfg, client, logger)

		var health *handlers.HealthManager
		if cfg.Health.Enabled {
			health = handlers.NewHealthManager(versionInfo.Version)
			health.RegisterChecker("debank_client", clientHealthChecker{client: client})
			if cfg.Metrics.Enabled {
				health.RegisterChecker("telemetry", telemetryHealthChecker{})
			}
		}

		srv := server.New(server.Options{
			Host:            cfg.Server.Host,
			Port:            cfg.Server.Port,
			ReadTimeout:     cfg.Server.ReadTimeout,
			WriteTimeout:    cfg.Server.WriteTimeout,
			IdleTimeout:     cfg.Server.IdleTimeout,
			ShutdownTimeout: cfg.Server.ShutdownTimeout,
			MCP:             mcpserver.HTTPHandler(mcpserver.New(registry, versionInfo.Version)),
			Health:          health,
			MetricsPort:     cfg.Metrics.Port,
			AdminToken:      cfg.Server.AdminToken,
		})

		logger.Info("Initializing server",
			zap.String("version", versionInfo.Version),
			zap.String("addr", srv.Addr()),
			zap.Int("tools", len(registry.Names())),
			zap.Bool("metrics_enabled", cfg.Metrics.Enabled),
			zap.Int("metrics_port", observability.GetMetricsPort()))

		// Shutdown handlers run LIFO: HTTP server, then client, then logger.
		stopped := make(chan struct{})
		signals.OnShutdown(func(ctx context.Context) error {
			defer close(stopped)
			if err := logger.Sync(); err != nil {
				// stderr sync errors are benign
				logger.Debug("Logger sync returned error", zap.Error(err))
			}
			return nil
		})
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Closing DeBank client")
			return client.Close()
		})
		signals.OnShutdown(func(ctx context.Context) error {
			if err := srv.Shutdown(ctx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}
			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: re-reading config file")
			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					return nil
				}
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			if _, err := config.Load(viper.GetViper()); err != nil {
				return errwrap.WrapConfigInvalid(ctx, err, "reloaded config is invalid")
			}
			logger.Info("Configuration re-read; restart to apply client and server settings",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			errChan <- srv.Start()
		}()
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			_ = client.Close()
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		// Start returned after Shutdown; let the remaining handlers finish.
		select {
		case <-stopped:
		case <-time.After(cfg.Server.ShutdownTimeout):
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8080, "server port")
	serveCmd.Flags().Int("metrics-port", 9090, "Prometheus exporter port (0 picks a free port)")
}
