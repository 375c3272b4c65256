package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoggers(t *testing.T) {
	t.Cleanup(func() {
		CLILogger = nil
		ServerLogger = nil
	})

	t.Run("CLI logger", func(t *testing.T) {
		InitCLILogger("debank-mcp-test", true)
		require.NotNil(t, CLILogger)
		assert.Same(t, CLILogger, Logger())
		CLILogger.Debug("cli logger ready", zap.String("mode", "verbose"))
	})

	t.Run("server logger takes precedence", func(t *testing.T) {
		InitServerLogger("debank-mcp-test", "debug", "test")
		require.NotNil(t, ServerLogger)
		assert.Same(t, ServerLogger, Logger())
		ServerLogger.Info("server logger ready", zap.Int("port", 8080))
	})
}

func TestServerLoggerConfig(t *testing.T) {
	cfg := serverLoggerConfig("debank-mcp", "warning", "prod")

	assert.Equal(t, logging.ProfileStructured, cfg.Profile)
	assert.Equal(t, "WARN", cfg.DefaultLevel)
	assert.Equal(t, "prod", cfg.StaticFields["namespace"])
	require.Len(t, cfg.Sinks, 1)
	assert.Equal(t, "stderr", cfg.Sinks[0].Console.Stream)

	bare := serverLoggerConfig("debank-mcp", "info")
	assert.NotContains(t, bare.StaticFields, "namespace")
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"trace":   "TRACE",
		"DEBUG":   "DEBUG",
		"info":    "INFO",
		"warning": "WARN",
		"ERROR":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), in)
	}
}

func TestInitMetricsBindsFreePort(t *testing.T) {
	t.Cleanup(func() {
		if PrometheusExporter != nil {
			_ = PrometheusExporter.Stop()
		}
		PrometheusExporter = nil
		TelemetrySystem = nil
		metricsPort = 0
	})

	require.NoError(t, InitMetrics(0, ""))
	require.NotNil(t, TelemetrySystem)
	require.NotNil(t, PrometheusExporter)
	assert.Greater(t, GetMetricsPort(), 0)
}

func TestCrucibleVersionAvailable(t *testing.T) {
	version := crucible.GetVersion()
	assert.NotEmpty(t, version.Gofulmen)
	assert.NotEmpty(t, version.Crucible)
}
