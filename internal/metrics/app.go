package metrics

import (
	"strconv"
	"time"

	"github.com/defilens/debank-mcp/internal/observability"
)

// Metric names, Prometheus conventions. The exporter adds the namespace prefix.
var (
	UpstreamRequestsTotal     = "upstream_requests_total"
	UpstreamRequestDurationMs = "upstream_request_duration_ms"
	UpstreamRetriesTotal      = "upstream_retries_total"

	ToolCallsTotal     = "tool_calls_total"
	ToolCallDurationMs = "tool_call_duration_ms"

	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	ServerStartTime = "app_server_start_time_seconds"

	ErrorsTotal      = "errors_total"
	ErrorsByEndpoint = "errors_by_endpoint"
	PanicsTotal      = "panics_total"
)

// RecordUpstreamRequest records one HTTP exchange with the DeBank API.
// status is 0 when no response was received.
func RecordUpstreamRequest(method, endpoint string, status int, duration time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	labels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
		"status":   statusLabel(status),
	}
	_ = sys.Counter(UpstreamRequestsTotal, 1, labels)
	_ = sys.Histogram(UpstreamRequestDurationMs, duration, map[string]string{"endpoint": endpoint})
}

// RecordUpstreamRetry records a transient failure eligible for retry.
func RecordUpstreamRetry(endpoint, kind string) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(
		UpstreamRetriesTotal,
		1,
		map[string]string{
			"endpoint": endpoint,
			"kind":     kind,
		},
	)
}

// RecordToolCall records a tool invocation. outcome is "success" or an error kind.
func RecordToolCall(tool, outcome string, duration time.Duration) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ToolCallsTotal, 1, map[string]string{
		"tool":    tool,
		"outcome": outcome,
	})
	_ = sys.Histogram(ToolCallDurationMs, duration, map[string]string{"tool": tool})
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)
		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{"check": checkName},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}

func statusLabel(status int) string {
	if status <= 0 {
		return "none"
	}
	return strconv.Itoa(status)
}

// RecordError counts an error envelope written to an HTTP client.
func RecordError(code string, httpStatus int) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ErrorsTotal, 1, map[string]string{
		"error_code":  code,
		"http_status": statusLabel(httpStatus),
	})
}

// RecordErrorByEndpoint counts an error envelope against the route that produced it.
func RecordErrorByEndpoint(endpoint, code string) {
	sys := observability.TelemetrySystem
	if sys == nil {
		return
	}
	_ = sys.Counter(ErrorsByEndpoint, 1, map[string]string{
		"endpoint":   endpoint,
		"error_code": code,
	})
}

// RecordPanic counts a recovered handler panic.
func RecordPanic() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(PanicsTotal, 1, nil)
	}
}
