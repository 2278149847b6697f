// Package metrics emits the service's counters, gauges and histograms
// through the gofulmen telemetry system. Every recorder is a no-op until
// observability.InitMetrics has installed a telemetry system.
package metrics

import (
	"time"

	"github.com/areaoforigin/narrator/internal/observability"
)

// Metric names. The exporter adds the app namespace prefix.
const (
	HTTPRequestsTotal      = "http_requests_total"
	HTTPRequestDurationMs  = "http_request_duration_ms"
	HTTPRequestSizeBytes   = "http_request_size_bytes"
	HTTPResponseSizeBytes  = "http_response_size_bytes"
	HTTPErrorsTotal        = "http_errors_total"
	ErrorResponsesTotal    = "error_responses_total"
	PanicsTotal            = "panics_total"
	ActiveConnections      = "active_connections"
	ServerStartTime        = "server_start_time_seconds"
	ServerUptime           = "server_uptime_seconds"
	HealthChecksTotal      = "health_checks_total"
	HealthCheckDurationMs  = "health_check_duration_ms"
	OperationsTotal        = "operations_total"
	OperationErrorsTotal   = "operation_errors_total"
	ModelInvocationsTotal  = "model_invocations_total"
	ModelInvocationDurMs   = "model_invocation_duration_ms"
	StorageOperationsTotal = "storage_operations_total"
	ImageResolutionsTotal  = "image_resolutions_total"
)

func counter(name string, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Counter(name, 1, labels)
	}
}

func gauge(name string, value float64, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Gauge(name, value, labels)
	}
}

func histogram(name string, d time.Duration, labels map[string]string) {
	if sys := observability.TelemetrySystem; sys != nil {
		_ = sys.Histogram(name, d, labels)
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
