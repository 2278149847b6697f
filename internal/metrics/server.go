package metrics

import (
	"strconv"
	"time"
)

// RecordHTTPRequest records one served request. endpoint must already be a
// low-cardinality route pattern.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration, requestBytes, responseBytes int64) {
	labels := map[string]string{
		"method":   method,
		"endpoint": endpoint,
		"status":   strconv.Itoa(status),
	}
	counter(HTTPRequestsTotal, labels)
	histogram(HTTPRequestDurationMs, duration, labels)

	sizeLabels := map[string]string{"method": method, "endpoint": endpoint}
	gauge(HTTPRequestSizeBytes, float64(requestBytes), sizeLabels)
	gauge(HTTPResponseSizeBytes, float64(responseBytes), sizeLabels)

	if status >= 400 {
		errorType := "client_error"
		if status >= 500 {
			errorType = "server_error"
		}
		counter(HTTPErrorsTotal, map[string]string{
			"method":     method,
			"endpoint":   endpoint,
			"status":     strconv.Itoa(status),
			"error_type": errorType,
		})
	}
}

// RecordErrorResponse counts an error envelope written to a client.
func RecordErrorResponse(code string, status int, endpoint string) {
	counter(ErrorResponsesTotal, map[string]string{
		"error_code":  code,
		"http_status": strconv.Itoa(status),
		"endpoint":    endpoint,
	})
}

// RecordPanic counts a recovered handler panic.
func RecordPanic() {
	counter(PanicsTotal, nil)
}

// SetActiveConnections sets the number of open client connections.
func SetActiveConnections(count int64) {
	gauge(ActiveConnections, float64(count), nil)
}

// SetServerStartTime records when the listener started, as a Unix time.
func SetServerStartTime(unix int64) {
	gauge(ServerStartTime, float64(unix), nil)
}

// SetServerUptime records uptime in seconds.
func SetServerUptime(seconds int64) {
	gauge(ServerUptime, float64(seconds), nil)
}

// RecordHealthCheck records one dependency check: storage, model_driver or
// telemetry.
func RecordHealthCheck(check string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	counter(HealthChecksTotal, map[string]string{"check": check, "status": status})
	histogram(HealthCheckDurationMs, duration, map[string]string{"check": check})
}
