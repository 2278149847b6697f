package observability

import (
	"fmt"
	"net"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

var (
	// TelemetrySystem receives every metric the service emits. Nil disables
	// emission.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the text exposition on its own listener.
	PrometheusExporter *exporters.PrometheusExporter
)

// InitMetrics starts the Prometheus exporter on port (0 picks a free one)
// and routes telemetry to it. Metric names are prefixed with namespace.
func InitMetrics(namespace string, port int) error {
	if port < 0 {
		port = 0
	}

	cfg := exporters.DefaultPrometheusConfig()
	cfg.Prefix = namespace
	cfg.Endpoint = fmt.Sprintf(":%d", port)
	// Every scrape arrives through the main server's /metrics relay from a
	// single loopback client.
	cfg.RateLimitPerMinute = 0
	cfg.QuietMode = true

	exporter := exporters.NewPrometheusExporterWithConfig(cfg)
	if err := exporter.Start(); err != nil {
		return err
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	if err != nil {
		_ = exporter.Stop()
		return err
	}

	PrometheusExporter = exporter
	TelemetrySystem = sys
	return nil
}

// MetricsURL is the loopback address of the exporter's /metrics page, or ""
// when metrics are off.
func MetricsURL() string {
	if PrometheusExporter == nil {
		return ""
	}
	_, port, err := net.SplitHostPort(PrometheusExporter.GetAddr())
	if err != nil || port == "" {
		return ""
	}
	return "http://" + net.JoinHostPort("127.0.0.1", port) + "/metrics"
}

// StopMetrics closes the exporter listener. Emission keeps working; only
// scraping stops.
func StopMetrics() error {
	if PrometheusExporter == nil {
		return nil
	}
	return PrometheusExporter.Stop()
}
