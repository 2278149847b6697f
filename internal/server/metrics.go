package server

import (
	"io"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/shouni/go-http-kit/pkg/httpkit"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/observability"
)

const metricsScrapeTimeout = 5 * time.Second

// newMetricsClient reaches the exporter over loopback, which the default
// client would refuse as a private address.
func newMetricsClient() *httpkit.Client {
	return httpkit.New(metricsScrapeTimeout, httpkit.WithSkipNetworkValidation(true))
}

// metricsHandler relays the exporter's text exposition so /metrics can be
// scraped on the main port. target reports where the exporter listens.
func metricsHandler(client httpkit.ClientInterface, target func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url := target()
		if url == "" {
			HandleError(w, r, errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "Metrics are disabled"))
			return
		}

		req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
		if err != nil {
			envelope, _ := errors.NewErrorEnvelope("INTERNAL_ERROR", "Unable to build metrics request").
				WithContext(map[string]interface{}{"original_error": err.Error()})
			HandleError(w, r, envelope)
			return
		}
		if accept := r.Header.Get("Accept"); accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := client.Do(req)
		if err != nil {
			envelope, _ := errors.NewErrorEnvelope("EXTERNAL_SERVICE_ERROR", "Prometheus exporter unavailable").
				WithContext(map[string]interface{}{"original_error": err.Error()})
			HandleError(w, r, envelope)
			return
		}
		defer func() { _ = resp.Body.Close() }()

		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "text/plain; version=0.0.4"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil && observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Failed to relay metrics", zap.Error(err))
		}
	}
}
