package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/metrics"
	"github.com/areaoforigin/narrator/internal/observability"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

// knownEndpoints are the only paths reported verbatim when no chi pattern
// matched; everything else collapses to /unknown.
var knownEndpoints = map[string]string{
	"/health":              "/health/*",
	"/health/live":         "/health/*",
	"/health/ready":        "/health/*",
	"/version":             "/version",
	"/metrics":             "/metrics",
	"/generate-narrative":  "/generate-narrative",
	"/generate-upload-url": "/generate-upload-url",
	"/get-image-url":       "/get-image-url",
	"/generate-summary":    "/generate-summary",
	"/grammar-check":       "/grammar-check",
	"/":                    "/",
}

// getEndpointPattern returns a low-cardinality label for r. Query strings,
// object keys and probe paths never reach the label.
func getEndpointPattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	if endpoint, ok := knownEndpoints[r.URL.Path]; ok {
		return endpoint
	}
	return "/unknown"
}

// RequestMetrics records request count, latency and sizes, then logs the
// request with its ID. Multipart uploads report their declared length.
func RequestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		endpoint := getEndpointPattern(r)
		requestBytes := r.ContentLength
		if requestBytes < 0 {
			requestBytes = 0
		}
		metrics.RecordHTTPRequest(r.Method, endpoint, rec.status, duration, requestBytes, rec.bytes)

		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("HTTP request completed",
				zap.String("method", r.Method),
				zap.String("endpoint", endpoint),
				zap.Int("status", rec.status),
				zap.Duration("duration", duration),
				zap.Int64("request_size", requestBytes),
				zap.Int64("response_size", rec.bytes),
				zap.String("requestID", GetRequestID(r.Context())),
			)
		}
	})
}
