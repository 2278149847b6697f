package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shouni/go-http-kit/pkg/httpkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exporterClient struct {
	httpkit.ClientInterface
	body string
	err  error
	urls []string
}

func (c *exporterClient) Do(req *http.Request) (*http.Response, error) {
	c.urls = append(c.urls, req.URL.String())
	if c.err != nil {
		return nil, c.err
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/plain; version=0.0.4"}},
		Body:       io.NopCloser(strings.NewReader(c.body)),
	}, nil
}

func exporterAt(url string) func() string {
	return func() string { return url }
}

func TestMetricsHandlerRelaysExposition(t *testing.T) {
	client := &exporterClient{body: "narrator_model_invocations_total{driver=\"bedrock\"} 3\n"}
	handler := metricsHandler(client, exporterAt("http://127.0.0.1:9090/metrics"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, rec.Body.String(), "narrator_model_invocations_total")
	assert.Equal(t, []string{"http://127.0.0.1:9090/metrics"}, client.urls)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Code
}

func TestMetricsHandlerWhenDisabled(t *testing.T) {
	client := &exporterClient{}
	handler := metricsHandler(client, exporterAt(""))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", errorCode(t, rec))
	assert.Empty(t, client.urls)
}

func TestMetricsHandlerExporterDown(t *testing.T) {
	client := &exporterClient{err: errors.New("connection refused")}
	handler := metricsHandler(client, exporterAt("http://127.0.0.1:9090/metrics"))

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, "EXTERNAL_SERVICE_ERROR", errorCode(t, rec))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}
