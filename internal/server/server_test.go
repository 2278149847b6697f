package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/areaoforigin/narrator/internal/errors"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/server/middleware"
	"github.com/areaoforigin/narrator/internal/storage"
)

type stubService struct{}

func (stubService) Narrate(context.Context, narrator.NarrativeRequest) (*narrator.Result, error) {
	return &narrator.Result{Model: "m", Text: "narrative"}, nil
}

func (stubService) IssueUploadGrant(context.Context, string) (*storage.UploadGrant, error) {
	return &storage.UploadGrant{Method: http.MethodPut, URL: "https://put", Key: "uploads/x.jpg", ExpiresIn: time.Minute}, nil
}

func (stubService) IssueDownloadURL(_ context.Context, key string) (*storage.DownloadURL, error) {
	if key == "" {
		return nil, &narrator.Error{Kind: narrator.KindInvalidInput, Op: narrator.OpDownload, Detail: "key is required"}
	}
	return &storage.DownloadURL{URL: "https://get/" + key, ExpiresIn: 15 * time.Minute}, nil
}

func (stubService) Summarize(context.Context, narrator.SummaryRequest) (*narrator.Result, error) {
	return &narrator.Result{Text: "summary"}, nil
}

func (stubService) CorrectGrammar(context.Context, string) (*narrator.Result, error) {
	panic("grammar exploded")
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New(Options{Host: "127.0.0.1"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Code)
	}
	if body.RequestID == "" || body.RequestID != rec.Header().Get(middleware.RequestIDHeader) {
		t.Fatalf("expected request_id to match %s header, got %q", middleware.RequestIDHeader, body.RequestID)
	}
}

func TestServerRoutesNarratorEndpoints(t *testing.T) {
	srv := New(Options{}, stubService{})

	req := httptest.NewRequest(http.MethodGet, "/get-image-url?key=uploads/abc.jpg", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://get/uploads/abc.jpg", body["presigned_url"])

	req = httptest.NewRequest(http.MethodPost, "/generate-summary", strings.NewReader(`{"image_keys":["uploads/a.jpg"]}`))
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "summary", body["summary"])
	assert.Equal(t, "summary", body["result"])
}

func TestServerMissingKeyIsBadRequest(t *testing.T) {
	srv := New(Options{}, stubService{})

	req := httptest.NewRequest(http.MethodGet, "/get-image-url", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "key is required", body.Error)
	assert.Equal(t, "INVALID_INPUT", body.Code)
}

func TestServerMethodNotAllowed(t *testing.T) {
	srv := New(Options{}, stubService{})

	req := httptest.NewRequest(http.MethodGet, "/grammar-check", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServerRecoversFromPanics(t *testing.T) {
	srv := New(Options{}, stubService{})

	req := httptest.NewRequest(http.MethodPost, "/grammar-check", strings.NewReader(`{"text":"x"}`))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_ERROR", body["code"])
	assert.NotContains(t, body["error"], "grammar exploded")
}
