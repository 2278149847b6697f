package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areaoforigin/narrator/internal/ailink"
	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/ailink/prompt"
	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/storage"
)

type countingDriver struct{ calls int }

func (d *countingDriver) Complete(context.Context, *driver.Request) (*driver.Response, error) {
	d.calls++
	return &driver.Response{Content: []content.ContentBlock{content.TextBlock("ok")}}, nil
}
func (d *countingDriver) Name() string { return "counting" }
func (d *countingDriver) Capabilities() driver.Capabilities { return driver.Capabilities{} }

type staticModels struct{ drv driver.Driver }

func (m staticModels) Resolve(string, *prompt.Prompt) (*ailink.Resolved, error) {
	return &ailink.Resolved{Driver: m.drv, Model: "test-model"}, nil
}

type noPresigner struct{}

func (noPresigner) PresignUpload(context.Context, string) (*storage.UploadGrant, error) {
	return nil, storage.ErrUnsupportedType
}

func (noPresigner) PresignDownload(context.Context, string) (*storage.DownloadURL, error) {
	return nil, storage.ErrInvalidKey
}

func newNarrativeFlow(t *testing.T, cfg imagesource.Config) (*NarratorHandlers, *countingDriver) {
	t.Helper()
	prompts, err := prompt.DefaultRegistry()
	require.NoError(t, err)

	drv := &countingDriver{}
	svc, err := narrator.NewService(narrator.Deps{
		Models:    staticModels{drv: drv},
		Prompts:   prompts,
		Presigner: noPresigner{},
		Images:    imagesource.NewResolver(cfg, nil),
	})
	require.NoError(t, err)
	return NewNarratorHandlers(svc, 0), drv
}

func TestGenerateNarrativeUploadedNonImageIsServerError(t *testing.T) {
	h, drv := newNarrativeFlow(t, imagesource.Config{})

	body, ct := multipartBody(t, "Describe the origin", []byte("meeting notes, not a photo"), "text/plain")
	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeBody(t, rec)["code"])
	assert.Zero(t, drv.calls)
}

func TestGenerateNarrativeUploadedImageOverCapIsServerError(t *testing.T) {
	h, drv := newNarrativeFlow(t, imagesource.Config{MaxBytes: 8})

	body, ct := multipartBody(t, "Describe the origin", []byte("\x89PNG\r\n\x1a\n0123456789"), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Zero(t, drv.calls)
}
