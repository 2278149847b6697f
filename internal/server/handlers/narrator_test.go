package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/storage"
)

type fakeService struct {
	narrative   narrator.NarrativeRequest
	summary     narrator.SummaryRequest
	contentType string
	key         string
	text        string
	calls       int

	result *narrator.Result
	grant  *storage.UploadGrant
	dl     *storage.DownloadURL
	err    error
}

func (f *fakeService) Narrate(_ context.Context, req narrator.NarrativeRequest) (*narrator.Result, error) {
	f.calls++
	f.narrative = req
	return f.result, f.err
}

func (f *fakeService) IssueUploadGrant(_ context.Context, contentType string) (*storage.UploadGrant, error) {
	f.calls++
	f.contentType = contentType
	return f.grant, f.err
}

func (f *fakeService) IssueDownloadURL(_ context.Context, key string) (*storage.DownloadURL, error) {
	f.calls++
	f.key = key
	return f.dl, f.err
}

func (f *fakeService) Summarize(_ context.Context, req narrator.SummaryRequest) (*narrator.Result, error) {
	f.calls++
	f.summary = req
	return f.result, f.err
}

func (f *fakeService) CorrectGrammar(_ context.Context, text string) (*narrator.Result, error) {
	f.calls++
	f.text = text
	return f.result, f.err
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func multipartBody(t *testing.T, prompt string, image []byte, imageType string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if prompt != "" {
		require.NoError(t, mw.WriteField("prompt", prompt))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="scene.png"`)
		h.Set("Content-Type", imageType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestGenerateNarrativeWithImage(t *testing.T) {
	svc := &fakeService{result: &narrator.Result{Model: "m-1", Text: " The fire started here.\n"}}
	h := NewNarratorHandlers(svc, 0)

	body, ct := multipartBody(t, "Describe the origin", []byte("pngbytes"), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Describe the origin", svc.narrative.Prompt)
	require.NotNil(t, svc.narrative.Image)
	assert.Equal(t, imagesource.KindInline, svc.narrative.Image.Kind)
	assert.Equal(t, "image/png", svc.narrative.Image.MediaType)
	assert.Equal(t, []byte("pngbytes"), svc.narrative.Image.Data)

	resp := decodeBody(t, rec)
	assert.Equal(t, "m-1", resp["model"])
	assert.Equal(t, " The fire started here.\n", resp["result"])
}

func TestGenerateNarrativeWithoutImage(t *testing.T) {
	svc := &fakeService{result: &narrator.Result{Model: "m-1", Text: "ok"}}
	h := NewNarratorHandlers(svc, 0)

	body, ct := multipartBody(t, "Describe", nil, "")
	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.narrative.Image)
}

func TestGenerateNarrativeAcceptsURLEncodedForm(t *testing.T) {
	svc := &fakeService{result: &narrator.Result{Model: "m-1", Text: "ok"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", strings.NewReader("prompt=hello"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", svc.narrative.Prompt)
	assert.Nil(t, svc.narrative.Image)
}

func TestGenerateNarrativeServiceErrorIsMapped(t *testing.T) {
	svc := &fakeService{err: &narrator.Error{Kind: narrator.KindInvalidInput, Op: narrator.OpNarrative, Detail: "prompt is required"}}
	h := NewNarratorHandlers(svc, 0)

	body, ct := multipartBody(t, "", nil, "")
	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody(t, rec)
	assert.Equal(t, "prompt is required", resp["error"])
	assert.Equal(t, "INVALID_INPUT", resp["code"])
}

func TestGenerateNarrativeRejectsOversizedBody(t *testing.T) {
	svc := &fakeService{}
	h := NewNarratorHandlers(svc, 1024)

	body, ct := multipartBody(t, "Describe", bytes.Repeat([]byte("a"), 4096), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/generate-narrative", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()

	h.GenerateNarrative(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestGenerateUploadURL(t *testing.T) {
	svc := &fakeService{grant: &storage.UploadGrant{
		Method:    http.MethodPost,
		URL:       "https://bucket.s3.amazonaws.com/",
		Fields:    map[string]string{"key": "uploads/a.jpg", "Content-Type": "image/jpeg"},
		Key:       "uploads/a.jpg",
		FileURL:   "https://bucket.s3.amazonaws.com/uploads/a.jpg",
		ExpiresIn: 15 * time.Minute,
	}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-upload-url", strings.NewReader(`{"content_type":"image/jpeg"}`))
	rec := httptest.NewRecorder()

	h.GenerateUploadURL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", svc.contentType)

	resp := decodeBody(t, rec)
	assert.Equal(t, "https://bucket.s3.amazonaws.com/", resp["upload_url"])
	assert.Equal(t, "uploads/a.jpg", resp["key"])
	assert.Equal(t, "https://bucket.s3.amazonaws.com/uploads/a.jpg", resp["file_url"])
	assert.EqualValues(t, 900, resp["expires_in"])
	fields, ok := resp["fields"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "uploads/a.jpg", fields["key"])
}

func TestGenerateUploadURLEmptyBodyUsesDefault(t *testing.T) {
	svc := &fakeService{grant: &storage.UploadGrant{Method: http.MethodPut, URL: "https://put", Key: "uploads/b.jpg"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-upload-url", http.NoBody)
	rec := httptest.NewRecorder()

	h.GenerateUploadURL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.contentType)
	_, hasFields := decodeBody(t, rec)["fields"]
	assert.False(t, hasFields)
}

func TestGenerateUploadURLMalformedJSON(t *testing.T) {
	svc := &fakeService{}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-upload-url", strings.NewReader(`{"content_type":`))
	rec := httptest.NewRecorder()

	h.GenerateUploadURL(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, svc.calls)
}

func TestGetImageURL(t *testing.T) {
	svc := &fakeService{dl: &storage.DownloadURL{URL: "https://bucket.s3.amazonaws.com/uploads/abc.jpg?X-Amz-Signature=x", ExpiresIn: 15 * time.Minute}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodGet, "/get-image-url?key=uploads/abc.jpg", nil)
	rec := httptest.NewRecorder()

	h.GetImageURL(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "uploads/abc.jpg", svc.key)
	resp := decodeBody(t, rec)
	assert.True(t, strings.HasPrefix(resp["presigned_url"].(string), "https://"))
	assert.EqualValues(t, 900, resp["expires_in"])
}

func TestGetImageURLStorageFailure(t *testing.T) {
	svc := &fakeService{err: &narrator.Error{Kind: narrator.KindStorage, Op: narrator.OpDownload, Detail: "presign failed"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodGet, "/get-image-url?key=uploads/abc.jpg", nil)
	rec := httptest.NewRecorder()

	h.GetImageURL(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "STORAGE_ERROR", decodeBody(t, rec)["code"])
}

func TestGenerateSummaryReturnsBothKeys(t *testing.T) {
	svc := &fakeService{result: &narrator.Result{Model: "m-2", Text: "Summary text"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-summary",
		strings.NewReader(`{"image_keys":["uploads/a.jpg","uploads/b.png"],"prompt":"Compare"}`))
	rec := httptest.NewRecorder()

	h.GenerateSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"uploads/a.jpg", "uploads/b.png"}, svc.summary.ImageKeys)
	assert.Equal(t, "Compare", svc.summary.Prompt)
	resp := decodeBody(t, rec)
	assert.Equal(t, "Summary text", resp["summary"])
	assert.Equal(t, "Summary text", resp["result"])
}

func TestGenerateSummaryValidation(t *testing.T) {
	cases := map[string]struct {
		body    string
		message string
	}{
		"mixed":      {`{"image_urls":["https://a.example/x.jpg"],"image_keys":["uploads/a.jpg"]}`, "cannot be combined"},
		"bad url":    {`{"image_urls":["not a url"]}`, "image_urls[0] must be a valid URL"},
		"blank key":  {`{"image_keys":[""]}`, "image_keys[0] must not be empty"},
		"not json":   {`images please`, "JSON object"},
		"empty body": {``, "JSON object"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &fakeService{}
			h := NewNarratorHandlers(svc, 0)

			req := httptest.NewRequest(http.MethodPost, "/generate-summary", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.GenerateSummary(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["error"], tc.message)
			assert.Zero(t, svc.calls)
		})
	}
}

func TestGenerateSummaryEmptyURLListWithKeys(t *testing.T) {
	svc := &fakeService{result: &narrator.Result{Text: "ok"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-summary",
		strings.NewReader(`{"image_urls":[],"image_keys":["uploads/a.jpg"]}`))
	rec := httptest.NewRecorder()

	h.GenerateSummary(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, svc.summary.ImageURLs)
}

func TestGenerateSummaryUnresolvableImage(t *testing.T) {
	svc := &fakeService{err: &narrator.Error{Kind: narrator.KindUnresolvable, Op: narrator.OpSummary, Detail: "image 1: not found"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/generate-summary", strings.NewReader(`{"image_keys":["uploads/a.jpg","uploads/gone.jpg"]}`))
	rec := httptest.NewRecorder()

	h.GenerateSummary(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNRESOLVABLE_IMAGE", decodeBody(t, rec)["code"])
}

func TestGrammarCheck(t *testing.T) {
	svc := &fakeService{result: &narrator.Result{Model: "m-1", Text: "The fire began in the kitchen."}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/grammar-check", strings.NewReader(`{"text":"the fire begun in kitchen"}`))
	rec := httptest.NewRecorder()

	h.GrammarCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "the fire begun in kitchen", svc.text)
	assert.Equal(t, map[string]any{"corrected": "The fire began in the kitchen."}, decodeBody(t, rec))
}

func TestGrammarCheckModelFailure(t *testing.T) {
	svc := &fakeService{err: &narrator.Error{Kind: narrator.KindModel, Op: narrator.OpGrammar, Detail: "model invocation failed"}}
	h := NewNarratorHandlers(svc, 0)

	req := httptest.NewRequest(http.MethodPost, "/grammar-check", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.GrammarCheck(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "MODEL_ERROR", decodeBody(t, rec)["code"])
}
