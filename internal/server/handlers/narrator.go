package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/areaoforigin/narrator/internal/errors"
	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/storage"
)

// DefaultMaxUploadBytes bounds the multipart body of /generate-narrative.
const DefaultMaxUploadBytes = 20 << 20

// NarratorService is the subset of narrator.Service the HTTP layer calls.
type NarratorService interface {
	Narrate(ctx context.Context, req narrator.NarrativeRequest) (*narrator.Result, error)
	IssueUploadGrant(ctx context.Context, contentType string) (*storage.UploadGrant, error)
	IssueDownloadURL(ctx context.Context, key string) (*storage.DownloadURL, error)
	Summarize(ctx context.Context, req narrator.SummaryRequest) (*narrator.Result, error)
	CorrectGrammar(ctx context.Context, text string) (*narrator.Result, error)
}

// NarratorHandlers serves the narrative, storage and grammar endpoints.
type NarratorHandlers struct {
	svc            NarratorService
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewNarratorHandlers binds svc to HTTP. maxUploadBytes <= 0 selects
// DefaultMaxUploadBytes.
func NewNarratorHandlers(svc NarratorService, maxUploadBytes int64) *NarratorHandlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &NarratorHandlers{
		svc:            svc,
		validate:       newValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

type narrativeResponse struct {
	Model  string `json:"model"`
	Result string `json:"result"`
}

type uploadURLRequest struct {
	ContentType string `json:"content_type" validate:"omitempty,max=255"`
}

type uploadURLResponse struct {
	UploadURL string            `json:"upload_url"`
	Method    string            `json:"method"`
	Fields    map[string]string `json:"fields,omitempty"`
	FileURL   string            `json:"file_url"`
	Key       string            `json:"key"`
	ExpiresIn int64             `json:"expires_in"`
}

type imageURLResponse struct {
	PresignedURL string `json:"presigned_url"`
	ExpiresIn    int64  `json:"expires_in"`
}

type summaryRequest struct {
	ImageURLs []string `json:"image_urls" validate:"omitempty,dive,required,url"`
	ImageKeys []string `json:"image_keys" validate:"omitempty,excluded_with=ImageURLs,dive,required"`
	Prompt    string   `json:"prompt"`
}

type summaryResponse struct {
	Model   string `json:"model,omitempty"`
	Summary string `json:"summary"`
	Result  string `json:"result"`
}

type grammarRequest struct {
	Text string `json:"text"`
}

type grammarResponse struct {
	Corrected string `json:"corrected"`
}

// GenerateNarrative handles POST /generate-narrative. The body is a form with
// a prompt field and an optional image file; url-encoded forms carry no image.
func (h *NarratorHandlers) GenerateNarrative(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil && !stderrors.Is(err, http.ErrNotMultipart) {
		respondWithError(w, r, bodyError(err, "expected a multipart form with a prompt field"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := narrator.NarrativeRequest{Prompt: r.FormValue("prompt")}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			respondWithError(w, r, fmt.Errorf("read uploaded image: %w", rerr))
			return
		}
		src := imagesource.Inline(data, header.Header.Get("Content-Type"))
		req.Image = &src
	case stderrors.Is(err, http.ErrMissingFile), stderrors.Is(err, http.ErrNotMultipart):
	default:
		respondWithError(w, r, apperrors.NewInvalidInputError("image must be a file upload"))
		return
	}

	res, err := h.svc.Narrate(r.Context(), req)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, narrativeResponse{Model: res.Model, Result: res.Text})
}

// GenerateUploadURL handles POST /generate-upload-url.
func (h *NarratorHandlers) GenerateUploadURL(w http.ResponseWriter, r *http.Request) {
	var req uploadURLRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	grant, err := h.svc.IssueUploadGrant(r.Context(), req.ContentType)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadURLResponse{
		UploadURL: grant.URL,
		Method:    grant.Method,
		Fields:    grant.Fields,
		FileURL:   grant.FileURL,
		Key:       grant.Key,
		ExpiresIn: int64(grant.ExpiresIn.Seconds()),
	})
}

// GetImageURL handles GET /get-image-url?key=.
func (h *NarratorHandlers) GetImageURL(w http.ResponseWriter, r *http.Request) {
	dl, err := h.svc.IssueDownloadURL(r.Context(), r.URL.Query().Get("key"))
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, imageURLResponse{
		PresignedURL: dl.URL,
		ExpiresIn:    int64(dl.ExpiresIn.Seconds()),
	})
}

// GenerateSummary handles POST /generate-summary.
func (h *NarratorHandlers) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	var req summaryRequest
	if !h.decode(w, r, &req, false) {
		return
	}

	res, err := h.svc.Summarize(r.Context(), narrator.SummaryRequest{
		ImageURLs: req.ImageURLs,
		ImageKeys: req.ImageKeys,
		Prompt:    req.Prompt,
	})
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{Model: res.Model, Summary: res.Text, Result: res.Text})
}

// GrammarCheck handles POST /grammar-check.
func (h *NarratorHandlers) GrammarCheck(w http.ResponseWriter, r *http.Request) {
	var req grammarRequest
	if !h.decode(w, r, &req, true) {
		return
	}

	res, err := h.svc.CorrectGrammar(r.Context(), req.Text)
	if err != nil {
		respondWithError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grammarResponse{Corrected: res.Text})
}

// decode reads a JSON body into dst and validates it. An empty body is
// accepted only when allowEmpty is set. It writes the error response itself
// and reports whether the handler should continue.
func (h *NarratorHandlers) decode(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if !(allowEmpty && stderrors.Is(err, io.EOF)) {
			respondWithError(w, r, bodyError(err, "request body must be a JSON object"))
			return false
		}
	}

	if req, ok := dst.(*summaryRequest); ok {
		if len(req.ImageURLs) == 0 {
			req.ImageURLs = nil
		}
		if len(req.ImageKeys) == 0 {
			req.ImageKeys = nil
		}
	}

	if err := h.validate.Struct(dst); err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError(validationMessage(err)))
		return false
	}
	return true
}

func bodyError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return apperrors.NewPayloadTooLargeError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return apperrors.NewInvalidInputError(message)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " must not be empty"
	case "url":
		return fe.Field() + " must be a valid URL"
	case "excluded_with":
		return "image_urls and image_keys cannot be combined"
	case "max":
		return fe.Field() + " is too long"
	default:
		return fe.Field() + " is invalid"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
