// Package narrator implements the fire-scene narrative operations: narrative
// generation, upload/download credentials, batch image summaries and grammar
// correction.
package narrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/ailink"
	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/ailink/prompt"
	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/metrics"
	"github.com/areaoforigin/narrator/internal/storage"
)

// Operation names, used for model routing, metrics and logs.
const (
	OpNarrative = "narrative"
	OpUpload    = "upload_url"
	OpDownload  = "image_url"
	OpSummary   = "summary"
	OpGrammar   = "grammar"
)

// ModelResolver picks the driver and model for an operation.
type ModelResolver interface {
	Resolve(operation string, promptDef *prompt.Prompt) (*ailink.Resolved, error)
}

// ImageResolver turns image references into bytes.
type ImageResolver interface {
	Resolve(ctx context.Context, src imagesource.Source) (*imagesource.Image, error)
	ResolveAll(ctx context.Context, sources []imagesource.Source) ([]*imagesource.Image, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Models    ModelResolver
	Prompts   prompt.Registry
	Presigner storage.Presigner
	Images    ImageResolver
	Logger    *logging.Logger
}

// Service holds no per-request state and is safe for concurrent use.
type Service struct {
	models    ModelResolver
	prompts   prompt.Registry
	presigner storage.Presigner
	images    ImageResolver
	logger    *logging.Logger
}

// NewService validates deps and returns a Service.
func NewService(deps Deps) (*Service, error) {
	if deps.Models == nil {
		return nil, errors.New("narrator: model resolver is required")
	}
	if deps.Prompts == nil {
		return nil, errors.New("narrator: prompt registry is required")
	}
	if deps.Presigner == nil {
		return nil, errors.New("narrator: presigner is required")
	}
	if deps.Images == nil {
		return nil, errors.New("narrator: image resolver is required")
	}
	return &Service{
		models:    deps.Models,
		prompts:   deps.Prompts,
		presigner: deps.Presigner,
		images:    deps.Images,
		logger:    deps.Logger,
	}, nil
}

// NarrativeRequest is a prompt with at most one image.
type NarrativeRequest struct {
	Prompt string
	Image  *imagesource.Source
}

// Result is a model answer and the model that produced it.
type Result struct {
	Model string
	Text  string
}

// Narrate sends the prompt (and image, if any) to the model and returns its
// text verbatim.
func (s *Service) Narrate(ctx context.Context, req NarrativeRequest) (res *Result, err error) {
	defer func() { recordOutcome(OpNarrative, err) }()

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, invalid(OpNarrative, "prompt is required")
	}

	blocks := make([]content.ContentBlock, 0, 2)
	if req.Image != nil {
		img, err := s.images.Resolve(ctx, *req.Image)
		if err != nil {
			if req.Image.Kind == imagesource.KindInline {
				// The upload itself is bad; there is no reference to blame.
				return nil, newError(KindInternal, OpNarrative, "uploaded image could not be processed", err)
			}
			return nil, imageError(OpNarrative, err)
		}
		blocks = append(blocks, content.ImageBlock(img.MediaType, img.Data))
	}
	blocks = append(blocks, content.TextBlock(req.Prompt))

	return s.invoke(ctx, OpNarrative, nil, content.UserMessage(blocks...))
}

// IssueUploadGrant issues a write credential for a new key. An empty content
// type means image/jpeg.
func (s *Service) IssueUploadGrant(ctx context.Context, contentType string) (grant *storage.UploadGrant, err error) {
	defer func() { recordOutcome(OpUpload, err) }()

	grant, err = s.presigner.PresignUpload(ctx, contentType)
	metrics.RecordStorageOperation("presign_upload", err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedType) {
			return nil, newError(KindInvalidInput, OpUpload, "content type not accepted", err)
		}
		return nil, newError(KindStorage, OpUpload, "presign upload failed", err)
	}

	if s.logger != nil {
		s.logger.Info("Upload grant issued",
			zap.String("key", grant.Key),
			zap.String("method", grant.Method),
			zap.String("content_type", grant.ContentType))
	}
	return grant, nil
}

// IssueDownloadURL issues a read credential for key without checking that
// the object exists.
func (s *Service) IssueDownloadURL(ctx context.Context, key string) (dl *storage.DownloadURL, err error) {
	defer func() { recordOutcome(OpDownload, err) }()

	if strings.TrimSpace(key) == "" {
		return nil, invalid(OpDownload, "key is required")
	}

	dl, err = s.presigner.PresignDownload(ctx, key)
	metrics.RecordStorageOperation("presign_download", err == nil)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidKey) {
			return nil, newError(KindInvalidInput, OpDownload, "key is invalid", err)
		}
		return nil, newError(KindStorage, OpDownload, "presign download failed", err)
	}
	return dl, nil
}

// SummaryRequest references images either by URL or by storage key.
type SummaryRequest struct {
	ImageURLs []string
	ImageKeys []string
	// Prompt defaults to the summary prompt when blank.
	Prompt string
}

// Summarize resolves every image in order and asks for one summary. Any
// unresolvable image fails the whole request before the model is called.
func (s *Service) Summarize(ctx context.Context, req SummaryRequest) (res *Result, err error) {
	defer func() { recordOutcome(OpSummary, err) }()

	sources, verr := summarySources(req)
	if verr != nil {
		return nil, verr
	}

	def, err := s.prompts.Get(prompt.SlugSummary)
	if err != nil {
		return nil, newError(KindInternal, OpSummary, "summary prompt unavailable", err)
	}
	if limit := def.Config.Input.MaxImages; limit > 0 && len(sources) > limit {
		return nil, invalid(OpSummary, fmt.Sprintf("at most %d images may be summarized at once", limit))
	}

	images, err := s.images.ResolveAll(ctx, sources)
	if err != nil {
		return nil, imageError(OpSummary, err)
	}

	text := req.Prompt
	if strings.TrimSpace(text) == "" {
		text = def.Render(nil)
	}

	blocks := make([]content.ContentBlock, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, content.ImageBlock(img.MediaType, img.Data))
	}
	blocks = append(blocks, content.TextBlock(text))

	return s.invoke(ctx, OpSummary, def, content.UserMessage(blocks...))
}

// CorrectGrammar returns text with grammar, punctuation and clarity
// improved, trimmed of surrounding whitespace.
func (s *Service) CorrectGrammar(ctx context.Context, text string) (res *Result, err error) {
	defer func() { recordOutcome(OpGrammar, err) }()

	def, err := s.prompts.Get(prompt.SlugGrammar)
	if err != nil {
		return nil, newError(KindInternal, OpGrammar, "grammar prompt unavailable", err)
	}

	msg := content.UserMessage(content.TextBlock(def.Render(map[string]string{"text": text})))
	res, err = s.invoke(ctx, OpGrammar, def, msg)
	if err != nil {
		return nil, err
	}
	res.Text = strings.TrimSpace(res.Text)
	return res, nil
}

func (s *Service) invoke(ctx context.Context, op string, def *prompt.Prompt, msg content.Message) (*Result, error) {
	resolved, err := s.models.Resolve(op, def)
	if err != nil {
		return nil, newError(KindModel, op, "model service unavailable", err)
	}

	req := &driver.Request{
		Model:      resolved.Model,
		Messages:   []content.Message{msg},
		PromptSlug: op,
	}
	if resolved.MaxTokens > 0 {
		maxTokens := resolved.MaxTokens
		req.MaxTokens = &maxTokens
	}
	if def != nil && def.Config.Temperature != nil {
		temp := *def.Config.Temperature
		req.Temperature = &temp
	}

	start := time.Now()
	resp, err := resolved.Driver.Complete(ctx, req)
	metrics.RecordModelInvocation(resolved.Driver.Name(), op, err == nil, time.Since(start))
	if err != nil {
		return nil, newError(KindModel, op, "model invocation failed", err)
	}

	text, err := resp.Text()
	if err != nil {
		return nil, newError(KindModel, op, "model returned no text", err)
	}
	return &Result{Model: resolved.Model, Text: text}, nil
}

// recordOutcome counts one operation and, on failure, its error kind.
func recordOutcome(op string, err error) {
	metrics.RecordOperation(op, err == nil)
	if err != nil {
		metrics.RecordOperationError(op, KindOf(err).String())
	}
}

func summarySources(req SummaryRequest) ([]imagesource.Source, *Error) {
	switch {
	case len(req.ImageURLs) > 0 && len(req.ImageKeys) > 0:
		return nil, invalid(OpSummary, "image_urls and image_keys cannot be combined")
	case len(req.ImageURLs) == 0 && len(req.ImageKeys) == 0:
		return nil, invalid(OpSummary, "no image references provided")
	}

	sources := make([]imagesource.Source, 0, len(req.ImageURLs)+len(req.ImageKeys))
	for i, u := range req.ImageURLs {
		if strings.TrimSpace(u) == "" {
			return nil, invalid(OpSummary, fmt.Sprintf("image_urls[%d] is empty", i))
		}
		sources = append(sources, imagesource.RemoteURL(u))
	}
	for i, k := range req.ImageKeys {
		if strings.TrimSpace(k) == "" {
			return nil, invalid(OpSummary, fmt.Sprintf("image_keys[%d] is empty", i))
		}
		sources = append(sources, imagesource.StorageKey(k))
	}
	return sources, nil
}

func imageError(op string, err error) *Error {
	switch {
	case errors.Is(err, imagesource.ErrUnresolvable):
		return newError(KindUnresolvable, op, "image could not be retrieved", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newError(KindInternal, op, "request cancelled", err)
	default:
		return newError(KindStorage, op, "image read failed", err)
	}
}
