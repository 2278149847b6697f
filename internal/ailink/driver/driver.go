package driver

import (
	"context"
	"errors"

	"github.com/areaoforigin/narrator/internal/ailink/content"
)

// Driver defines the interface for multimodal completion providers.
type Driver interface {
	// Complete sends a single converse-style request and returns the response.
	Complete(ctx context.Context, req *Request) (*Response, error)
	// Name returns the driver identifier (e.g., "bedrock").
	Name() string
	// Capabilities returns what this driver supports.
	Capabilities() Capabilities
}

// Capabilities describes driver features.
type Capabilities struct {
	SupportsImages    bool
	SupportsStreaming bool
	ImageFormats      []string
}

// Usage contains token usage statistics.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is a provider-agnostic completion request.
type Request struct {
	Model       string
	Messages    []content.Message
	Temperature *float64
	MaxTokens   *int
	// PromptSlug names the operation for logs and traces.
	PromptSlug string
}

// Response is a provider-agnostic completion response.
type Response struct {
	Model        string
	Content      []content.ContentBlock
	FinishReason string
	Usage        *Usage
}

// ErrNoText is returned when a response carries no text block.
var ErrNoText = errors.New("model response contained no text")

// Text returns the first text block of the response.
func (r *Response) Text() (string, error) {
	if r == nil {
		return "", ErrNoText
	}
	for _, block := range r.Content {
		if block.Type == content.ContentTypeText {
			return block.Text, nil
		}
	}
	return "", ErrNoText
}

// ImageCount returns the total number of image blocks across messages.
func (r *Request) ImageCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, msg := range r.Messages {
		n += msg.ImageCount()
	}
	return n
}

// Validate checks the request shape before it is sent to a provider.
func (r *Request) Validate() error {
	if r == nil {
		return errors.New("request is required")
	}
	if r.Model == "" {
		return errors.New("model is required")
	}
	if len(r.Messages) == 0 {
		return content.ErrEmptyMessage
	}
	for _, msg := range r.Messages {
		if err := msg.Validate(); err != nil {
			return err
		}
	}
	return nil
}
