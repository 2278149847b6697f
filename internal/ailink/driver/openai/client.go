package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client implements the OpenAI driver over the Responses API.
type Client struct {
	responses *responses.ResponseService
	BaseURL   string
	apiKey    string
	Timeout   time.Duration
}

// NewClient returns a client with defaults applied. httpClient may be nil.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	url := strings.TrimSpace(baseURL)
	if url == "" {
		url = defaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithBaseURL(url),
		option.WithMaxRetries(0),
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	client := sdk.NewClient(opts...)
	return &Client{responses: &client.Responses, BaseURL: url, apiKey: strings.TrimSpace(apiKey)}
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "openai"
}

// Capabilities describes supported features.
func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		SupportsImages:    true,
		SupportsStreaming: false,
		ImageFormats:      []string{"png", "jpeg", "gif", "webp"},
	}
}

// Complete sends one Responses API request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil || c.responses == nil {
		return nil, fmt.Errorf("openai client not configured")
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params, err := buildResponseParams(req)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, c.Timeout)
	if cancel != nil {
		defer cancel()
	}

	resp, err := c.responses.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	return toDriverResponse(req.Model, resp), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, nil
	}
	return context.WithTimeout(ctx, timeout)
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	perr := &driver.ProviderError{Provider: "openai", Message: err.Error(), Err: err}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		perr.StatusCode = apiErr.StatusCode
		perr.Code = apiErr.Code
		if msg := strings.TrimSpace(apiErr.Message); msg != "" {
			perr.Message = msg
		}
	}
	return perr
}
