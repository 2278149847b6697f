package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
)

// DefaultMaxTokens is sent when a request does not set MaxTokens; the
// Messages API requires the field.
const DefaultMaxTokens = 4096

// Client implements the Anthropic Messages driver, either against the
// Anthropic API directly or routed through Bedrock.
type Client struct {
	messages  *sdk.MessageService
	name      string
	MaxTokens int
	Timeout   time.Duration
}

// NewClient builds a driver from raw SDK options.
func NewClient(opts ...option.RequestOption) *Client {
	client := sdk.NewClient(opts...)
	return &Client{messages: &client.Messages, name: "anthropic", MaxTokens: DefaultMaxTokens}
}

// NewWithAPIKey targets the Anthropic API (or a compatible gateway at baseURL).
func NewWithAPIKey(baseURL, apiKey string, httpClient *http.Client) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(apiKey)),
		option.WithMaxRetries(0),
	}
	if url := strings.TrimSpace(baseURL); url != "" {
		opts = append(opts, option.WithBaseURL(url))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return NewClient(opts...)
}

// NewOverBedrock routes Messages calls through Bedrock using the shared AWS
// config. Model ids must then be Bedrock model ids.
func NewOverBedrock(cfg aws.Config) *Client {
	c := NewClient(bedrock.WithConfig(cfg), option.WithMaxRetries(0))
	c.name = "anthropic-bedrock"
	return c
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	if c == nil || c.name == "" {
		return "anthropic"
	}
	return c.name
}

// Capabilities describes supported features.
func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		SupportsImages: true,
		ImageFormats:   []string{"png", "jpeg", "gif", "webp"},
	}
}

// Complete sends one Messages API request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil || c.messages == nil {
		return nil, fmt.Errorf("anthropic client not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	params, err := buildMessageParams(req, c.MaxTokens)
	if err != nil {
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	msg, err := c.messages.New(ctx, params)
	if err != nil {
		return nil, c.wrapError(err)
	}

	return toDriverResponse(msg), nil
}

func (c *Client) wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	perr := &driver.ProviderError{Provider: c.Name(), Message: err.Error(), Err: err}
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		perr.StatusCode = apiErr.StatusCode
		if raw := strings.TrimSpace(apiErr.RawJSON()); raw != "" {
			perr.Message = raw
		}
	}
	return perr
}
