package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
)

// ConverseAPI is the subset of the Bedrock runtime client used by the driver.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client implements the Bedrock Converse driver.
type Client struct {
	API     ConverseAPI
	Timeout time.Duration
}

// NewClient wraps an existing Converse API implementation.
func NewClient(api ConverseAPI) *Client {
	return &Client{API: api}
}

// NewFromConfig builds a driver from a resolved AWS config.
func NewFromConfig(cfg aws.Config, optFns ...func(*bedrockruntime.Options)) *Client {
	return NewClient(bedrockruntime.NewFromConfig(cfg, optFns...))
}

// Name returns the driver identifier.
func (c *Client) Name() string {
	return "bedrock"
}

// Capabilities describes supported features.
func (c *Client) Capabilities() driver.Capabilities {
	return driver.Capabilities{
		SupportsImages:    true,
		SupportsStreaming: false,
		ImageFormats:      []string{"png", "jpeg", "gif", "webp"},
	}
}

// Complete sends one Converse request.
func (c *Client) Complete(ctx context.Context, req *driver.Request) (*driver.Response, error) {
	if c == nil || c.API == nil {
		return nil, fmt.Errorf("bedrock client not configured")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	input, err := buildConverseInput(req)
	if err != nil {
		return nil, err
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	out, err := c.API.Converse(ctx, input)
	if err != nil {
		return nil, wrapError(err)
	}

	return toDriverResponse(req.Model, out)
}

func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	perr := &driver.ProviderError{Provider: "bedrock", Message: err.Error(), Err: err}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		perr.Code = apiErr.ErrorCode()
		perr.Message = strings.TrimSpace(apiErr.ErrorMessage())
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		perr.StatusCode = respErr.HTTPStatusCode()
	}

	return perr
}
