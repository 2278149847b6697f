package ailink

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/fulmenhq/gofulmen/logging"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/ailink/driver/anthropic"
	"github.com/areaoforigin/narrator/internal/ailink/driver/bedrock"
	"github.com/areaoforigin/narrator/internal/ailink/driver/openai"
	"github.com/areaoforigin/narrator/internal/ailink/prompt"
)

// Registry builds the configured driver once and resolves the model per
// operation.
type Registry struct {
	cfg    Config
	awsCfg aws.Config
	logger *logging.Logger

	mu  sync.Mutex
	drv driver.Driver
}

// Resolved is the driver and model chosen for one operation.
type Resolved struct {
	Driver    driver.Driver
	Model     string
	MaxTokens int
}

// Option customizes a Registry.
type Option func(*Registry)

// WithLogger wraps the resolved driver with call logging.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// withDriver installs a prebuilt driver, bypassing construction from config.
func withDriver(drv driver.Driver) Option {
	return func(r *Registry) { r.drv = drv }
}

// NewRegistry returns a registry for cfg. awsCfg is used by the bedrock
// driver and by the anthropic driver when routed through Bedrock.
func NewRegistry(cfg Config, awsCfg aws.Config, opts ...Option) *Registry {
	r := &Registry{cfg: cfg, awsCfg: awsCfg}
	for _, opt := range opts {
		opt(r)
	}
	if r.drv != nil && r.logger != nil {
		r.drv = driver.WithLogging(r.drv, r.logger)
	}
	return r
}

// Resolve returns the driver and model for an operation. promptDef may be nil.
func (r *Registry) Resolve(operation string, promptDef *prompt.Prompt) (*Resolved, error) {
	if r == nil {
		return nil, fmt.Errorf("ailink registry not configured")
	}

	drv, err := r.driver()
	if err != nil {
		return nil, err
	}

	maxTokens := r.cfg.MaxTokens
	if promptDef != nil && promptDef.Config.MaxTokens > 0 {
		maxTokens = promptDef.Config.MaxTokens
	}

	return &Resolved{
		Driver:    drv,
		Model:     r.resolveModel(operation, promptDef),
		MaxTokens: maxTokens,
	}, nil
}

// DriverName reports the configured driver identifier.
func (r *Registry) DriverName() string {
	if r == nil {
		return ""
	}
	name := strings.ToLower(strings.TrimSpace(r.cfg.Driver))
	if name == "" {
		return DriverBedrock
	}
	return name
}

// DefaultModel is the model used by operations with no override or prompt
// preference.
func (r *Registry) DefaultModel() string {
	return r.resolveModel("", nil)
}

// CheckHealth reports whether the configured driver can be built. It makes
// no model call.
func (r *Registry) CheckHealth(_ context.Context) error {
	_, err := r.driver()
	return err
}

func (r *Registry) driver() (driver.Driver, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.drv != nil {
		return r.drv, nil
	}

	drv, err := NewDriver(r.cfg, r.awsCfg)
	if err != nil {
		return nil, err
	}
	if r.logger != nil {
		drv = driver.WithLogging(drv, r.logger)
	}
	r.drv = drv
	return drv, nil
}

// NewDriver constructs the driver named by cfg.Driver. API-key drivers use
// the SDK's default HTTP client.
func NewDriver(cfg Config, awsCfg aws.Config) (driver.Driver, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch name {
	case "", DriverBedrock:
		client := bedrock.NewFromConfig(awsCfg)
		client.Timeout = cfg.Timeout
		return client, nil
	case DriverAnthropic:
		var client *anthropic.Client
		if cfg.Anthropic.UseBedrock {
			client = anthropic.NewOverBedrock(awsCfg)
		} else {
			if strings.TrimSpace(cfg.Anthropic.APIKey) == "" {
				return nil, fmt.Errorf("ailink.anthropic.api_key is required unless use_bedrock is set")
			}
			client = anthropic.NewWithAPIKey(cfg.Anthropic.BaseURL, cfg.Anthropic.APIKey, nil)
		}
		client.Timeout = cfg.Timeout
		if cfg.MaxTokens > 0 {
			client.MaxTokens = cfg.MaxTokens
		}
		return client, nil
	case DriverOpenAI:
		if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
			return nil, fmt.Errorf("ailink.openai.api_key is required")
		}
		client := openai.NewClient(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, nil)
		client.Timeout = cfg.Timeout
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported ailink driver %q", name)
	}
}

func (r *Registry) resolveModel(operation string, promptDef *prompt.Prompt) string {
	if model := strings.TrimSpace(r.cfg.Models[strings.TrimSpace(operation)]); model != "" {
		return model
	}
	if model := promptDef.PreferredModel(); model != "" {
		return model
	}
	if model := strings.TrimSpace(r.cfg.Model); model != "" {
		return model
	}
	return DefaultModel
}
