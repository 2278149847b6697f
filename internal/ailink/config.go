package ailink

import "time"

// Driver identifiers accepted in Config.Driver.
const (
	DriverBedrock   = "bedrock"
	DriverAnthropic = "anthropic"
	DriverOpenAI    = "openai"
)

// DefaultModel is the Bedrock inference profile used when none is configured.
const DefaultModel = "us.anthropic.claude-3-5-sonnet-20241022-v2:0"

// Config defines model-service configuration.
//
// It is self-contained so the ailink subtree can be decoded independently of
// the rest of the application config.
type Config struct {
	Driver    string        `mapstructure:"driver" validate:"omitempty,oneof=bedrock anthropic openai"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens" validate:"gte=0"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gte=0"`

	// PromptsDir overrides built-in prompts by slug.
	PromptsDir string `mapstructure:"prompts_dir"`

	// Models maps an operation (narrative, summary, grammar) to a model id
	// that takes precedence over prompt hints and Model.
	Models map[string]string `mapstructure:"models"`

	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
}

// AnthropicConfig configures the Anthropic Messages driver.
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
	// UseBedrock routes Messages calls through Bedrock with the AWS config
	// instead of an API key.
	UseBedrock bool `mapstructure:"use_bedrock"`
}

// OpenAIConfig configures the OpenAI Responses driver.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url" validate:"omitempty,url"`
}
