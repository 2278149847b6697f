package ailink

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/ailink/driver/anthropic"
	"github.com/areaoforigin/narrator/internal/ailink/driver/bedrock"
	"github.com/areaoforigin/narrator/internal/ailink/driver/openai"
	"github.com/areaoforigin/narrator/internal/ailink/prompt"
)

type fakeDriver struct{}

func (fakeDriver) Complete(context.Context, *driver.Request) (*driver.Response, error) {
	return &driver.Response{}, nil
}
func (fakeDriver) Name() string { return "fake" }
func (fakeDriver) Capabilities() driver.Capabilities { return driver.Capabilities{} }

func hinted(model string) *prompt.Prompt {
	return &prompt.Prompt{Config: prompt.Config{ProviderHints: map[string]any{"preferred_models": []any{model}}}}
}

func TestResolveModelUsesOperationOverrideFirst(t *testing.T) {
	reg := NewRegistry(Config{Model: "cfg-model", Models: map[string]string{"grammar": "op-model"}}, aws.Config{}, withDriver(fakeDriver{}))

	resolved, err := reg.Resolve("grammar", hinted("prompt-model"))
	require.NoError(t, err)
	assert.Equal(t, "op-model", resolved.Model)
}

func TestResolveModelFallsBackToPromptPreferredModels(t *testing.T) {
	reg := NewRegistry(Config{Model: "cfg-model"}, aws.Config{}, withDriver(fakeDriver{}))

	resolved, err := reg.Resolve("summary", hinted("prompt-model"))
	require.NoError(t, err)
	assert.Equal(t, "prompt-model", resolved.Model)
}

func TestResolveModelFallsBackToConfiguredThenDefault(t *testing.T) {
	reg := NewRegistry(Config{Model: "cfg-model"}, aws.Config{}, withDriver(fakeDriver{}))
	resolved, err := reg.Resolve("narrative", nil)
	require.NoError(t, err)
	assert.Equal(t, "cfg-model", resolved.Model)

	reg = NewRegistry(Config{}, aws.Config{}, withDriver(fakeDriver{}))
	resolved, err = reg.Resolve("narrative", nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, resolved.Model)
}

func TestResolvePromptMaxTokensWins(t *testing.T) {
	reg := NewRegistry(Config{MaxTokens: 1000}, aws.Config{}, withDriver(fakeDriver{}))
	def := &prompt.Prompt{Config: prompt.Config{MaxTokens: 200}}

	resolved, err := reg.Resolve("summary", def)
	require.NoError(t, err)
	assert.Equal(t, 200, resolved.MaxTokens)

	resolved, err = reg.Resolve("narrative", nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, resolved.MaxTokens)
}

func TestNewDriverSelectsByName(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}

	drv, err := NewDriver(Config{}, awsCfg)
	require.NoError(t, err)
	assert.IsType(t, &bedrock.Client{}, drv)

	drv, err = NewDriver(Config{Driver: "anthropic", Anthropic: AnthropicConfig{APIKey: "k"}}, awsCfg)
	require.NoError(t, err)
	assert.IsType(t, &anthropic.Client{}, drv)

	drv, err = NewDriver(Config{Driver: "anthropic", Anthropic: AnthropicConfig{UseBedrock: true}}, awsCfg)
	require.NoError(t, err)
	assert.Equal(t, "anthropic-bedrock", drv.Name())

	drv, err = NewDriver(Config{Driver: "OpenAI", OpenAI: OpenAIConfig{APIKey: "k"}}, awsCfg)
	require.NoError(t, err)
	assert.IsType(t, &openai.Client{}, drv)
}

func TestNewDriverErrors(t *testing.T) {
	_, err := NewDriver(Config{Driver: "anthropic"}, aws.Config{})
	require.Error(t, err)

	_, err = NewDriver(Config{Driver: "openai"}, aws.Config{})
	require.Error(t, err)

	_, err = NewDriver(Config{Driver: "gemini"}, aws.Config{})
	require.ErrorContains(t, err, "unsupported")
}

func TestRegistryCachesDriver(t *testing.T) {
	reg := NewRegistry(Config{}, aws.Config{Region: "us-east-1"})
	first, err := reg.Resolve("narrative", nil)
	require.NoError(t, err)
	second, err := reg.Resolve("grammar", nil)
	require.NoError(t, err)
	assert.Same(t, first.Driver, second.Driver)
	assert.Equal(t, "bedrock", reg.DriverName())
}

func TestRegistryHealthReflectsDriverConfig(t *testing.T) {
	ctx := context.Background()

	ok := NewRegistry(Config{Model: "cfg-model"}, aws.Config{Region: "us-east-1"})
	require.NoError(t, ok.CheckHealth(ctx))
	assert.Equal(t, "cfg-model", ok.DefaultModel())

	missingKey := NewRegistry(Config{Driver: "openai"}, aws.Config{})
	require.ErrorContains(t, missingKey.CheckHealth(ctx), "api_key")
	assert.Equal(t, DefaultModel, missingKey.DefaultModel())
}
