// Package config decodes layered viper settings into the typed application
// configuration and validates it.
package config

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/areaoforigin/narrator/internal/appid"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// EnvVarSpec defines environment variable mappings for config fields
// following the pattern: {PREFIX}{NAME} maps to config path
type EnvVarSpec = gfconfig.EnvVarSpec

// Environment variable types
const (
	EnvString = gfconfig.EnvString
	EnvInt    = gfconfig.EnvInt
	EnvBool   = gfconfig.EnvBool
)

// SetDefaults registers the built-in value of every config key on v.
// Registering every key also lets AutomaticEnv resolve nested keys.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_upload_bytes", 20<<20)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)

	// AWS defaults
	v.SetDefault("aws.region", "us-east-1")
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.endpoint", "")

	// Model service defaults
	v.SetDefault("ailink.driver", "bedrock")
	v.SetDefault("ailink.model", "us.anthropic.claude-3-5-sonnet-20241022-v2:0")
	v.SetDefault("ailink.max_tokens", 4096)
	v.SetDefault("ailink.timeout", "0s")
	v.SetDefault("ailink.prompts_dir", "")
	v.SetDefault("ailink.models", map[string]string{})
	v.SetDefault("ailink.anthropic.api_key", "")
	v.SetDefault("ailink.anthropic.base_url", "")
	v.SetDefault("ailink.anthropic.use_bedrock", false)
	v.SetDefault("ailink.openai.api_key", "")
	v.SetDefault("ailink.openai.base_url", "")

	// Storage defaults
	v.SetDefault("storage.bucket", "area-of-origin-images")
	v.SetDefault("storage.upload_prefix", "uploads/")
	v.SetDefault("storage.upload_mode", "post")
	v.SetDefault("storage.presign_expiry", "15m")
	v.SetDefault("storage.public_base_url", "")
	v.SetDefault("storage.unknown_type_policy", "default")
	v.SetDefault("storage.use_path_style", false)

	// Image resolution defaults
	v.SetDefault("images.max_bytes", 10<<20)
	v.SetDefault("images.fetch_timeout", "0s")
	v.SetDefault("images.allow_private_networks", false)
	v.SetDefault("images.max_dimension", 0)
}

// Load decodes the settings held by v into a validated Config and makes it
// the current configuration. It is safe to call again on reload.
func Load(ctx context.Context, v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.GetViper()
	}

	envOverrides, err := gfconfig.LoadEnvOverrides(getEnvSpecs(appid.EnvPrefix(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	settings := v.AllSettings()
	mergeSettings(settings, envOverrides)

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	setConfig(cfg)
	return cfg, nil
}

// Validate checks cfg against its validate tags.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		key = strings.TrimPrefix(key, ".")
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s: failed %s=%s", key, fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s: failed %s", key, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// getEnvSpecs returns the short environment aliases. Every other key is
// reachable as {PREFIX}{SECTION}_{KEY} through viper.
func getEnvSpecs(prefix string) []EnvVarSpec {
	if !strings.HasSuffix(prefix, "_") {
		prefix += "_"
	}

	return []EnvVarSpec{
		// Server config
		{Name: prefix + "HOST", Path: []string{"server", "host"}, Type: EnvString},
		{Name: prefix + "PORT", Path: []string{"server", "port"}, Type: EnvInt},

		// Logging config (REQUIRED per Workhorse Standard)
		{Name: prefix + "LOG_LEVEL", Path: []string{"logging", "level"}, Type: EnvString},
		{Name: prefix + "LOG_PROFILE", Path: []string{"logging", "profile"}, Type: EnvString},

		// Collaborators
		{Name: prefix + "REGION", Path: []string{"aws", "region"}, Type: EnvString},
		{Name: prefix + "BUCKET", Path: []string{"storage", "bucket"}, Type: EnvString},
		{Name: prefix + "MODEL", Path: []string{"ailink", "model"}, Type: EnvString},
		{Name: prefix + "DRIVER", Path: []string{"ailink", "driver"}, Type: EnvString},
	}
}

// mergeSettings copies src into dst, descending into nested maps.
func mergeSettings(dst, src map[string]any) {
	for key, value := range src {
		nested, ok := value.(map[string]any)
		if !ok {
			dst[key] = value
			continue
		}
		existing, ok := dst[key].(map[string]any)
		if !ok {
			existing = map[string]any{}
			dst[key] = existing
		}
		mergeSettings(existing, nested)
	}
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath(ctx context.Context) string {
	configDir := gfconfig.GetAppConfigDir(configName(ctx))
	if strings.TrimSpace(configDir) == "" {
		return ""
	}
	return filepath.Join(configDir, "config.yaml")
}

func configName(ctx context.Context) string {
	identity, err := appid.Get(ctx)
	if err != nil || identity == nil {
		return "narrator"
	}
	if strings.TrimSpace(identity.ConfigName) != "" {
		return identity.ConfigName
	}
	if strings.TrimSpace(identity.BinaryName) != "" {
		return identity.BinaryName
	}
	return "narrator"
}
