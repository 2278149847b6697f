package config

import (
	"time"

	"github.com/areaoforigin/narrator/internal/ailink"
	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/storage"
)

// Config is the complete application configuration. Values come from, in
// increasing precedence: built-in defaults, the config file, NARRATOR_*
// environment variables and command-line flags.
type Config struct {
	Server  ServerConfig       `mapstructure:"server"`
	Logging LoggingConfig      `mapstructure:"logging"`
	Metrics MetricsConfig      `mapstructure:"metrics"`
	AWS     AWSConfig          `mapstructure:"aws"`
	AILink  ailink.Config      `mapstructure:"ailink"`
	Storage storage.Config     `mapstructure:"storage"`
	Images  imagesource.Config `mapstructure:"images"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"gte=0,lte=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxUploadBytes bounds request bodies, including the narrative image.
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gte=0"`
}

// LoggingConfig contains logging configuration
// Supports progressive logging profiles per Fulmen Forge Workhorse Standard:
// - SIMPLE: Console output only, minimal configuration (CLI tools)
// - STRUCTURED: Structured sinks, correlation IDs (API services)
type LoggingConfig struct {
	// Valid values: trace, debug, info, warn, error
	Level   string `mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// AWSConfig selects the region and credentials shared by the model and
// storage clients.
type AWSConfig struct {
	Region  string `mapstructure:"region" validate:"required"`
	Profile string `mapstructure:"profile"`
	// Endpoint points S3 at a compatible service such as localstack.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`
}
