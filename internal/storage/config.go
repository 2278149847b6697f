package storage

import "time"

// Config configures the S3 store.
type Config struct {
	Bucket        string        `mapstructure:"bucket" validate:"required"`
	UploadPrefix  string        `mapstructure:"upload_prefix"`
	UploadMode    string        `mapstructure:"upload_mode" validate:"omitempty,oneof=post put"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry" validate:"gte=0,lte=15m"`
	// PublicBaseURL replaces https://<bucket>.s3.amazonaws.com in file URLs.
	PublicBaseURL     string `mapstructure:"public_base_url" validate:"omitempty,url"`
	UnknownTypePolicy string `mapstructure:"unknown_type_policy" validate:"omitempty,oneof=default reject"`
	UsePathStyle      bool   `mapstructure:"use_path_style"`
}

func (c Config) expiry() time.Duration {
	if c.PresignExpiry <= 0 || c.PresignExpiry > MaxPresignExpiry {
		return MaxPresignExpiry
	}
	return c.PresignExpiry
}

func (c Config) uploadMode() string {
	if c.UploadMode == UploadModePut {
		return UploadModePut
	}
	return UploadModePost
}
