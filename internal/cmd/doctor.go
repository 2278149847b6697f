package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/config"
	errwrap "github.com/areaoforigin/narrator/internal/errors"
	"github.com/areaoforigin/narrator/internal/observability"
	"github.com/areaoforigin/narrator/internal/output"
	"github.com/areaoforigin/narrator/internal/storage"
)

// doctorCallTimeout bounds each AWS call.
const doctorCallTimeout = 10 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the local setup and the AWS collaborators.

The checks load configuration, resolve AWS credentials, confirm the image
bucket is reachable and confirm a model driver can be built. No model calls
are made.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			cfg    *config.Config
			awsCfg aws.Config
			awsErr error
		)

		checks := []check{
			{name: "go runtime", advisory: true, run: func(context.Context) (string, error) {
				v := runtime.Version()
				if v < "go1.23" {
					return "", fmt.Errorf("%s is older than go1.23", v)
				}
				return v, nil
			}},
			{name: "fulmen libraries", advisory: true, run: func(context.Context) (string, error) {
				v := crucible.GetVersion()
				if v.Crucible == "" || v.Gofulmen == "" {
					return "", errors.New("version metadata unavailable")
				}
				return fmt.Sprintf("gofulmen %s, crucible %s", v.Gofulmen, v.Crucible), nil
			}},
			{name: "config directory", advisory: true, run: func(ctx context.Context) (string, error) {
				path := config.DefaultConfigPath(ctx)
				if path == "" {
					return "", errors.New("cannot resolve config directory")
				}
				return fmt.Sprintf("%s (%s)", path, existenceStatus(fileExists(path))), nil
			}},
			{name: "configuration", run: func(ctx context.Context) (string, error) {
				loaded, err := loadConfig(ctx)
				if err != nil {
					return "", err
				}
				cfg = loaded
				return configFileLabel(), nil
			}},
			{name: "aws credentials", run: func(ctx context.Context) (string, error) {
				if cfg == nil {
					awsErr = skipped("configuration invalid")
					return "", awsErr
				}
				awsCfg, awsErr = loadAWSConfig(ctx, cfg.AWS)
				if awsErr == nil {
					awsErr = withTimeout(ctx, func(ctx context.Context) error {
						if awsCfg.Credentials == nil {
							return errors.New("no credential provider configured")
						}
						_, err := awsCfg.Credentials.Retrieve(ctx)
						return err
					})
				}
				if awsErr != nil {
					return "", awsErr
				}
				return cfg.AWS.Region + profileSuffix(cfg.AWS.Profile), nil
			}},
			{name: "image bucket", run: func(ctx context.Context) (string, error) {
				if awsErr != nil {
					return "", skipped("no AWS credentials")
				}
				store, err := storage.NewS3Store(awsCfg, cfg.Storage, cfg.AWS.Endpoint)
				if err != nil {
					return "", err
				}
				if err := withTimeout(ctx, store.HeadBucket); err != nil {
					return "", fmt.Errorf("%s: %w", store.Bucket(), err)
				}
				return fmt.Sprintf("%s (%s uploads)", store.Bucket(), cfg.Storage.UploadMode), nil
			}},
		}
		checks = append(checks, offlineChecks(&cfg, func(*config.Config) aws.Config { return awsCfg })...)

		results, passed := runChecks(cmd.Context(), checks)
		if err := emit(cmd, checksTable(doctorTitle(), results), ""); err != nil {
			return err
		}
		if cfg == nil {
			return errwrap.NewConfigInvalidError("configuration invalid")
		}
		if !passed {
			return errwrap.NewInternalError("some diagnostic checks failed").WithExitCode(foundry.ExitHealthCheckFailed)
		}
		return nil
	},
}

func doctorTitle() string {
	if identity := GetAppIdentity(); identity != nil && identity.BinaryName != "" {
		return identity.BinaryName + " doctor"
	}
	return "doctor"
}

func profileSuffix(profile string) string {
	if profile == "" {
		return ""
	}
	return " (profile " + profile + ")"
}

var (
	doctorInitForce  bool
	doctorInitBucket string
	doctorInitRegion string
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath(cmd.Context())
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(doctorInitRegion, doctorInitBucket)), 0644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration paths and effective settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context())
		if err != nil {
			return err
		}

		configPath := config.DefaultConfigPath(cmd.Context())
		prefix := "NARRATOR_"
		if identity := GetAppIdentity(); identity != nil && identity.EnvPrefix != "" {
			prefix = identity.EnvPrefix
		}

		table := &output.Table{
			Title:  "Effective configuration",
			Header: []string{"Setting", "Value"},
			Rows: [][]string{
				{"config file", configFileLabel()},
				{"default config path", fmt.Sprintf("%s (%s)", configPath, existenceStatus(fileExists(configPath)))},
				{"server", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)},
				{"max upload", formatFileSize(cfg.Server.MaxUploadBytes)},
				{"aws.region", cfg.AWS.Region},
				{"aws.profile", valueOrDash(cfg.AWS.Profile)},
				{"aws.endpoint", valueOrDash(cfg.AWS.Endpoint)},
				{"storage.bucket", cfg.Storage.Bucket},
				{"storage.upload_prefix", cfg.Storage.UploadPrefix},
				{"storage.upload_mode", cfg.Storage.UploadMode},
				{"storage.presign_expiry", cfg.Storage.PresignExpiry.String()},
				{"ailink.driver", cfg.AILink.Driver},
				{"ailink.model", cfg.AILink.Model},
				{"ailink.timeout", cfg.AILink.Timeout.String()},
				{"ailink.prompts_dir", valueOrDash(cfg.AILink.PromptsDir)},
				{"images.max_bytes", formatFileSize(cfg.Images.MaxBytes)},
				{"images.allow_private_networks", strconv.FormatBool(cfg.Images.AllowPrivateNetworks)},
				{prefix + "AILINK_ANTHROPIC_API_KEY", envStatus(prefix + "AILINK_ANTHROPIC_API_KEY")},
				{prefix + "AILINK_OPENAI_API_KEY", envStatus(prefix + "AILINK_OPENAI_API_KEY")},
			},
		}

		return emit(cmd, table, "")
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd.Context()); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("file", configFileLabel()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitBucket, "bucket", "area-of-origin-images", "image bucket name")
	doctorInitCmd.Flags().StringVar(&doctorInitRegion, "region", "us-east-1", "AWS region")

	addOutputFlags(doctorCmd, "table")
	addOutputFlags(doctorConfigCmd, "table")
}

// withTimeout runs fn bounded by the doctor timeout.
func withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, doctorCallTimeout)
	defer cancel()
	return fn(ctx)
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func buildInitConfig(region, bucket string) string {
	lines := []string{
		"# narrator config - created by 'narrator doctor init'",
		"server:",
		"  host: localhost",
		"  port: 8080",
		"aws:",
		fmt.Sprintf("  region: %s", region),
		"storage:",
		fmt.Sprintf("  bucket: %s", bucket),
		"  upload_prefix: uploads/",
		"  upload_mode: post",
		"  presign_expiry: 15m",
		"ailink:",
		"  driver: bedrock",
		"  model: us.anthropic.claude-3-5-sonnet-20241022-v2:0",
		"  # models:",
		"  #   grammar: us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	return strings.Join(lines, "\n") + "\n"
}

func configFileLabel() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return "(defaults and environment only)"
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
