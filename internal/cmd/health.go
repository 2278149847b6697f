package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"

	"github.com/areaoforigin/narrator/internal/ailink"
	"github.com/areaoforigin/narrator/internal/ailink/prompt"
	"github.com/areaoforigin/narrator/internal/config"
	errwrap "github.com/areaoforigin/narrator/internal/errors"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the service could start",
	Long: `Check the build metadata, configuration, prompts and model driver settings.
Nothing leaves the machine; use doctor to reach AWS.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg *config.Config
		checks := append([]check{
			{name: "version", run: func(context.Context) (string, error) {
				if versionInfo.Version == "" {
					return "", errors.New("version information missing")
				}
				return versionInfo.Version, nil
			}},
			{name: "configuration", run: func(ctx context.Context) (string, error) {
				loaded, err := loadConfig(ctx)
				if err != nil {
					return "", err
				}
				cfg = loaded
				return configFileLabel(), nil
			}},
		}, offlineChecks(&cfg, func(*config.Config) aws.Config { return aws.Config{} })...)

		results, passed := runChecks(cmd.Context(), checks)
		if err := emit(cmd, checksTable("health", results), ""); err != nil {
			return err
		}
		if !passed {
			return errwrap.NewConfigInvalidError("health check failed").WithExitCode(foundry.ExitHealthCheckFailed)
		}
		return nil
	},
}

// offlineChecks validate what the loaded config points at without network
// calls. awsCfg supplies the AWS settings the model driver is built with.
func offlineChecks(cfg **config.Config, awsCfg func(*config.Config) aws.Config) []check {
	return []check{
		{name: "prompts", run: func(context.Context) (string, error) {
			if *cfg == nil {
				return "", skipped("configuration invalid")
			}
			set, err := prompt.LoadWithOverrides((*cfg).AILink.PromptsDir)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%d loaded", len(set.List())), nil
		}},
		{name: "model driver", run: func(ctx context.Context) (string, error) {
			if *cfg == nil {
				return "", skipped("configuration invalid")
			}
			reg := ailink.NewRegistry((*cfg).AILink, awsCfg(*cfg))
			if err := reg.CheckHealth(ctx); err != nil {
				return "", err
			}
			return fmt.Sprintf("%s (%s)", reg.DriverName(), reg.DefaultModel()), nil
		}},
	}
}

func init() {
	rootCmd.AddCommand(healthCmd)
	addOutputFlags(healthCmd, "table")
}
