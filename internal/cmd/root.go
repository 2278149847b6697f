package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/appidentity"
	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/appid"
	"github.com/areaoforigin/narrator/internal/config"
	"github.com/areaoforigin/narrator/internal/observability"
)

var (
	cfgFile   string
	verbose   bool
	traceFile string

	// App identity loaded from .fulmen/app.yaml
	appIdentity *appidentity.Identity

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// GetAppIdentity returns the loaded app identity (only valid after initConfig)
func GetAppIdentity() *appidentity.Identity {
	return appIdentity
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	// NOTE: initConfig() overwrites these from app identity.
	Use:   filepath.Base(os.Args[0]),
	Short: "Fire scene narrative and image summary service",
	Long: `Serves narrative generation, image upload credentials, batch image
summaries and grammar correction backed by a hosted multimodal model and S3.

Use the subcommands to perform specific operations.`,
	// Exit reports the error once, with its exit code.
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Config loading runs before serve installs the Prometheus exporter;
	// keep gofulmen's own metrics off stdout until then.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	// Help text is rendered before OnInitialize runs.
	if identity, err := appid.Get(context.Background()); err == nil {
		applyIdentity(identity)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults to app identity config path)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "append every model request and response to this NDJSON file")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if closeTrace == nil {
			return nil
		}
		return closeTrace()
	}
}

// closeTrace flushes the --trace file once a command finishes.
var closeTrace func() error

// applyIdentity renames the root command after the resolved identity.
func applyIdentity(identity *appidentity.Identity) {
	if identity == nil {
		return
	}
	appIdentity = identity
	if identity.BinaryName != "" {
		rootCmd.Use = identity.BinaryName
	}
	if identity.Description != "" {
		rootCmd.Short = identity.Description
		rootCmd.Long = fmt.Sprintf("%s - %s\n\nUse the subcommands to perform specific operations.", identity.BinaryName, identity.Description)
	}
	if f := rootCmd.PersistentFlags().Lookup("config"); f != nil && identity.ConfigName != "" {
		f.Usage = fmt.Sprintf("config file (default is $XDG_CONFIG_HOME/%s/config.yaml)", identity.ConfigName)
	}
}

func initConfig() {
	identity, err := appid.Get(context.Background())
	if err != nil {
		ExitWithCodeStderr(foundry.ExitFileNotFound, "Failed to load app identity", err)
	}
	applyIdentity(identity)

	if err := observability.InitCLILogger(identity.BinaryName, verbose); err != nil {
		ExitWithCodeStderr(foundry.ExitLoggingFailed, "Failed to initialize CLI logger", err)
	}
	log := observability.CLILogger

	if traceFile != "" {
		cleanup, err := driver.EnableTracing(traceFile)
		if err != nil {
			log.Warn("Model call tracing disabled", zap.String("file", traceFile), zap.Error(err))
		} else {
			closeTrace = cleanup
			log.Debug("Tracing model calls", zap.String("file", traceFile))
		}
	}

	if err := configureViper(viper.GetViper(), identity, cfgFile); err != nil {
		ExitWithCode(log, foundry.ExitFileNotFound, "Could not find home directory", err)
	}

	switch err := viper.ReadInConfig(); {
	case err == nil:
		log.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
	case isConfigNotFound(err):
		log.Debug("No config file found, using defaults and environment variables")
	default:
		log.Warn("Error reading config file", zap.String("path", viper.ConfigFileUsed()), zap.Error(err))
	}

	config.SetDefaults(viper.GetViper())
}

// configureViper points v at the config file and the identity's env prefix:
// storage.bucket is read from NARRATOR_STORAGE_BUCKET. Without an explicit
// file it searches the XDG config dir (or ~/.<config_name>) and ./config.
func configureViper(v *viper.Viper, identity *appidentity.Identity, file string) error {
	v.SetEnvPrefix(strings.TrimSuffix(identity.EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		return nil
	}

	v.SetConfigType("yaml")
	if dir := gfconfig.GetAppConfigDir(identity.ConfigName); dir != "" {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(home)
		v.SetConfigName("." + identity.ConfigName)
	}
	v.AddConfigPath("./config")
	return nil
}

func isConfigNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound)
}
