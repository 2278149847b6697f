package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/fulmenhq/gofulmen/logging"
	"github.com/spf13/viper"

	"github.com/areaoforigin/narrator/internal/ailink"
	"github.com/areaoforigin/narrator/internal/ailink/prompt"
	"github.com/areaoforigin/narrator/internal/config"
	"github.com/areaoforigin/narrator/internal/imagesource"
	"github.com/areaoforigin/narrator/internal/narrator"
	"github.com/areaoforigin/narrator/internal/storage"
)

// application is the wired object graph shared by serve and the one-shot
// commands.
type application struct {
	cfg     *config.Config
	awsCfg  aws.Config
	store   *storage.S3Store
	models  *ailink.Registry
	prompts *prompt.Set
	service *narrator.Service
}

func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, viper.GetViper())
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAWSConfig resolves credentials through the default chain. The SDK
// retryer is disabled so each call is a single round trip.
func loadAWSConfig(ctx context.Context, cfg config.AWSConfig) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if cfg.Profile != "" {
		opts = append(opts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return awsCfg, nil
}

// bootstrap builds the service from configuration. logger receives model
// call logs and may be nil.
func bootstrap(ctx context.Context, logger *logging.Logger) (*application, error) {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return nil, err
	}

	awsCfg, err := loadAWSConfig(ctx, cfg.AWS)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewS3Store(awsCfg, cfg.Storage, cfg.AWS.Endpoint)
	if err != nil {
		return nil, err
	}

	prompts, err := prompt.LoadWithOverrides(cfg.AILink.PromptsDir)
	if err != nil {
		return nil, fmt.Errorf("load prompts: %w", err)
	}

	var registryOpts []ailink.Option
	if logger != nil {
		registryOpts = append(registryOpts, ailink.WithLogger(logger))
	}
	models := ailink.NewRegistry(cfg.AILink, awsCfg, registryOpts...)
	imageClient := imagesource.NewHTTPClient(cfg.Images)

	service, err := narrator.NewService(narrator.Deps{
		Models:    models,
		Prompts:   prompts,
		Presigner: store,
		Images:    imagesource.NewResolver(cfg.Images, store, imagesource.WithHTTPClient(imageClient)),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	return &application{
		cfg:     cfg,
		awsCfg:  awsCfg,
		store:   store,
		models:  models,
		prompts: prompts,
		service: service,
	}, nil
}
