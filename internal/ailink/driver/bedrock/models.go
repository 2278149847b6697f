package bedrock

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	bedrockapi "github.com/aws/aws-sdk-go-v2/service/bedrock"
	catalogtypes "github.com/aws/aws-sdk-go-v2/service/bedrock/types"
)

// CatalogAPI is the subset of the Bedrock control-plane client used to list
// foundation models.
type CatalogAPI interface {
	ListFoundationModels(ctx context.Context, params *bedrockapi.ListFoundationModelsInput, optFns ...func(*bedrockapi.Options)) (*bedrockapi.ListFoundationModelsOutput, error)
}

// ModelInfo summarizes one foundation model.
type ModelInfo struct {
	ID           string
	Name         string
	Provider     string
	AcceptsText  bool
	AcceptsImage bool
	Streaming    bool
}

// NewCatalogFromConfig builds a control-plane client from a resolved AWS config.
func NewCatalogFromConfig(cfg aws.Config) CatalogAPI {
	return bedrockapi.NewFromConfig(cfg)
}

// ListModels returns text-output foundation models sorted by id. When
// provider is set, only that provider's models are returned.
func ListModels(ctx context.Context, api CatalogAPI, provider string) ([]ModelInfo, error) {
	input := &bedrockapi.ListFoundationModelsInput{ByOutputModality: catalogtypes.ModelModalityText}
	if p := strings.TrimSpace(provider); p != "" {
		input.ByProvider = aws.String(p)
	}

	out, err := api.ListFoundationModels(ctx, input)
	if err != nil {
		return nil, wrapError(err)
	}

	models := make([]ModelInfo, 0, len(out.ModelSummaries))
	for _, summary := range out.ModelSummaries {
		info := ModelInfo{
			ID:        aws.ToString(summary.ModelId),
			Name:      aws.ToString(summary.ModelName),
			Provider:  aws.ToString(summary.ProviderName),
			Streaming: aws.ToBool(summary.ResponseStreamingSupported),
		}
		for _, modality := range summary.InputModalities {
			switch modality {
			case catalogtypes.ModelModalityText:
				info.AcceptsText = true
			case catalogtypes.ModelModalityImage:
				info.AcceptsImage = true
			}
		}
		models = append(models, info)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}
