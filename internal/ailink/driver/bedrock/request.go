package bedrock

import (
	"fmt"
	"math"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/ailink/driver"
)

func buildConverseInput(req *driver.Request) (*bedrockruntime.ConverseInput, error) {
	messages := make([]types.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := types.ConversationRoleUser
		if msg.Role == string(types.ConversationRoleAssistant) {
			role = types.ConversationRoleAssistant
		}

		blocks := make([]types.ContentBlock, 0, len(msg.Content))
		for _, block := range msg.Content {
			converted, err := toContentBlock(block)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, converted)
		}
		messages = append(messages, types.Message{Role: role, Content: blocks})
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(req.Model),
		Messages: messages,
	}

	if req.MaxTokens != nil || req.Temperature != nil {
		cfg := &types.InferenceConfiguration{}
		if req.MaxTokens != nil {
			if *req.MaxTokens <= 0 || *req.MaxTokens > math.MaxInt32 {
				return nil, fmt.Errorf("max tokens out of range: %d", *req.MaxTokens)
			}
			cfg.MaxTokens = aws.Int32(int32(*req.MaxTokens))
		}
		if req.Temperature != nil {
			cfg.Temperature = aws.Float32(float32(*req.Temperature))
		}
		input.InferenceConfig = cfg
	}

	return input, nil
}

func toContentBlock(block content.ContentBlock) (types.ContentBlock, error) {
	switch {
	case block.IsImage():
		if len(block.Data) == 0 {
			return nil, fmt.Errorf("image block has no data")
		}
		return &types.ContentBlockMemberImage{
			Value: types.ImageBlock{
				Format: imageFormat(block.Format),
				Source: &types.ImageSourceMemberBytes{Value: block.Data},
			},
		}, nil
	case block.Type == content.ContentTypeText || block.Type == content.ContentTypeJSON:
		return &types.ContentBlockMemberText{Value: block.Text}, nil
	default:
		return nil, fmt.Errorf("unsupported content type %q", block.Type)
	}
}

// imageFormat maps common aliases onto Bedrock's format names. Anything
// else is passed through and left for the service to reject.
func imageFormat(format string) types.ImageFormat {
	switch format {
	case "jpg", "pjpeg":
		return types.ImageFormatJpeg
	default:
		return types.ImageFormat(format)
	}
}
