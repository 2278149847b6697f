package anthropic

import (
	"fmt"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/ailink/encode"
)

func buildMessageParams(req *driver.Request, defaultMaxTokens int) (sdk.MessageNewParams, error) {
	maxTokens := defaultMaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: int64(maxTokens),
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	for _, msg := range req.Messages {
		blocks := make([]sdk.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch {
			case block.IsImage():
				if len(block.Data) == 0 {
					return sdk.MessageNewParams{}, fmt.Errorf("image block has no data")
				}
				mediaType := block.MediaType
				if mediaType == "" {
					mediaType = "image/" + block.Format
				}
				blocks = append(blocks, sdk.NewImageBlockBase64(mediaType, encode.EncodeBase64String(block.Data)))
			case block.Type == content.ContentTypeText || block.Type == content.ContentTypeJSON:
				blocks = append(blocks, sdk.NewTextBlock(block.Text))
			default:
				return sdk.MessageNewParams{}, fmt.Errorf("unsupported content type %q", block.Type)
			}
		}
		if msg.Role == "assistant" {
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(blocks...))
		} else {
			params.Messages = append(params.Messages, sdk.NewUserMessage(blocks...))
		}
	}

	return params, nil
}

func toDriverResponse(msg *sdk.Message) *driver.Response {
	resp := &driver.Response{}
	if msg == nil {
		return resp
	}
	resp.Model = string(msg.Model)
	resp.FinishReason = string(msg.StopReason)
	for _, block := range msg.Content {
		if block.Type == "text" {
			resp.Content = append(resp.Content, content.TextBlock(block.Text))
		}
	}
	resp.Usage = &driver.Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}
	return resp
}
