package openai

import (
	"fmt"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"

	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/ailink/driver"
	"github.com/areaoforigin/narrator/internal/ailink/encode"
)

func buildResponseParams(req *driver.Request) (responses.ResponseNewParams, error) {
	items := make(responses.ResponseInputParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		parts := make(responses.ResponseInputMessageContentListParam, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch {
			case block.IsImage():
				if len(block.Data) == 0 {
					return responses.ResponseNewParams{}, fmt.Errorf("image block has no data")
				}
				mediaType := block.MediaType
				if mediaType == "" {
					mediaType = "image/" + block.Format
				}
				parts = append(parts, responses.ResponseInputContentUnionParam{
					OfInputImage: &responses.ResponseInputImageParam{
						Detail:   responses.ResponseInputImageDetailAuto,
						ImageURL: sdk.String(encode.DataURL(mediaType, block.Data)),
					},
				})
			case block.Type == content.ContentTypeText || block.Type == content.ContentTypeJSON:
				parts = append(parts, responses.ResponseInputContentUnionParam{
					OfInputText: &responses.ResponseInputTextParam{Text: block.Text},
				})
			default:
				return responses.ResponseNewParams{}, fmt.Errorf("unsupported content type %q", block.Type)
			}
		}

		role := responses.EasyInputMessageRoleUser
		if msg.Role == "assistant" {
			role = responses.EasyInputMessageRoleAssistant
		}
		items = append(items, responses.ResponseInputItemParamOfMessage(parts, role))
	}

	params := responses.ResponseNewParams{
		Model: sdk.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{OfInputItemList: items},
	}
	if req.MaxTokens != nil && *req.MaxTokens > 0 {
		params.MaxOutputTokens = sdk.Int(int64(*req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	return params, nil
}

func toDriverResponse(model string, resp *responses.Response) *driver.Response {
	out := &driver.Response{Model: model}
	if resp == nil {
		return out
	}
	if resp.Model != "" {
		out.Model = string(resp.Model)
	}
	out.FinishReason = string(resp.Status)
	if text := resp.OutputText(); text != "" {
		out.Content = []content.ContentBlock{content.TextBlock(text)}
	}
	out.Usage = &driver.Usage{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
		TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	return out
}
