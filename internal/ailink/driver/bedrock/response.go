package bedrock

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/areaoforigin/narrator/internal/ailink/content"
	"github.com/areaoforigin/narrator/internal/ailink/driver"
)

func toDriverResponse(model string, out *bedrockruntime.ConverseOutput) (*driver.Response, error) {
	if out == nil {
		return nil, fmt.Errorf("bedrock returned an empty response")
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return nil, fmt.Errorf("bedrock response has no message output")
	}

	resp := &driver.Response{
		Model:        model,
		FinishReason: string(out.StopReason),
	}
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			resp.Content = append(resp.Content, content.TextBlock(text.Value))
		}
	}

	if out.Usage != nil {
		resp.Usage = &driver.Usage{
			PromptTokens:     int(aws.ToInt32(out.Usage.InputTokens)),
			CompletionTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			TotalTokens:      int(aws.ToInt32(out.Usage.TotalTokens)),
		}
	}

	return resp, nil
}
