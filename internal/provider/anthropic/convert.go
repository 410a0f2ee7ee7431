package anthropic

import (
	"encoding/json"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

// toMessages converts turns into API messages. Tool turns become user
// messages with tool_result blocks, and consecutive turns of the same API
// role are merged because the API expects roles to alternate.
func toMessages(history []conversation.Turn) ([]sdk.MessageParam, error) {
	var messages []sdk.MessageParam
	for _, turn := range history {
		blocks, err := toBlocks(turn)
		if err != nil {
			return nil, err
		}
		if len(blocks) == 0 {
			continue
		}

		role := sdk.MessageParamRoleUser
		if turn.Role == conversation.RoleModel {
			role = sdk.MessageParamRoleAssistant
		}

		if n := len(messages); n > 0 && messages[n-1].Role == role {
			messages[n-1].Content = append(messages[n-1].Content, blocks...)
			continue
		}
		messages = append(messages, sdk.MessageParam{Role: role, Content: blocks})
	}
	return messages, nil
}

func toBlocks(turn conversation.Turn) ([]sdk.ContentBlockParamUnion, error) {
	var blocks []sdk.ContentBlockParamUnion
	for _, p := range turn.Parts {
		switch part := p.(type) {
		case conversation.TextPart:
			if part.Text != "" {
				blocks = append(blocks, sdk.NewTextBlock(part.Text))
			}
		case conversation.CallPart:
			args := part.Call.Args
			if args == nil {
				args = map[string]any{}
			}
			blocks = append(blocks, sdk.NewToolUseBlock(part.Call.ID, args, part.Call.Name))
		case conversation.ResultPart:
			body, err := json.Marshal(part.Result.Map())
			if err != nil {
				return nil, errors.Wrapf(err, "failed to encode result of %s", part.Name)
			}
			blocks = append(blocks, sdk.NewToolResultBlock(part.ID, string(body), part.Result.IsError()))
		}
	}
	return blocks, nil
}

// toTools converts declarations to tool params. "properties" and "required"
// map to their typed fields; any other schema keyword is passed through.
func toTools(decls []tool.Declaration) []sdk.ToolUnionParam {
	if len(decls) == 0 {
		return nil
	}

	tools := make([]sdk.ToolUnionParam, 0, len(decls))
	for _, d := range decls {
		schema := sdk.ToolInputSchemaParam{}
		for k, v := range d.Parameters {
			switch k {
			case "type":
			case "properties":
				schema.Properties = v
			case "required":
				schema.Required = toStrings(v)
			default:
				if schema.ExtraFields == nil {
					schema.ExtraFields = map[string]any{}
				}
				schema.ExtraFields[k] = v
			}
		}

		param := &sdk.ToolParam{
			Name:        d.Name,
			InputSchema: schema,
		}
		if d.Description != "" {
			param.Description = sdk.String(d.Description)
		}
		tools = append(tools, sdk.ToolUnionParam{OfTool: param})
	}
	return tools
}

func toStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// fromMessage converts a reply into a provider response, keeping block order.
func fromMessage(msg *sdk.Message, modelUsed string) (*provider.Response, error) {
	resp := &provider.Response{
		Metadata: provider.Metadata{
			ModelUsed:        modelUsed,
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case sdk.TextBlock:
			if b.Text != "" {
				resp.Parts = append(resp.Parts, provider.TextPart(b.Text))
			}
		case sdk.ToolUseBlock:
			args := map[string]any{}
			if len(b.Input) > 0 {
				if err := json.Unmarshal(b.Input, &args); err != nil {
					return nil, errors.Wrapf(err, "anthropic: invalid input for tool %s", b.Name)
				}
			}
			resp.Parts = append(resp.Parts, provider.CallPart(tool.Call{ID: b.ID, Name: b.Name, Args: args}))
		default:
			logger.KV(xlog.DEBUG, "skipped_block", block.Type)
		}
	}

	if msg.StopReason == sdk.StopReasonMaxTokens {
		logger.KV(xlog.WARNING, "stop_reason", msg.StopReason)
	}

	return resp, nil
}
