package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMessagesClient struct {
	newFunc func(ctx context.Context, body sdk.MessageNewParams) (*sdk.Message, error)
}

func (m *mockMessagesClient) New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error) {
	return m.newFunc(ctx, body)
}

func messageFromJSON(t *testing.T, raw string) *sdk.Message {
	t.Helper()
	var msg sdk.Message
	require.NoError(t, json.Unmarshal([]byte(raw), &msg))
	return &msg
}

func TestGenerate_TextAndToolUse(t *testing.T) {
	var got sdk.MessageNewParams
	client := &mockMessagesClient{
		newFunc: func(ctx context.Context, body sdk.MessageNewParams) (*sdk.Message, error) {
			got = body
			return messageFromJSON(t, `{
				"id": "msg_1",
				"type": "message",
				"role": "assistant",
				"model": "claude-test",
				"stop_reason": "tool_use",
				"content": [
					{"type": "text", "text": "Looking it up."},
					{"type": "tool_use", "id": "toolu_1", "name": "lookup", "input": {"id": 7}}
				],
				"usage": {"input_tokens": 12, "output_tokens": 8}
			}`), nil
		},
	}
	p := New(client, "claude-test", Options{})
	decls := []tool.Declaration{{
		Name:        "lookup",
		Description: "Look up a widget",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"id": map[string]any{"type": "integer"}},
			"required":   []any{"id"},
		},
	}}

	resp, err := p.Generate(context.Background(), []conversation.Turn{conversation.UserText("find 7")}, decls)

	require.NoError(t, err)
	require.Len(t, resp.Parts, 2)
	assert.Equal(t, "Looking it up.", resp.Parts[0].Text)
	calls := resp.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, tool.Call{ID: "toolu_1", Name: "lookup", Args: map[string]any{"id": float64(7)}}, calls[0])
	assert.Equal(t, 20, resp.Metadata.TotalTokens)

	assert.Equal(t, sdk.Model("claude-test"), got.Model)
	assert.Equal(t, int64(DefaultMaxTokens), got.MaxTokens)
	require.Len(t, got.Tools, 1)
	require.NotNil(t, got.Tools[0].OfTool)
	assert.Equal(t, "lookup", got.Tools[0].OfTool.Name)
	assert.Equal(t, []string{"id"}, got.Tools[0].OfTool.InputSchema.Required)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, sdk.MessageParamRoleUser, got.Messages[0].Role)
}

func TestToMessages_ToolExchange(t *testing.T) {
	call := tool.Call{ID: "toolu_1", Name: "lookup", Args: map[string]any{"id": 7}}
	history := []conversation.Turn{
		conversation.UserText("find 7"),
		conversation.ModelCall(call),
		conversation.ToolResult(call, tool.Failure("not found")),
		conversation.ModelText("No such widget."),
	}

	messages, err := toMessages(history)

	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, sdk.MessageParamRoleAssistant, messages[1].Role)
	require.NotNil(t, messages[1].Content[0].OfToolUse)
	assert.Equal(t, "toolu_1", messages[1].Content[0].OfToolUse.ID)

	assert.Equal(t, sdk.MessageParamRoleUser, messages[2].Role)
	result := messages[2].Content[0].OfToolResult
	require.NotNil(t, result)
	assert.Equal(t, "toolu_1", result.ToolUseID)
	assert.True(t, result.IsError.Value)
}

func TestToMessages_MergesSameRole(t *testing.T) {
	a := tool.Call{ID: "a", Name: "one"}
	b := tool.Call{ID: "b", Name: "two"}
	history := []conversation.Turn{
		conversation.UserText("first"),
		conversation.UserText("second"),
		conversation.ModelCall(a),
		conversation.ToolResult(a, tool.Success("x")),
		conversation.ModelCall(b),
		conversation.ToolResult(b, tool.Success("y")),
	}

	messages, err := toMessages(history)

	require.NoError(t, err)
	require.Len(t, messages, 5)
	assert.Len(t, messages[0].Content, 2)
}

func TestToTools_PassesExtraKeywords(t *testing.T) {
	tools := toTools([]tool.Declaration{{
		Name: "ping",
		Parameters: map[string]any{
			"type":                 "object",
			"additionalProperties": false,
		},
	}})

	require.Len(t, tools, 1)
	schema := tools[0].OfTool.InputSchema
	assert.Nil(t, schema.Properties)
	assert.Equal(t, false, schema.ExtraFields["additionalProperties"])
	assert.Nil(t, toTools(nil))
}

func TestGenerate_MapsAPIError(t *testing.T) {
	client := &mockMessagesClient{
		newFunc: func(ctx context.Context, body sdk.MessageNewParams) (*sdk.Message, error) {
			req, _ := http.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil)
			return nil, &sdk.Error{
				StatusCode: http.StatusTooManyRequests,
				Request:    req,
				Response:   &http.Response{StatusCode: http.StatusTooManyRequests},
			}
		},
	}

	_, err := New(client, "", Options{}).Generate(context.Background(), nil, nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, provider.ErrRateLimit))
	assert.True(t, provider.IsRetryable(err))
}

func TestGenerate_NetworkError(t *testing.T) {
	client := &mockMessagesClient{
		newFunc: func(ctx context.Context, body sdk.MessageNewParams) (*sdk.Message, error) {
			return nil, errors.New("connection reset")
		},
	}

	_, err := New(client, "", Options{}).Generate(context.Background(), nil, nil)

	assert.True(t, errors.Is(err, provider.ErrNetwork))
}

func TestNew_Defaults(t *testing.T) {
	p := New(&mockMessagesClient{}, "", Options{})

	assert.Equal(t, DefaultModel, p.Model())
	assert.Equal(t, int64(DefaultMaxTokens), p.opts.MaxTokens)
}
