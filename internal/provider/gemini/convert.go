package gemini

import (
	"fmt"
	"strings"
	"time"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

// syntheticIDPrefix marks call IDs minted locally because the API returned
// none. They are never sent back.
const syntheticIDPrefix = "gemini-call-"

// toGeminiContents converts the conversation into Gemini contents, one content per turn.
func toGeminiContents(history []conversation.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		if content := turnToGeminiContent(turn); content != nil {
			contents = append(contents, content)
		}
	}
	return contents
}

// turnToGeminiContent converts a single turn. Tool turns are sent with the
// user role, which is how the Gemini API expects function responses.
func turnToGeminiContent(turn conversation.Turn) *genai.Content {
	role := "user"
	if turn.Role == conversation.RoleModel {
		role = "model"
	}

	parts := make([]*genai.Part, 0, len(turn.Parts))
	for _, p := range turn.Parts {
		switch part := p.(type) {
		case conversation.TextPart:
			if part.Text != "" {
				parts = append(parts, genai.NewPartFromText(part.Text))
			}
		case conversation.CallPart:
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   apiID(part.Call.ID),
					Name: part.Call.Name,
					Args: part.Call.Args,
				},
			})
		case conversation.ResultPart:
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       apiID(part.ID),
					Name:     part.Name,
					Response: part.Result.Map(),
				},
			})
		}
	}

	// Skip empty turns
	if len(parts) == 0 {
		return nil
	}

	return &genai.Content{
		Role:  role,
		Parts: parts,
	}
}

func apiID(id string) string {
	if strings.HasPrefix(id, syntheticIDPrefix) {
		return ""
	}
	return id
}

// toGeminiConfig converts generation options to Gemini config.
func toGeminiConfig(opts Options) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}
	if opts.MaxOutputTokens > 0 {
		config.MaxOutputTokens = opts.MaxOutputTokens
	}
	if opts.Temperature != nil {
		config.Temperature = opts.Temperature
	}
	return config
}

// defaultSafetySettings returns safety settings with BLOCK_NONE for all categories.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// toGeminiTools converts declarations into one Gemini tool holding every
// function. The cleaned JSON schema is passed through as is.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}

	functionDeclarations := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if d.Parameters != nil {
			fd.ParametersJsonSchema = d.Parameters
		}
		functionDeclarations = append(functionDeclarations, fd)
	}

	return []*genai.Tool{
		{FunctionDeclarations: functionDeclarations},
	}
}

// fromGeminiResponse flattens every candidate's parts into one response.
// Zero candidates is a valid, empty response.
func fromGeminiResponse(resp *genai.GenerateContentResponse, modelUsed string) (*provider.Response, error) {
	if resp == nil {
		return &provider.Response{Metadata: provider.Metadata{ModelUsed: modelUsed}}, nil
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return nil, &provider.ProviderError{
			Code:    provider.ErrorCodeContentBlocked,
			Message: fmt.Sprintf("prompt blocked: %s", fb.BlockReason),
		}
	}

	out := &provider.Response{Metadata: buildMetadata(resp.UsageMetadata, modelUsed)}
	for i, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		if candidate.FinishReason == genai.FinishReasonMaxTokens || candidate.FinishReason == genai.FinishReasonSafety {
			logger.KV(xlog.WARNING,
				"candidate", i,
				"finish_reason", candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			if part.FunctionCall != nil {
				out.Parts = append(out.Parts, provider.CallPart(fromGeminiFunctionCall(part.FunctionCall)))
				continue
			}
			if part.Text != "" && !part.Thought {
				out.Parts = append(out.Parts, provider.TextPart(part.Text))
			}
		}
	}

	return out, nil
}

func fromGeminiFunctionCall(fc *genai.FunctionCall) tool.Call {
	id := fc.ID
	if id == "" {
		id = syntheticIDPrefix + uuid.NewString()
	}
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	return tool.Call{ID: id, Name: fc.Name, Args: args}
}

// buildMetadata builds response metadata from usage data.
func buildMetadata(usage *genai.GenerateContentResponseUsageMetadata, modelUsed string) provider.Metadata {
	metadata := provider.Metadata{
		ModelUsed: modelUsed,
	}

	if usage != nil {
		metadata.PromptTokens = int(usage.PromptTokenCount)
		metadata.CompletionTokens = int(usage.CandidatesTokenCount)
		metadata.TotalTokens = int(usage.TotalTokenCount)
	}

	return metadata
}

// mapGeminiError maps Gemini API errors to provider errors.
func mapGeminiError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	case errors.As(err, &apiErr):
	default:
		return provider.NetworkError(err)
	}

	pErr := provider.FromHTTPStatus(apiErr.Code, apiErr.Message, err)
	if pErr.Code == provider.ErrorCodeRateLimit {
		pErr.RetryAfter = parseRetryAfter(&apiErr)
	}
	return pErr
}

// parseRetryAfter reads the retry delay from error details. Numbers are
// seconds; strings use Go duration syntax, which matches the "30s" form of
// google.rpc.RetryInfo.
func parseRetryAfter(apiErr *genai.APIError) *time.Duration {
	if apiErr == nil {
		return nil
	}

	for _, detail := range apiErr.Details {
		for _, key := range []string{"retryDelay", "retry_after", "retryAfter"} {
			v, ok := detail[key]
			if !ok {
				continue
			}
			if d, ok := toDuration(v); ok {
				return &d
			}
		}
	}
	return nil
}

func toDuration(v any) (time.Duration, bool) {
	switch val := v.(type) {
	case int:
		return time.Duration(val) * time.Second, true
	case int64:
		return time.Duration(val) * time.Second, true
	case float64:
		return time.Duration(val * float64(time.Second)), true
	case string:
		d, err := time.ParseDuration(val)
		return d, err == nil
	default:
		return 0, false
	}
}
