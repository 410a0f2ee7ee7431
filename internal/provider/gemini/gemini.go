package gemini

import (
	"context"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "gemini")

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash-001"

// Options are optional generation parameters. Zero values leave the API
// defaults in place.
type Options struct {
	MaxOutputTokens int32
	Temperature     *float32
}

// GeminiProvider implements provider.Provider for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
	opts      Options
}

// New creates a new GeminiProvider with the specified client and model.
func New(client GeminiClient, modelName string, opts Options) *GeminiProvider {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
		opts:      opts,
	}
}

// Model returns the model name requests are sent to.
func (p *GeminiProvider) Model() string {
	return p.modelName
}

// Generate sends the history and tool declarations to the Gemini API.
func (p *GeminiProvider) Generate(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
	contents := toGeminiContents(history)
	config := toGeminiConfig(p.opts)
	if len(decls) > 0 {
		config.Tools = toGeminiTools(decls)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"model", p.modelName,
		"contents", len(contents),
		"tools", len(decls))

	resp, err := p.client.GenerateContent(ctx, p.modelName, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	return fromGeminiResponse(resp, p.modelName)
}
