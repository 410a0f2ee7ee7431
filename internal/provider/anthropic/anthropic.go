// Package anthropic implements provider.Provider on the Anthropic Messages API.
package anthropic

import (
	"context"
	"time"

	"github.com/Cyclone1070/mcpchat/internal/conversation"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/tool"
	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/Cyclone1070/mcpchat", "anthropic")

const (
	// DefaultModel is used when no model is configured.
	DefaultModel = "claude-sonnet-4-5"
	// DefaultMaxTokens bounds each reply when no limit is configured.
	DefaultMaxTokens = 4096
)

// MessagesClient is the part of the SDK the provider uses.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// NewMessagesClient creates an SDK messages client authenticated with apiKey.
func NewMessagesClient(apiKey string) MessagesClient {
	client := sdk.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(2),
		option.WithRequestTimeout(5*time.Minute),
	)
	return &client.Messages
}

// Options are optional generation parameters.
type Options struct {
	MaxTokens   int64
	Temperature *float64
}

// Provider implements provider.Provider for Anthropic models.
type Provider struct {
	client    MessagesClient
	modelName string
	opts      Options
}

// New creates a Provider for modelName.
func New(client MessagesClient, modelName string, opts Options) *Provider {
	if modelName == "" {
		modelName = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &Provider{client: client, modelName: modelName, opts: opts}
}

// Model returns the model name requests are sent to.
func (p *Provider) Model() string {
	return p.modelName
}

// Generate sends the history and tool declarations to the Messages API.
func (p *Provider) Generate(ctx context.Context, history []conversation.Turn, decls []tool.Declaration) (*provider.Response, error) {
	messages, err := toMessages(history)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic: failed to convert history")
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.modelName),
		MaxTokens: p.opts.MaxTokens,
		Messages:  messages,
	}
	if p.opts.Temperature != nil {
		params.Temperature = sdk.Float(*p.opts.Temperature)
	}
	if tools := toTools(decls); len(tools) > 0 {
		params.Tools = tools
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"model", p.modelName,
		"messages", len(messages),
		"tools", len(decls))

	msg, err := p.client.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}

	return fromMessage(msg, p.modelName)
}

func mapError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return provider.FromHTTPStatus(apiErr.StatusCode, apiErr.Error(), err)
	}
	return provider.NetworkError(err)
}
