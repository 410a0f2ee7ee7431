package main

import (
	"context"

	"github.com/Cyclone1070/mcpchat/internal/config"
	"github.com/Cyclone1070/mcpchat/internal/provider"
	"github.com/Cyclone1070/mcpchat/internal/provider/anthropic"
	"github.com/Cyclone1070/mcpchat/internal/provider/gemini"
	"github.com/cockroachdb/errors"
)

// modelProvider is a provider that can report the model it talks to.
type modelProvider interface {
	provider.Provider
	Model() string
}

// ProviderFactory builds the configured LLM provider.
type ProviderFactory func(ctx context.Context) (modelProvider, error)

// apiKeyEnv returns the environment variable holding the provider's key.
func apiKeyEnv(cfg *config.Config) string {
	if cfg.Provider.APIKeyEnv != "" {
		return cfg.Provider.APIKeyEnv
	}
	if cfg.Provider.Name == config.ProviderAnthropic {
		return "ANTHROPIC_API_KEY"
	}
	return "GEMINI_API_KEY"
}

func createRealProviderFactory(cfg *config.Config, lookupEnv func(string) (string, bool)) ProviderFactory {
	return func(ctx context.Context) (modelProvider, error) {
		env := apiKeyEnv(cfg)
		apiKey, _ := lookupEnv(env)
		if apiKey == "" {
			return nil, errors.Wrapf(provider.ErrMissingCredential, "%s environment variable is required", env)
		}

		switch cfg.Provider.Name {
		case config.ProviderGemini:
			client, err := gemini.NewClientFromAPIKey(ctx, apiKey)
			if err != nil {
				return nil, errors.Wrap(err, "failed to create Gemini client")
			}
			opts := gemini.Options{MaxOutputTokens: int32(cfg.Provider.MaxOutputTokens)}
			if t := cfg.Provider.Temperature; t != nil {
				v := float32(*t)
				opts.Temperature = &v
			}
			return gemini.New(client, cfg.Provider.Model, opts), nil

		case config.ProviderAnthropic:
			opts := anthropic.Options{
				MaxTokens:   int64(cfg.Provider.MaxOutputTokens),
				Temperature: cfg.Provider.Temperature,
			}
			return anthropic.New(anthropic.NewMessagesClient(apiKey), cfg.Provider.Model, opts), nil

		default:
			return nil, errors.Newf("unsupported provider %q", cfg.Provider.Name)
		}
	}
}
