package inference

import (
	"fmt"
	"net/http"

	"mindmend/internal/config"
	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// Provider names accepted by New.
const (
	ProviderEndpoint  = "endpoint"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// New creates the Inferencer selected by cfg.Provider. tokens is only used by the endpoint provider.
func New(cfg *config.Config, tokens mindtypes.TokenProvider) (mindtypes.Inferencer, error) {
	httpClient := &http.Client{
		Transport: NewLoggingTransport(nil),
		Timeout:   cfg.HTTPTimeout,
	}
	opts := ProviderOptions{
		Model:        cfg.Model,
		SystemPrompt: cfg.SystemPrompt,
		HTTPClient:   httpClient,
	}

	provider := cfg.Provider
	if provider == "" {
		provider = ProviderEndpoint
	}
	logger.Debug("Creating inferencer", "provider", provider)

	switch provider {
	case ProviderEndpoint:
		return NewEndpointClient(cfg.Endpoint, tokens,
			WithHTTPClient(httpClient),
			WithTestMode(cfg.TestMode)), nil
	case ProviderOpenAI:
		opts.APIKey = cfg.OpenAIAPIKey
		return NewOpenAIClient(opts), nil
	case ProviderAnthropic:
		opts.APIKey = cfg.AnthropicAPIKey
		return NewAnthropicClient(opts), nil
	case ProviderGemini:
		opts.APIKey = cfg.GeminiAPIKey
		return NewGeminiClient(opts), nil
	default:
		return nil, fmt.Errorf("unsupported provider '%s' (expected endpoint, openai, anthropic or gemini)", provider)
	}
}
