package inference

import (
	"net/http"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// ProviderOptions configures the SDK-backed providers.
type ProviderOptions struct {
	APIKey       string
	Model        string
	SystemPrompt string
	// BaseURL overrides the SDK's default API host. Used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

func (o ProviderOptions) httpClient() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return &http.Client{Transport: NewLoggingTransport(nil)}
}

func (o ProviderOptions) modelOr(fallback string) string {
	if o.Model != "" {
		return o.Model
	}
	return fallback
}

// logIgnoredContext records that a provider has no use for the extra-context consent.
func logIgnoredContext(provider string, allowExtraContext bool) {
	logger.Debug("Extra context flag not used by provider", "provider", provider, "use_extra_context", allowExtraContext)
}

// sdkFailure logs and wraps an SDK error as a failure outcome.
func sdkFailure(provider string, err error) mindtypes.InferenceOutcome {
	logger.Warn("Provider request failed", "provider", provider, "error", err)
	return mindtypes.Failure(err.Error())
}
