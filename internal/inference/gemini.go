package inference

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

// GeminiClient sends conversations to the Gemini API.
type GeminiClient struct {
	opts ProviderOptions

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a new Gemini client with lazy initialization.
func NewGeminiClient(opts ProviderOptions) *GeminiClient {
	return &GeminiClient{opts: opts}
}

// ProviderName returns "gemini".
func (c *GeminiClient) ProviderName() string {
	return "gemini"
}

// IsConfigured reports whether an API key is present.
func (c *GeminiClient) IsConfigured() bool {
	return c.opts.APIKey != ""
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.opts.APIKey == "" {
		return nil, fmt.Errorf("google API key not configured")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     c.opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.opts.httpClient(),
	}
	if c.opts.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: c.opts.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	c.client = client
	logger.Debug("Gemini client initialized", "provider", "gemini")
	return c.client, nil
}

// Send implements mindtypes.Inferencer.
func (c *GeminiClient) Send(ctx context.Context, history mindtypes.Conversation, userText string, allowExtraContext bool) mindtypes.InferenceOutcome {
	logIgnoredContext(c.ProviderName(), allowExtraContext)

	client, err := c.initializeClientIfNeeded(ctx)
	if err != nil {
		return sdkFailure(c.ProviderName(), err)
	}

	model := c.opts.modelOr(DefaultGeminiModel)
	contents := convertMessagesToGemini(history, userText)
	config := &genai.GenerateContentConfig{}
	if c.opts.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(c.opts.SystemPrompt, genai.RoleUser)
	}
	logger.Debug("Sending Gemini request", "model", model, "message_count", len(contents))

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return sdkFailure(c.ProviderName(), err)
	}

	var content strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			content.WriteString(part.Text)
		}
		break
	}
	logger.Debug("Gemini response received", "content_length", content.Len())
	return mindtypes.Success(content.String())
}

// convertMessagesToGemini maps roles onto Gemini's "user" and "model".
func convertMessagesToGemini(history mindtypes.Conversation, userText string) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	for _, turn := range history {
		role := "user"
		if turn.Role == mindtypes.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Parts: []*genai.Part{{Text: turn.Content}},
			Role:  role,
		})
	}
	return append(contents, genai.NewContentFromText(userText, genai.RoleUser))
}
