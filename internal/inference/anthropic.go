package inference

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = "claude-3-5-haiku-latest"

const anthropicMaxTokens = 1024

// AnthropicClient sends conversations to the Anthropic messages API.
type AnthropicClient struct {
	opts ProviderOptions

	mu     sync.Mutex
	client *anthropic.Client
}

// NewAnthropicClient creates a new Anthropic client with lazy initialization.
func NewAnthropicClient(opts ProviderOptions) *AnthropicClient {
	return &AnthropicClient{opts: opts}
}

// ProviderName returns "anthropic".
func (c *AnthropicClient) ProviderName() string {
	return "anthropic"
}

// IsConfigured reports whether an API key is present.
func (c *AnthropicClient) IsConfigured() bool {
	return c.opts.APIKey != ""
}

func (c *AnthropicClient) initializeClientIfNeeded() (*anthropic.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.opts.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key not configured")
	}

	options := []option.RequestOption{
		option.WithAPIKey(c.opts.APIKey),
		option.WithHTTPClient(c.opts.httpClient()),
		option.WithMaxRetries(0),
	}
	if c.opts.BaseURL != "" {
		options = append(options, option.WithBaseURL(c.opts.BaseURL))
	}
	client := anthropic.NewClient(options...)
	c.client = &client
	logger.Debug("Anthropic client initialized", "provider", "anthropic")
	return c.client, nil
}

// Send implements mindtypes.Inferencer.
func (c *AnthropicClient) Send(ctx context.Context, history mindtypes.Conversation, userText string, allowExtraContext bool) mindtypes.InferenceOutcome {
	logIgnoredContext(c.ProviderName(), allowExtraContext)

	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return sdkFailure(c.ProviderName(), err)
	}

	model := c.opts.modelOr(DefaultAnthropicModel)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: anthropicMaxTokens,
		Messages:  convertMessagesToAnthropic(history, userText),
	}
	if c.opts.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: c.opts.SystemPrompt}}
	}
	logger.Debug("Sending Anthropic request", "model", model, "message_count", len(params.Messages))

	message, err := client.Messages.New(ctx, params)
	if err != nil {
		return sdkFailure(c.ProviderName(), err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	logger.Debug("Anthropic response received", "content_length", content.Len())
	return mindtypes.Success(content.String())
}

func convertMessagesToAnthropic(history mindtypes.Conversation, userText string) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(history)+1)
	for _, turn := range history {
		switch turn.Role {
		case mindtypes.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case mindtypes.RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Content)))
		}
	}
	return append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(userText)))
}
