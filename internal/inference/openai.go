package inference

import (
	"context"
	"fmt"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"mindmend/internal/logger"
	"mindmend/pkg/mindtypes"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient sends conversations to the OpenAI chat completions API.
// The SDK client is created lazily on the first request.
type OpenAIClient struct {
	opts ProviderOptions

	mu     sync.Mutex
	client *openai.Client
}

// NewOpenAIClient creates a new OpenAI client with lazy initialization.
func NewOpenAIClient(opts ProviderOptions) *OpenAIClient {
	return &OpenAIClient{opts: opts}
}

// ProviderName returns "openai".
func (c *OpenAIClient) ProviderName() string {
	return "openai"
}

// IsConfigured reports whether an API key is present.
func (c *OpenAIClient) IsConfigured() bool {
	return c.opts.APIKey != ""
}

func (c *OpenAIClient) initializeClientIfNeeded() (*openai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.opts.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key not configured")
	}

	options := []option.RequestOption{
		option.WithAPIKey(c.opts.APIKey),
		option.WithHTTPClient(c.opts.httpClient()),
		option.WithMaxRetries(0),
	}
	if c.opts.BaseURL != "" {
		options = append(options, option.WithBaseURL(c.opts.BaseURL))
	}
	client := openai.NewClient(options...)
	c.client = &client
	logger.Debug("OpenAI client initialized", "provider", "openai")
	return c.client, nil
}

// Send implements mindtypes.Inferencer.
func (c *OpenAIClient) Send(ctx context.Context, history mindtypes.Conversation, userText string, allowExtraContext bool) mindtypes.InferenceOutcome {
	logIgnoredContext(c.ProviderName(), allowExtraContext)

	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return sdkFailure(c.ProviderName(), err)
	}

	model := c.opts.modelOr(DefaultOpenAIModel)
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: convertMessagesToOpenAI(c.opts.SystemPrompt, history, userText),
	}
	logger.Debug("Sending OpenAI request", "model", model, "message_count", len(params.Messages))

	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return sdkFailure(c.ProviderName(), err)
	}
	if len(completion.Choices) == 0 {
		logger.Debug("No response choices returned", "provider", "openai")
		return mindtypes.Success("")
	}
	content := completion.Choices[0].Message.Content
	logger.Debug("OpenAI response received", "content_length", len(content))
	return mindtypes.Success(content)
}

func convertMessagesToOpenAI(systemPrompt string, history mindtypes.Conversation, userText string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	for _, turn := range history {
		switch turn.Role {
		case mindtypes.RoleUser:
			messages = append(messages, openai.UserMessage(turn.Content))
		case mindtypes.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		}
	}
	return append(messages, openai.UserMessage(userText))
}
