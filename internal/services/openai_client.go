package services

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/pkg/coditypes"
)

// OpenAIClient completes chat requests against the OpenAI API.
// The SDK client is created on first use.
type OpenAIClient struct {
	apiKey    string
	transport http.RoundTripper

	mu     sync.Mutex
	client *openai.Client
}

// NewOpenAIClient creates a client for apiKey. transport may be nil.
func NewOpenAIClient(apiKey string, transport http.RoundTripper) *OpenAIClient {
	return &OpenAIClient{apiKey: apiKey, transport: transport}
}

// GetProviderName returns "openai".
func (c *OpenAIClient) GetProviderName() string {
	return "openai"
}

// IsConfigured reports whether an API key is set.
func (c *OpenAIClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *OpenAIClient) initializeClientIfNeeded() (*openai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, errNoKey
	}

	options := []option.RequestOption{option.WithAPIKey(c.apiKey)}
	if c.transport != nil {
		options = append(options, option.WithHTTPClient(&http.Client{Transport: c.transport}))
	}

	client := openai.NewClient(options...)
	c.client = &client
	logger.Debug("OpenAI client initialized", "provider", "openai")
	return c.client, nil
}

// Complete sends req as a chat completion and returns the first choice's text.
func (c *OpenAIClient) Complete(ctx context.Context, req coditypes.CompletionRequest) (string, error) {
	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return "", coditypes.NewBackendError("openai", coditypes.BackendAuth, err)
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(req.Model),
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(req.Temperature),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	logger.Debug("Sending OpenAI request", "model", req.Model, "message_count", len(params.Messages))
	completion, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", backendError("openai", status, err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", coditypes.NewBackendError("openai", coditypes.BackendMalformed, errEmptyResponse)
	}
	content := completion.Choices[0].Message.Content
	logger.Debug("OpenAI response received", "content_length", len(content))
	return content, nil
}

func toOpenAIMessages(msgs []coditypes.CompletionMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case coditypes.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case coditypes.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		case coditypes.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		}
	}
	return out
}
