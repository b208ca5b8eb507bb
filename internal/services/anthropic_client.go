package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/pkg/coditypes"
)

// defaultAnthropicMaxTokens is used when a request leaves MaxTokens unset; the API requires one.
const defaultAnthropicMaxTokens = 4096

// AnthropicClient completes chat requests against the Anthropic Messages API.
type AnthropicClient struct {
	apiKey    string
	transport http.RoundTripper

	mu     sync.Mutex
	client *anthropic.Client
}

// NewAnthropicClient creates a client for apiKey. transport may be nil.
func NewAnthropicClient(apiKey string, transport http.RoundTripper) *AnthropicClient {
	return &AnthropicClient{apiKey: apiKey, transport: transport}
}

// GetProviderName returns "anthropic".
func (c *AnthropicClient) GetProviderName() string {
	return "anthropic"
}

// IsConfigured reports whether an API key is set.
func (c *AnthropicClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *AnthropicClient) initializeClientIfNeeded() (*anthropic.Client, error) {
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

	client := anthropic.NewClient(options...)
	c.client = &client
	logger.Debug("Anthropic client initialized", "provider", "anthropic")
	return c.client, nil
}

// Complete sends req to the Messages API. System messages are combined into
// the request's system prompt.
func (c *AnthropicClient) Complete(ctx context.Context, req coditypes.CompletionRequest) (string, error) {
	client, err := c.initializeClientIfNeeded()
	if err != nil {
		return "", coditypes.NewBackendError("anthropic", coditypes.BackendAuth, err)
	}

	messages, system := toAnthropicMessages(req.Messages)
	maxTokens := int64(defaultAnthropicMaxTokens)
	if req.MaxTokens > 0 {
		maxTokens = int64(req.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   maxTokens,
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	logger.Debug("Sending Anthropic request", "model", req.Model, "message_count", len(messages))
	message, err := client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		status := 0
		if errors.As(err, &apiErr) {
			status = apiErr.StatusCode
		}
		return "", backendError("anthropic", status, err)
	}

	var content strings.Builder
	for _, block := range message.Content {
		content.WriteString(block.Text)
	}
	if content.Len() == 0 {
		return "", coditypes.NewBackendError("anthropic", coditypes.BackendMalformed, errEmptyResponse)
	}

	logger.Debug("Anthropic response received", "content_length", content.Len())
	return content.String(), nil
}

func toAnthropicMessages(msgs []coditypes.CompletionMessage) ([]anthropic.MessageParam, string) {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	var system []string

	for _, msg := range msgs {
		switch msg.Role {
		case coditypes.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case coditypes.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		case coditypes.RoleSystem:
			system = append(system, msg.Content)
		}
	}
	return out, strings.Join(system, "\n\n")
}
