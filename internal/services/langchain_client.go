package services

import (
	"context"
	"net/http"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/pkg/coditypes"
)

// LangChainClient talks to a local OpenAI-compatible server (Ollama, llama.cpp,
// vLLM) through langchaingo.
type LangChainClient struct {
	baseURL   string
	token     string
	transport http.RoundTripper

	mu  sync.Mutex
	llm llms.Model
}

// NewLangChainClient creates a client for the server at baseURL.
func NewLangChainClient(baseURL, token string, transport http.RoundTripper) *LangChainClient {
	return &LangChainClient{baseURL: baseURL, token: token, transport: transport}
}

// GetProviderName returns "local".
func (c *LangChainClient) GetProviderName() string {
	return "local"
}

// IsConfigured reports whether a server URL is set. Local servers rarely check the token.
func (c *LangChainClient) IsConfigured() bool {
	return c.baseURL != ""
}

func (c *LangChainClient) initializeClientIfNeeded(model string) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.llm != nil {
		return c.llm, nil
	}

	token := c.token
	if token == "" {
		token = "local"
	}
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithBaseURL(c.baseURL),
		openai.WithModel(model),
	}
	if c.transport != nil {
		opts = append(opts, openai.WithHTTPClient(&http.Client{Transport: c.transport}))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}
	c.llm = llm
	logger.Debug("Local LLM client initialized", "provider", "local", "base_url", c.baseURL)
	return c.llm, nil
}

// Complete sends req to the local server.
func (c *LangChainClient) Complete(ctx context.Context, req coditypes.CompletionRequest) (string, error) {
	llm, err := c.initializeClientIfNeeded(req.Model)
	if err != nil {
		return "", coditypes.NewBackendError("local", coditypes.BackendNetwork, err)
	}

	options := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithModel(req.Model),
	}
	if req.MaxTokens > 0 {
		options = append(options, llms.WithMaxTokens(req.MaxTokens))
	}

	resp, err := llm.GenerateContent(ctx, toLangChainMessages(req.Messages), options...)
	if err != nil {
		return "", backendError("local", 0, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", coditypes.NewBackendError("local", coditypes.BackendMalformed, errEmptyResponse)
	}
	return resp.Choices[0].Content, nil
}

func toLangChainMessages(msgs []coditypes.CompletionMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(msgs))
	for _, msg := range msgs {
		var kind llms.ChatMessageType
		switch msg.Role {
		case coditypes.RoleUser:
			kind = llms.ChatMessageTypeHuman
		case coditypes.RoleAssistant:
			kind = llms.ChatMessageTypeAI
		case coditypes.RoleSystem:
			kind = llms.ChatMessageTypeSystem
		default:
			continue
		}
		out = append(out, llms.TextParts(kind, msg.Content))
	}
	return out
}
