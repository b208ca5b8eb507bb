package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/pkg/coditypes"
)

// GeminiClient completes chat requests against the Google Gemini API.
type GeminiClient struct {
	apiKey    string
	transport http.RoundTripper

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiClient creates a client for apiKey. transport may be nil.
func NewGeminiClient(apiKey string, transport http.RoundTripper) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, transport: transport}
}

// GetProviderName returns "gemini".
func (c *GeminiClient) GetProviderName() string {
	return "gemini"
}

// IsConfigured reports whether an API key is set.
func (c *GeminiClient) IsConfigured() bool {
	return c.apiKey != ""
}

func (c *GeminiClient) initializeClientIfNeeded(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, errNoKey
	}

	cfg := &genai.ClientConfig{APIKey: c.apiKey, Backend: genai.BackendGeminiAPI}
	if c.transport != nil {
		cfg.HTTPClient = &http.Client{Transport: c.transport}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.client = client
	logger.Debug("Gemini client initialized", "provider", "gemini")
	return c.client, nil
}

// Complete sends req to GenerateContent. System messages become the system
// instruction and thought parts are dropped from the reply.
func (c *GeminiClient) Complete(ctx context.Context, req coditypes.CompletionRequest) (string, error) {
	client, err := c.initializeClientIfNeeded(ctx)
	if err != nil {
		return "", coditypes.NewBackendError("gemini", coditypes.BackendAuth, err)
	}

	contents, system := toGeminiContents(req.Messages)
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	logger.Debug("Sending Gemini request", "model", req.Model, "content_count", len(contents))
	result, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return "", backendError("gemini", geminiStatus(err), err)
	}

	text := geminiText(result)
	if text == "" {
		return "", coditypes.NewBackendError("gemini", coditypes.BackendMalformed, errEmptyResponse)
	}
	logger.Debug("Gemini response received", "content_length", len(text))
	return text, nil
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return apiErrPtr.Code
	}
	return 0
}

func toGeminiContents(msgs []coditypes.CompletionMessage) ([]*genai.Content, string) {
	contents := make([]*genai.Content, 0, len(msgs))
	var system []string

	for _, msg := range msgs {
		switch msg.Role {
		case coditypes.RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case coditypes.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		case coditypes.RoleSystem:
			system = append(system, msg.Content)
		}
	}

	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("", genai.RoleUser))
	}
	return contents, strings.Join(system, "\n\n")
}

func geminiText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}
	var b strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text == "" || part.Thought {
				continue
			}
			b.WriteString(part.Text)
		}
	}
	return b.String()
}
