package services

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/pkg/coditypes"
)

// Providers lists the supported completion backends.
var Providers = []string{"openai", "anthropic", "gemini", "local"}

// ClientFactory creates completion clients and caches them per provider and credential.
type ClientFactory struct {
	initialized  bool
	localBaseURL string
	transport    http.RoundTripper

	mutex   sync.RWMutex
	clients map[string]coditypes.LLMClient
}

// NewClientFactory creates a factory. localBaseURL is the server used by the
// "local" provider; transport may be nil.
func NewClientFactory(localBaseURL string, transport http.RoundTripper) *ClientFactory {
	return &ClientFactory{
		localBaseURL: localBaseURL,
		transport:    transport,
		clients:      make(map[string]coditypes.LLMClient),
	}
}

// Name returns "client_factory".
func (f *ClientFactory) Name() string {
	return "client_factory"
}

// Initialize marks the factory ready.
func (f *ClientFactory) Initialize() error {
	f.initialized = true
	return nil
}

// GetClientForProvider returns a cached or new client for provider.
func (f *ClientFactory) GetClientForProvider(provider, apiKey string) (coditypes.LLMClient, error) {
	if !f.initialized {
		return nil, fmt.Errorf("client factory not initialized")
	}
	if provider == "" {
		return nil, fmt.Errorf("provider cannot be empty")
	}
	if apiKey == "" && provider != "local" {
		return nil, fmt.Errorf("API key cannot be empty for provider '%s'", provider)
	}

	cacheKey := provider + ":" + apiKey

	f.mutex.RLock()
	if client, exists := f.clients[cacheKey]; exists {
		f.mutex.RUnlock()
		logger.Debug("Returning cached provider client", "provider", provider)
		return client, nil
	}
	f.mutex.RUnlock()

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if client, exists := f.clients[cacheKey]; exists {
		return client, nil
	}

	var client coditypes.LLMClient
	switch provider {
	case "openai":
		client = NewOpenAIClient(apiKey, f.transport)
	case "anthropic":
		client = NewAnthropicClient(apiKey, f.transport)
	case "gemini":
		client = NewGeminiClient(apiKey, f.transport)
	case "local":
		client = NewLangChainClient(f.localBaseURL, apiKey, f.transport)
	default:
		return nil, fmt.Errorf("unsupported provider '%s'. Supported providers: openai, anthropic, gemini, local", provider)
	}

	f.clients[cacheKey] = client
	logger.Debug("Created new provider client", "provider", provider)
	return client, nil
}

// CachedClientCount returns the number of cached clients.
func (f *ClientFactory) CachedClientCount() int {
	f.mutex.RLock()
	defer f.mutex.RUnlock()
	return len(f.clients)
}

// ClearCache drops every cached client.
func (f *ClientFactory) ClearCache() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.clients = make(map[string]coditypes.LLMClient)
}
