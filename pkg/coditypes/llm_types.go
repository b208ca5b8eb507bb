package coditypes

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotImplemented is returned for task kinds with no pipeline.
var ErrNotImplemented = errors.New("not implemented")

// CompletionMessage is one role-tagged entry sent to a completion backend.
type CompletionMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a single call to a completion backend.
type CompletionRequest struct {
	Messages    []CompletionMessage `json:"messages"`
	Temperature float64             `json:"temperature"`
	Model       string              `json:"model,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

// LLMClient produces text completions. Implementations must honor ctx cancellation.
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	GetProviderName() string
	IsConfigured() bool
}

// BackendErrorKind classifies completion backend failures.
type BackendErrorKind string

const (
	// BackendNetwork covers transport failures and timeouts.
	BackendNetwork BackendErrorKind = "network"
	// BackendRateLimit covers quota and throttling responses.
	BackendRateLimit BackendErrorKind = "rate_limit"
	// BackendAuth covers missing or rejected credentials.
	BackendAuth BackendErrorKind = "auth"
	// BackendMalformed covers empty or unparseable responses.
	BackendMalformed BackendErrorKind = "malformed"
)

// BackendError wraps a failure from a completion backend.
type BackendError struct {
	Provider string
	Kind     BackendErrorKind
	Err      error
}

// NewBackendError builds a BackendError.
func NewBackendError(provider string, kind BackendErrorKind, err error) *BackendError {
	return &BackendError{Provider: provider, Kind: kind, Err: err}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s backend error (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// IsBackendError reports whether err carries a BackendError of the given kind.
// An empty kind matches any backend error.
func IsBackendError(err error, kind BackendErrorKind) bool {
	var be *BackendError
	if !errors.As(err, &be) {
		return false
	}
	return kind == "" || be.Kind == kind
}
