package testutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tognete/codi/pkg/coditypes"
)

// ErrScriptExhausted is returned when a ScriptedClient runs out of replies.
var ErrScriptExhausted = errors.New("scripted client has no more replies")

// ScriptedReply is one canned completion.
type ScriptedReply struct {
	Text  string
	Err   error
	Delay time.Duration
}

// ScriptedClient is an LLMClient that returns canned replies in order and
// records every request it receives.
type ScriptedClient struct {
	mu       sync.Mutex
	replies  []ScriptedReply
	requests []coditypes.CompletionRequest
}

// NewScriptedClient creates a client that answers with texts in order.
func NewScriptedClient(texts ...string) *ScriptedClient {
	c := &ScriptedClient{}
	for _, text := range texts {
		c.replies = append(c.replies, ScriptedReply{Text: text})
	}
	return c
}

// Enqueue appends replies to the script.
func (c *ScriptedClient) Enqueue(replies ...ScriptedReply) *ScriptedClient {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, replies...)
	return c
}

// Complete pops the next reply, honoring its delay and ctx.
func (c *ScriptedClient) Complete(ctx context.Context, req coditypes.CompletionRequest) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	if len(c.replies) == 0 {
		c.mu.Unlock()
		return "", ErrScriptExhausted
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	c.mu.Unlock()

	if reply.Delay > 0 {
		select {
		case <-time.After(reply.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return reply.Text, reply.Err
}

// GetProviderName returns "scripted".
func (c *ScriptedClient) GetProviderName() string {
	return "scripted"
}

// IsConfigured always returns true.
func (c *ScriptedClient) IsConfigured() bool {
	return true
}

// Requests returns a copy of the requests received so far.
func (c *ScriptedClient) Requests() []coditypes.CompletionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]coditypes.CompletionRequest(nil), c.requests...)
}

// EchoClient answers every request with the last user message. Used when the
// CLI runs in test mode without provider credentials.
type EchoClient struct{}

// Complete returns "echo: " followed by the most recent user message.
func (EchoClient) Complete(ctx context.Context, req coditypes.CompletionRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == coditypes.RoleUser {
			return "echo: " + req.Messages[i].Content, nil
		}
	}
	return "echo:", nil
}

// GetProviderName returns "echo".
func (EchoClient) GetProviderName() string {
	return "echo"
}

// IsConfigured always returns true.
func (EchoClient) IsConfigured() bool {
	return true
}
