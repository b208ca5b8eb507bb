package agent

import (
	"context"
	"sync"

	"github.com/tognete/codi/internal/conversation"
	"github.com/tognete/codi/pkg/coditypes"
)

// Session pairs an Agent with one conversation Store and serializes turns, so
// the CLI loop, the chat gateway and the HTTP server can share them.
type Session struct {
	agent *Agent
	store *conversation.Store

	mu sync.Mutex
}

// NewSession creates a Session.
func NewSession(agent *Agent, store *conversation.Store) *Session {
	return &Session{agent: agent, store: store}
}

// Agent returns the underlying agent.
func (s *Session) Agent() *Agent {
	return s.agent
}

// Store returns the conversation store.
func (s *Session) Store() *conversation.Store {
	return s.store
}

// Chat runs one turn. Cancelling ctx does not interrupt a turn that has
// already started; callers stop submitting new turns instead.
func (s *Session) Chat(ctx context.Context, message, source string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent.Chat(context.WithoutCancel(ctx), s.store, message, source)
}

// ProcessTask runs a standalone task outside the conversation.
func (s *Session) ProcessTask(ctx context.Context, task coditypes.CodingTask) (coditypes.CodeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agent.reporter.Reset()
	return s.agent.ProcessTask(ctx, task)
}

// Reset forgets the current conversation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear()
}

// Save persists the current conversation and returns its handle.
func (s *Session) Save(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Persist(ctx)
}

// Resume replaces the current conversation with a saved one.
func (s *Session) Resume(ctx context.Context, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Restore(ctx, handle)
}
