// Package conversation keeps the message history and context of one Codi session.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tognete/codi/internal/testutils"
	"github.com/tognete/codi/pkg/coditypes"
)

// DefaultRecentLimit is the history window used when a caller passes no limit.
const DefaultRecentLimit = 10

// ErrNoConversation is returned when an operation needs an active conversation.
var ErrNoConversation = errors.New("no active conversation")

// ErrNoPersister is returned by Persist and Restore on a store without storage.
var ErrNoPersister = errors.New("conversation storage not configured")

// Store holds at most one current conversation. It is created by the caller
// and handed to whoever runs turns; it is safe for concurrent use and every
// accessor returns copies, so callers never hold the live conversation.
type Store struct {
	mu        sync.RWMutex
	current   *coditypes.Conversation
	persister Persister
	testMode  bool
}

// NewStore creates an empty store. persister may be nil.
func NewStore(persister Persister, testMode bool) *Store {
	return &Store{persister: persister, testMode: testMode}
}

// Start replaces the current conversation with a new empty one.
func (s *Store) Start(workspacePath string) *coditypes.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(workspacePath).Clone()
}

func (s *Store) startLocked(workspacePath string) *coditypes.Conversation {
	now := testutils.GetCurrentTime(s.testMode)
	s.current = &coditypes.Conversation{
		ID:            testutils.GenerateUUID(s.testMode),
		Messages:      []coditypes.Message{},
		Context:       map[string]any{},
		WorkspacePath: workspacePath,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return s.current
}

// Active reports whether a conversation is current.
func (s *Store) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Current returns a copy of the current conversation, or nil.
func (s *Store) Current() *coditypes.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// AddMessage appends a message, starting a conversation first if none is active.
func (s *Store) AddMessage(role coditypes.Role, content string, metadata map[string]any) coditypes.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.startLocked("")
	}

	msg := coditypes.Message{
		ID:        testutils.GenerateUUID(s.testMode),
		Role:      role,
		Content:   content,
		Timestamp: testutils.GetCurrentTime(s.testMode),
	}
	if len(metadata) > 0 {
		msg.Metadata = coditypes.CloneMap(metadata)
	}

	s.current.Messages = append(s.current.Messages, msg)
	s.current.UpdatedAt = msg.Timestamp
	return msg
}

// Context returns a copy of the current context, empty when no conversation is active.
func (s *Store) Context() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return map[string]any{}
	}
	return coditypes.CloneMap(s.current.Context)
}

// UpdateContext merges updates into the context, last write wins per key.
func (s *Store) UpdateContext(updates map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		s.startLocked("")
	}
	for k, v := range updates {
		s.current.Context[k] = v
	}
	if path, ok := updates["workspace_path"].(string); ok {
		s.current.WorkspacePath = path
	}
	if file, ok := updates["current_file"].(string); ok {
		s.current.CurrentFile = file
	}
	if task, ok := updates["active_task"].(string); ok {
		s.current.ActiveTask = task
	}
}

// RecentMessages returns up to limit of the latest messages, oldest first.
// A limit of zero or less means DefaultRecentLimit.
func (s *Store) RecentMessages(limit int) []coditypes.Message {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return []coditypes.Message{}
	}
	msgs := s.current.Messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]coditypes.Message(nil), msgs...)
}

// Len returns the number of messages in the current conversation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return 0
	}
	return len(s.current.Messages)
}

// Clear deactivates the current conversation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Persist saves a snapshot of the current conversation and returns its handle.
func (s *Store) Persist(ctx context.Context) (string, error) {
	if s.persister == nil {
		return "", ErrNoPersister
	}
	snapshot := s.Current()
	if snapshot == nil {
		return "", ErrNoConversation
	}

	handle, err := s.persister.Save(ctx, snapshot)
	if err != nil {
		return "", fmt.Errorf("failed to persist conversation %s: %w", snapshot.ID, err)
	}
	return handle, nil
}

// Restore loads a saved conversation and makes it current.
func (s *Store) Restore(ctx context.Context, handle string) error {
	if s.persister == nil {
		return ErrNoPersister
	}

	conv, err := s.persister.Load(ctx, handle)
	if err != nil {
		return fmt.Errorf("failed to restore conversation %s: %w", handle, err)
	}
	if conv.Messages == nil {
		conv.Messages = []coditypes.Message{}
	}
	if conv.Context == nil {
		conv.Context = map[string]any{}
	}

	s.mu.Lock()
	s.current = conv
	s.mu.Unlock()
	return nil
}

// List returns the saved conversations known to the persister.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	if s.persister == nil {
		return nil, ErrNoPersister
	}
	return s.persister.List(ctx)
}
