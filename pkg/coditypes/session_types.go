// Package coditypes defines the shared data model for Codi.
// This file contains the conversation types kept by the conversation store.
package coditypes

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	// RoleUser marks messages written by the operator.
	RoleUser Role = "user"
	// RoleAssistant marks messages produced by Codi.
	RoleAssistant Role = "assistant"
	// RoleSystem marks instructions injected for the completion backend.
	RoleSystem Role = "system"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Message is a single conversation entry. Messages are never mutated after creation.
type Message struct {
	ID        string         `json:"id"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// Conversation is the ordered history plus free-form context of one session.
type Conversation struct {
	ID            string         `json:"id"`
	Messages      []Message      `json:"messages"`
	Context       map[string]any `json:"context"`
	WorkspacePath string         `json:"workspace_path,omitempty"`
	CurrentFile   string         `json:"current_file,omitempty"`
	ActiveTask    string         `json:"active_task,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the conversation's slices and maps.
// Message metadata maps are shared since messages are immutable.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	out.Context = CloneMap(c.Context)
	return &out
}

// CloneMap returns a shallow copy of m, never nil.
func CloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
