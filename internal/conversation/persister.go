package conversation

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tognete/codi/pkg/coditypes"
)

// Persister stores conversation snapshots.
type Persister interface {
	// Save writes conv and returns a handle that Load accepts.
	Save(ctx context.Context, conv *coditypes.Conversation) (string, error)
	// Load reads the conversation stored under handle.
	Load(ctx context.Context, handle string) (*coditypes.Conversation, error)
	// List returns stored conversations, most recently updated first.
	List(ctx context.Context) ([]Summary, error)
}

// Summary describes a stored conversation.
type Summary struct {
	Handle    string    `json:"handle"`
	ID        string    `json:"id"`
	Messages  int       `json:"messages"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPersister builds the persister for driver ("json" or "sqlite") rooted at path.
// For sqlite, a path without a .db extension is treated as a directory.
func NewPersister(driver, path string) (Persister, error) {
	switch driver {
	case "", "json":
		return NewFilePersister(path)
	case "sqlite":
		if filepath.Ext(path) != ".db" {
			path = filepath.Join(path, "conversations.db")
		}
		return NewSQLitePersister(path)
	default:
		return nil, fmt.Errorf("unsupported conversation driver %q", driver)
	}
}
