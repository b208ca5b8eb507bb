package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tognete/codi/pkg/coditypes"
)

const filePrefix = "conversation_"

// FilePersister stores each conversation as conversation_<created>.json in a directory.
type FilePersister struct {
	dir string
}

// NewFilePersister creates dir if needed.
func NewFilePersister(dir string) (*FilePersister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create conversation directory %s: %w", dir, err)
	}
	return &FilePersister{dir: dir}, nil
}

// HandleFor returns the handle a conversation is saved under. It is derived
// from the creation time, so repeated saves of one conversation overwrite one file.
func HandleFor(conv *coditypes.Conversation) string {
	return filePrefix + conv.CreatedAt.Format("20060102_150405")
}

// Save writes conv atomically.
func (p *FilePersister) Save(ctx context.Context, conv *coditypes.Conversation) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode conversation: %w", err)
	}

	handle := HandleFor(conv)
	tmp, err := os.CreateTemp(p.dir, handle+".*.tmp")
	if err != nil {
		return "", err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), p.path(handle)); err != nil {
		return "", err
	}
	return handle, nil
}

// Load reads the conversation saved under handle. A trailing .json is accepted.
func (p *FilePersister) Load(ctx context.Context, handle string) (*coditypes.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.path(handle))
	if err != nil {
		return nil, err
	}

	var conv coditypes.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", handle, err)
	}
	return &conv, nil
}

// List returns saved conversations, most recently updated first.
func (p *FilePersister) List(ctx context.Context) ([]Summary, error) {
	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, err
	}

	var out []Summary
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || filepath.Ext(name) != ".json" {
			continue
		}
		handle := strings.TrimSuffix(name, ".json")
		conv, err := p.Load(ctx, handle)
		if err != nil {
			continue
		}
		out = append(out, Summary{Handle: handle, ID: conv.ID, Messages: len(conv.Messages), UpdatedAt: conv.UpdatedAt})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (p *FilePersister) path(handle string) string {
	return filepath.Join(p.dir, filepath.Base(strings.TrimSuffix(handle, ".json"))+".json")
}
