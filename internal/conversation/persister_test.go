package conversation

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/pkg/coditypes"
)

func seed(s *Store) {
	s.Start("/work/codi")
	s.UpdateContext(map[string]any{"project_name": "codi"})
	s.AddMessage(coditypes.RoleUser, "hello", map[string]any{"source": "cli"})
	s.AddMessage(coditypes.RoleAssistant, "hi there", nil)
}

func assertRestored(t *testing.T, want, got *coditypes.Conversation) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.WorkspacePath, got.WorkspacePath)
	assert.Equal(t, "codi", got.Context["project_name"])
	require.Len(t, got.Messages, len(want.Messages))
	for i := range want.Messages {
		assert.Equal(t, want.Messages[i].ID, got.Messages[i].ID)
		assert.Equal(t, want.Messages[i].Role, got.Messages[i].Role)
		assert.Equal(t, want.Messages[i].Content, got.Messages[i].Content)
		assert.True(t, want.Messages[i].Timestamp.Equal(got.Messages[i].Timestamp))
	}
	assert.Equal(t, "cli", got.Messages[0].Metadata["source"])
}

func TestFilePersisterRoundTrip(t *testing.T) {
	p, err := NewFilePersister(filepath.Join(t.TempDir(), ".codi", "conversations"))
	require.NoError(t, err)

	s := NewStore(p, true)
	seed(s)
	want := s.Current()

	handle, err := s.Persist(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(handle, "conversation_"))

	// Saving again overwrites the same file.
	s.AddMessage(coditypes.RoleUser, "more", nil)
	again, err := s.Persist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, handle, again)

	list, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].Messages)

	fresh := NewStore(p, true)
	require.NoError(t, fresh.Restore(context.Background(), handle+".json"))
	got := fresh.Current()
	assert.Len(t, got.Messages, 3)
	got.Messages = got.Messages[:2]
	assertRestored(t, want, got)
}

func TestSQLitePersisterRoundTrip(t *testing.T) {
	p, err := NewSQLitePersister(filepath.Join(t.TempDir(), "codi.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	s := NewStore(p, true)
	seed(s)
	want := s.Current()

	handle, err := s.Persist(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.ID, handle)

	_, err = s.Persist(context.Background())
	require.NoError(t, err, "saving twice upserts")

	fresh := NewStore(p, true)
	require.NoError(t, fresh.Restore(context.Background(), handle))
	assertRestored(t, want, fresh.Current())

	list, err := p.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].Messages)

	assert.Error(t, fresh.Restore(context.Background(), "unknown"))
}

func TestNewPersister(t *testing.T) {
	dir := t.TempDir()

	p, err := NewPersister("json", filepath.Join(dir, "json"))
	require.NoError(t, err)
	assert.IsType(t, &FilePersister{}, p)

	p, err = NewPersister("sqlite", filepath.Join(dir, "db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLitePersister{}, p)
	assert.FileExists(t, filepath.Join(dir, "db", "conversations.db"))
	_ = p.(*SQLitePersister).Close()

	_, err = NewPersister("redis", dir)
	assert.Error(t, err)
}
