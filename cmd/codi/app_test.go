package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/internal/agent"
	"github.com/tognete/codi/internal/config"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/testutils"
	"github.com/tognete/codi/internal/workspace"
	"github.com/tognete/codi/pkg/coditypes"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Provider:          "openai",
		Model:             "gpt-4o",
		Workspace:         testutils.CreateWorkspace(t, map[string]string{"main.go": "package main\n"}),
		StorageDriver:     "json",
		StoragePath:       filepath.Join(".codi", "conversations"),
		Autosave:          true,
		HeartbeatInterval: time.Second,
		HeartbeatTick:     10 * time.Millisecond,
		TestMode:          true,
	}
}

func TestNewApp_TestModeChat(t *testing.T) {
	cfg := testConfig(t)
	printer, _ := output.NewCapturePrinter()

	a, err := newApp(cfg, printer)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, filepath.Base(cfg.Workspace), a.workspace.ProjectName)

	reply := a.session.Chat(context.Background(), "what does main.go do?", agent.SourceCLI)
	assert.Equal(t, agent.StateDone, reply.State)
	assert.Equal(t, "echo: what does main.go do?", reply.Text)

	saved, err := a.persister.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].Messages)
	assert.DirExists(t, filepath.Join(cfg.Workspace, ".codi", "conversations"))
}

func TestNewApp_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Provider = "nope"
	printer, _ := output.NewCapturePrinter()

	_, err := newApp(cfg, printer)
	assert.ErrorContains(t, err, "unsupported provider")
}

func TestNewApp_RegistersServices(t *testing.T) {
	printer, _ := output.NewCapturePrinter()
	a, err := newApp(testConfig(t), printer)
	require.NoError(t, err)
	defer a.Close()

	for _, name := range []string{"client_factory", "debug-transport", "diff", "markdown"} {
		_, err := a.registry.GetService(name)
		assert.NoError(t, err, name)
	}
	assert.Nil(t, markdownRenderer(a), "test mode prints raw markdown")
	assert.NotNil(t, diffService(a))
}

func TestCompletionClient(t *testing.T) {
	cfg := testConfig(t)
	registry, err := newRegistry(cfg)
	require.NoError(t, err)

	client, err := completionClient(cfg, registry)
	require.NoError(t, err)
	assert.Equal(t, "echo", client.GetProviderName())

	cfg.OpenAIKey = "sk-test"
	client, err = completionClient(cfg, registry)
	require.NoError(t, err)
	assert.Equal(t, "openai", client.GetProviderName())
}

func TestOpenPersister(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "sqlite"
	ws := workspace.FromPath(cfg.Workspace)

	p, err := openPersister(cfg, ws)
	require.NoError(t, err)
	defer closePersister(p)
	assert.FileExists(t, filepath.Join(cfg.Workspace, ".codi", "conversations", "conversations.db"))

	abs := filepath.Join(t.TempDir(), "store")
	cfg.StorageDriver = "json"
	cfg.StoragePath = abs
	p2, err := openPersister(cfg, ws)
	require.NoError(t, err)
	defer closePersister(p2)
	assert.DirExists(t, abs)
}

func TestDetectWorkspace_Explicit(t *testing.T) {
	cfg := testConfig(t)
	assert.Equal(t, cfg.Workspace, detectWorkspace(cfg).Path)
}

func TestPullRequestBody(t *testing.T) {
	body := pullRequestBody("add a health check", coditypes.CodeResponse{
		Explanation: "Adds /health",
		Suggestions: []string{"💡 add tests"},
	})
	assert.Contains(t, body, "## Description\nadd a health check")
	assert.Contains(t, body, "## Explanation\nAdds /health")
	assert.Contains(t, body, "## Suggestions\n- 💡 add tests")

	assert.NotContains(t, pullRequestBody("x", coditypes.CodeResponse{}), "## Suggestions")
}
