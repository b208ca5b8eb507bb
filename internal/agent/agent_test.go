package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/tognete/codi/internal/conversation"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/testutils"
	"github.com/tognete/codi/internal/workflow"
	"github.com/tognete/codi/internal/workspace"
	"github.com/tognete/codi/pkg/coditypes"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fastHeartbeat = workflow.HeartbeatOptions{Interval: 50 * time.Millisecond, Tick: 5 * time.Millisecond}

func newTestAgent(t *testing.T, client coditypes.LLMClient, ws workspace.Info) (*Agent, *conversation.Store, *output.CaptureBuffer) {
	t.Helper()
	printer, buf := output.NewCapturePrinter()
	a := New(client, workflow.NewReporter(printer), Options{
		Model:     "test-model",
		Heartbeat: fastHeartbeat,
		Workspace: ws,
	})
	return a, conversation.NewStore(nil, true), buf
}

func TestChat_PlainReply(t *testing.T) {
	client := testutils.NewScriptedClient("Hello! How can I help?")
	a, store, buf := newTestAgent(t, client, workspace.Info{Path: "/src/codi", ProjectName: "codi"})

	reply := a.Chat(context.Background(), store, "hello there", SourceCLI)

	assert.Equal(t, "Hello! How can I help?", reply.Text)
	assert.Equal(t, StateDone, reply.State)
	assert.Nil(t, reply.Task)

	conv := store.Current()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, coditypes.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "cli", conv.Messages[0].Metadata["source"])
	assert.Equal(t, coditypes.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, "codi", store.Context()["project_name"])

	reqs := client.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, ChatTemperature, reqs[0].Temperature)
	assert.Equal(t, "test-model", reqs[0].Model)
	assert.Equal(t, coditypes.RoleSystem, reqs[0].Messages[0].Role)
	assert.Equal(t, "hello there", reqs[0].Messages[len(reqs[0].Messages)-1].Content)

	assert.True(t, buf.Contains("Step 1: Starting new conversation"))
	assert.True(t, buf.Contains("Initializing conversation context"))
	assert.True(t, buf.Contains("Thinking about response using test-model"))
	assert.True(t, buf.Contains("Response ready"))
}

func TestChat_SecondTurnReusesConversation(t *testing.T) {
	client := testutils.NewScriptedClient("one", "two")
	a, store, buf := newTestAgent(t, client, workspace.Info{})

	a.Chat(context.Background(), store, "first", SourceCLI)
	buf.Reset()
	a.Chat(context.Background(), store, "second", SourceGateway)

	assert.False(t, buf.Contains("Initializing conversation context"))
	assert.Equal(t, 4, store.Len())

	history := client.Requests()[1].Messages
	assert.Equal(t, "second", history[len(history)-1].Content)
	assert.Equal(t, "one", history[len(history)-2].Content)
}

func TestChat_AnalyzeTask(t *testing.T) {
	client := testutils.NewScriptedClient("Sure, let me look.", "You should add tests.\nThe structure is fine.")
	root := testutils.CreateWorkspace(t, map[string]string{"main.go": "package main"})
	a, store, _ := newTestAgent(t, client, workspace.FromPath(root))

	reply := a.Chat(context.Background(), store, "please analyze this function", SourceCLI)

	assert.Equal(t, "Sure, let me look.\n\nYou should add tests.\nThe structure is fine.", reply.Text)
	require.NotNil(t, reply.Task)
	assert.Equal(t, []string{"You should add tests."}, reply.Task.Suggestions)
	assert.Equal(t, "Code analysis completed successfully", reply.Task.Explanation)

	reqs := client.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, TaskTemperature, reqs[1].Temperature)
	assert.Contains(t, reqs[1].Messages[1].Content, "File: main.go")
}

func TestChat_GenerateTask(t *testing.T) {
	client := testutils.NewScriptedClient(
		"On it.",
		"Here you go:\n```go parser.go\npackage parser\n```",
		"Consider adding docs.\nIt parses input.",
	)
	a, store, _ := newTestAgent(t, client, workspace.Info{})

	reply := a.Chat(context.Background(), store, "write a new parser", SourceCLI)

	require.NotNil(t, reply.Task)
	assert.Equal(t, map[string]string{"parser.go": "package parser"}, reply.Task.CodeChanges)
	assert.Equal(t, []string{"Consider adding docs."}, reply.Task.Suggestions)
	assert.True(t, strings.HasPrefix(reply.Text, "On it.\n\nHere you go:"))

	reqs := client.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "Here you go:\n```go parser.go\npackage parser\n```", reqs[2].Messages[2].Content)
}

func TestChat_TaskBackendErrorBecomesSolution(t *testing.T) {
	client := testutils.NewScriptedClient("On it.")
	client.Enqueue(testutils.ScriptedReply{Err: coditypes.NewBackendError("scripted", coditypes.BackendRateLimit, errors.New("slow down"))})
	a, store, _ := newTestAgent(t, client, workspace.Info{})

	reply := a.Chat(context.Background(), store, "create a cache", SourceCLI)

	assert.Equal(t, StateDone, reply.State)
	assert.Contains(t, reply.Text, "On it.\n\nError processing task: error during code generation:")
	require.NotNil(t, reply.Task)
	assert.Equal(t, "An error occurred", reply.Task.Explanation)
}

func TestChat_BackendFailure(t *testing.T) {
	client := testutils.NewScriptedClient()
	client.Enqueue(testutils.ScriptedReply{Err: errors.New("connection reset")})
	a, store, buf := newTestAgent(t, client, workspace.Info{})

	reply := a.Chat(context.Background(), store, "hello", SourceGateway)

	assert.Equal(t, StateFailed, reply.State)
	assert.Equal(t, "I encountered a technical issue: connection reset. I'll adjust my approach to resolve this.", reply.Text)

	conv := store.Current()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, reply.Text, conv.Messages[1].Content)
	assert.Equal(t, "chat-gateway", conv.Messages[1].Metadata["source"])
	assert.True(t, buf.Contains("❌ connection reset"))
}

func TestChat_FileOperation(t *testing.T) {
	t.Run("scans the workspace", func(t *testing.T) {
		root := testutils.CreateWorkspace(t, map[string]string{"a.go": "", "pkg/b.go": "", "README": ""})
		client := testutils.NewScriptedClient("Let me count.")
		a, store, buf := newTestAgent(t, client, workspace.FromPath(root))

		reply := a.Chat(context.Background(), store, "how many files are in this repo?", SourceCLI)

		assert.Equal(t, "Let me count.\n\nRepository Statistics:\n- Total files: 3\n- Total directories: 1\n\nFile types:\n- .go: 2 files\n- no extension: 1 files\n", reply.Text)
		assert.True(t, buf.Contains("File operation requested using File System"))
		assert.True(t, buf.Contains("Found 3 files in 1 directories"))
		assert.True(t, buf.Contains("File operation completed"))
	})

	t.Run("no workspace", func(t *testing.T) {
		a, store, _ := newTestAgent(t, testutils.NewScriptedClient("Sure."), workspace.Info{})
		reply := a.Chat(context.Background(), store, "list the folder", SourceCLI)
		assert.Equal(t, "Sure.\n\nI don't have a workspace path configured. Please make sure you're in a valid project directory.", reply.Text)
	})

	t.Run("scan failure is appended", func(t *testing.T) {
		missing := workspace.Info{Path: t.TempDir() + "/gone", ProjectName: "gone"}
		a, store, _ := newTestAgent(t, testutils.NewScriptedClient("Sure."), missing)
		reply := a.Chat(context.Background(), store, "count the directories", SourceCLI)
		assert.Equal(t, StateDone, reply.State)
		assert.Contains(t, reply.Text, "Sure.\n\nI encountered an error while checking the files: ")
	})
}

func TestChat_HeartbeatWhileThinking(t *testing.T) {
	client := testutils.NewScriptedClient()
	client.Enqueue(testutils.ScriptedReply{Text: "done", Delay: 180 * time.Millisecond})
	a, store, buf := newTestAgent(t, client, workspace.Info{})

	reply := a.Chat(context.Background(), store, "hello", SourceCLI)

	assert.Equal(t, "done", reply.Text)
	assert.GreaterOrEqual(t, buf.Count("Thinking for"), 2)
	assert.True(t, buf.Contains("(on: Thinking about response)"))
}

func TestChat_Autosave(t *testing.T) {
	persister, err := conversation.NewFilePersister(t.TempDir())
	require.NoError(t, err)
	printer, _ := output.NewCapturePrinter()
	a := New(testutils.NewScriptedClient("hi"), workflow.NewReporter(printer), Options{Autosave: true, Heartbeat: fastHeartbeat})
	store := conversation.NewStore(persister, true)

	a.Chat(context.Background(), store, "hello", SourceCLI)

	saved, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, 2, saved[0].Messages)
}

func TestTurnState(t *testing.T) {
	assert.Equal(t, "AWAITING_COMPLETION", StateAwaitingCompletion.String())
	assert.Equal(t, "UNKNOWN", TurnState(42).String())
	assert.True(t, StateFailed.Terminal())
	assert.False(t, StateClassified.Terminal())
}

type panickingClient struct{}

func (panickingClient) Complete(context.Context, coditypes.CompletionRequest) (string, error) {
	var seen map[string]bool
	seen["request"] = true
	return "", nil
}

func (panickingClient) GetProviderName() string { return "panicking" }

func (panickingClient) IsConfigured() bool { return true }

func TestChat_BackendPanicBecomesFailedTurn(t *testing.T) {
	a, store, _ := newTestAgent(t, panickingClient{}, workspace.Info{})

	reply := a.Chat(context.Background(), store, "hello", SourceCLI)

	assert.Equal(t, StateFailed, reply.State)
	assert.Contains(t, reply.Text, "I encountered a technical issue: unexpected failure: assignment to entry in nil map")

	conv := store.Current()
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, reply.Text, conv.Messages[1].Content)
	assert.Empty(t, a.Reporter().ActiveSteps())
}

func TestChat_StepStackBalanced(t *testing.T) {
	tests := []struct {
		name    string
		client  *testutils.ScriptedClient
		message string
		ws      func(t *testing.T) workspace.Info
		state   TurnState
	}{
		{
			name:    "plain reply",
			client:  testutils.NewScriptedClient("Hi there"),
			message: "hello there",
			state:   StateDone,
		},
		{
			name:    "task pipeline",
			client:  testutils.NewScriptedClient("On it.", "Looks fine. Consider tests.", "done"),
			message: "analyze the parser",
			state:   StateDone,
		},
		{
			name:    "file operation",
			client:  testutils.NewScriptedClient("Counting."),
			message: "how many files?",
			ws: func(t *testing.T) workspace.Info {
				return workspace.FromPath(testutils.CreateWorkspace(t, map[string]string{"a.go": ""}))
			},
			state: StateDone,
		},
		{
			name:    "file operation without workspace",
			client:  testutils.NewScriptedClient("Counting."),
			message: "how many files?",
			state:   StateDone,
		},
		{
			name:    "backend failure",
			client:  testutils.NewScriptedClient().Enqueue(testutils.ScriptedReply{Err: errors.New("connection reset")}),
			message: "hello",
			state:   StateFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws := workspace.Info{}
			if tt.ws != nil {
				ws = tt.ws(t)
			}
			a, store, _ := newTestAgent(t, tt.client, ws)

			reply := a.Chat(context.Background(), store, tt.message, SourceCLI)

			assert.Equal(t, tt.state, reply.State)
			assert.Empty(t, a.Reporter().ActiveSteps())
			assert.Positive(t, a.Reporter().StepCount())
		})
	}
}
