// Package agent runs chat turns: it records messages, asks the completion
// backend for a reply, and dispatches coding tasks found in the message.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/tognete/codi/internal/classifier"
	"github.com/tognete/codi/internal/conversation"
	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/internal/prompt"
	"github.com/tognete/codi/internal/workflow"
	"github.com/tognete/codi/internal/workspace"
	"github.com/tognete/codi/pkg/coditypes"
)

// Sampling temperatures.
const (
	ChatTemperature = 0.7
	TaskTemperature = 0.2
)

// Message sources.
const (
	SourceCLI     = "cli"
	SourceGateway = "chat-gateway"
	SourceAPI     = "api"
)

// Options configure an Agent.
type Options struct {
	Model        string
	Heartbeat    workflow.HeartbeatOptions
	Workspace    workspace.Info
	MaxFileBytes int64
	Personality  *prompt.Personality
	// Autosave persists the conversation after every turn.
	Autosave bool
}

// Reply is the outcome of a chat turn.
type Reply struct {
	Text  string
	State TurnState
	// Task is set when the message ran a task pipeline.
	Task *coditypes.CodeResponse
}

// Agent is stateless across turns; conversation state lives in the Store the
// caller passes to Chat. It is not safe to run two turns against the same
// Store concurrently; use Session for that.
type Agent struct {
	client   coditypes.LLMClient
	reporter *workflow.Reporter
	builder  *prompt.Builder
	opts     Options
}

// New creates an Agent.
func New(client coditypes.LLMClient, reporter *workflow.Reporter, opts Options) *Agent {
	personality := prompt.DefaultPersonality()
	if opts.Personality != nil {
		personality = *opts.Personality
	}
	if opts.MaxFileBytes <= 0 {
		opts.MaxFileBytes = workspace.DefaultMaxFileBytes
	}
	return &Agent{
		client:   client,
		reporter: reporter,
		builder:  prompt.NewBuilder(personality),
		opts:     opts,
	}
}

// Workspace returns the workspace the agent works in.
func (a *Agent) Workspace() workspace.Info {
	return a.opts.Workspace
}

// Reporter returns the progress reporter.
func (a *Agent) Reporter() *workflow.Reporter {
	return a.reporter
}

type turn struct {
	state TurnState
}

func (t *turn) to(next TurnState) {
	logger.TurnTransition(t.state, next)
	t.state = next
}

// Chat runs one turn for message against store. It never returns an error:
// failures are recorded in the conversation and returned as reply text.
func (a *Agent) Chat(ctx context.Context, store *conversation.Store, message, source string) (reply Reply) {
	t := &turn{state: StateStart}
	meta := map[string]any{"source": source}

	defer func() {
		if r := recover(); r != nil {
			reply = a.fail(store, t, meta, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	text, task, err := a.runTurn(ctx, store, t, message, meta)
	if err != nil {
		return a.fail(store, t, meta, err)
	}

	t.to(StateDone)
	a.autosave(ctx, store)
	return Reply{Text: text, State: t.state, Task: task}
}

func (a *Agent) runTurn(ctx context.Context, store *conversation.Store, t *turn, message string, meta map[string]any) (string, *coditypes.CodeResponse, error) {
	a.reporter.Reset()
	a.reporter.LogStep("Starting new conversation", "", "Message: "+truncateRunes(message, 100)+"...")
	a.reporter.LogResult(true, "Message received")

	if !store.Active() {
		a.reporter.LogStep("Initializing conversation context", "", "")
		store.Start(a.opts.Workspace.Path)
		if !a.opts.Workspace.Empty() {
			store.UpdateContext(map[string]any{
				"workspace_path": a.opts.Workspace.Path,
				"project_name":   a.opts.Workspace.ProjectName,
			})
		}
		a.reporter.LogResult(true, "Conversation started")
	}
	store.AddMessage(coditypes.RoleUser, message, meta)

	t.to(StateContextReady)
	a.reporter.LogStep("Preparing conversation context", "", "")
	convContext := store.Context()
	history := store.RecentMessages(conversation.DefaultRecentLimit)
	a.reporter.LogResult(true, fmt.Sprintf("Loaded %d recent messages", len(history)))

	a.reporter.LogStep("Building conversation history", "", "")
	messages := a.builder.ChatMessages(a.promptWorkspace(), convContext, history)
	a.reporter.LogResult(true, "Prompt assembled")

	t.to(StateAwaitingCompletion)
	a.reporter.LogStep("Thinking about response", a.opts.Model, "Analyzing request and planning actions")
	hb := a.opts.Heartbeat
	hb.Format = "Thinking for %.1fs..."
	answer, err := workflow.Await(ctx, a.reporter, hb, func(ctx context.Context) (string, error) {
		return a.complete(ctx, messages, ChatTemperature)
	})
	if err != nil {
		return "", nil, err
	}
	a.reporter.LogResult(true, "Response received")
	store.AddMessage(coditypes.RoleAssistant, answer, meta)

	t.to(StateClassified)
	if kind, ok := classifier.Classify(message); ok {
		a.reporter.LogStep("Identified task type: "+string(kind), "", "")
		a.reporter.LogResult(true, "Running task pipeline")
		t.to(StateTaskPipeline)

		task := coditypes.CodingTask{
			TaskType:    kind,
			Description: message,
			Context:     workspace.LoadCodeContext(a.opts.Workspace.Path, a.opts.MaxFileBytes),
		}
		resp, err := a.ProcessTask(ctx, task)
		if err != nil {
			return "", nil, err
		}

		a.reporter.LogStep("Task completed", "", "Combined conversation and task responses")
		a.reporter.LogResult(true, "Task response ready")
		return answer + "\n\n" + resp.Solution, &resp, nil
	}

	if classifier.IsFileOperation(message) {
		a.reporter.LogStep("File operation requested", "File System", "Scanning repository...")
		hb.Format = "Scanning files for %.1fs..."
		summary, err := workflow.Await(ctx, a.reporter, hb, func(context.Context) (string, error) {
			return a.scanWorkspace()
		})
		if err != nil {
			a.reporter.LogResult(false, "File operation failed: "+err.Error())
			return answer + "\n\nI encountered an error while checking the files: " + err.Error(), nil, nil
		}
		a.reporter.LogResult(true, "File operation completed")
		return answer + "\n\n" + summary, nil, nil
	}

	a.reporter.LogStep("Response ready", "", "Conversation complete")
	a.reporter.LogResult(true, "Reply sent")
	return answer, nil, nil
}

func (a *Agent) fail(store *conversation.Store, t *turn, meta map[string]any, err error) Reply {
	text := fmt.Sprintf("I encountered a technical issue: %s. I'll adjust my approach to resolve this.", err)
	store.AddMessage(coditypes.RoleAssistant, text, meta)
	a.reporter.Unwind(err.Error())
	logger.Error("Chat turn failed", "state", t.state.String(), "error", err)
	t.to(StateFailed)
	return Reply{Text: text, State: t.state}
}

func (a *Agent) autosave(ctx context.Context, store *conversation.Store) {
	if !a.opts.Autosave {
		return
	}
	handle, err := store.Persist(ctx)
	switch {
	case errors.Is(err, conversation.ErrNoPersister):
	case err != nil:
		logger.Warn("Failed to save conversation", "error", err)
	default:
		logger.Debug("Conversation saved", "handle", handle)
	}
}

func (a *Agent) scanWorkspace() (string, error) {
	a.reporter.LogStep("Starting file operation", "File System", "")
	if a.opts.Workspace.Empty() {
		a.reporter.LogResult(true, "No workspace configured")
		return "I don't have a workspace path configured. Please make sure you're in a valid project directory.", nil
	}

	stats, err := workspace.Scan(a.opts.Workspace.Path)
	if err != nil {
		a.reporter.LogResult(false, "Error scanning files: "+err.Error())
		return "", err
	}
	a.reporter.LogResult(true, fmt.Sprintf("Found %d files in %d directories", stats.Files, stats.Directories))
	return stats.Summary(), nil
}

func (a *Agent) complete(ctx context.Context, messages []coditypes.CompletionMessage, temperature float64) (string, error) {
	return a.client.Complete(ctx, coditypes.CompletionRequest{
		Messages:    messages,
		Temperature: temperature,
		Model:       a.opts.Model,
	})
}

func (a *Agent) promptWorkspace() prompt.Workspace {
	return prompt.Workspace{ProjectName: a.opts.Workspace.ProjectName, Path: a.opts.Workspace.Path}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func isGreeting(description string) bool {
	switch strings.ToLower(strings.TrimSpace(description)) {
	case "hi", "hello", "test":
		return true
	}
	return false
}
