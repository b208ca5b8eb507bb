package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/pkg/coditypes"
)

func newTask(kind coditypes.TaskType) coditypes.CodingTask {
	return coditypes.CodingTask{
		TaskType:    kind,
		Description: "review the parser",
		Context: coditypes.CodeContext{
			Files: map[string]string{
				"b.py": "print('b')",
				"a.py": "print('a')",
			},
		},
	}
}

func TestRenderFilesSortedAndFenced(t *testing.T) {
	got := RenderFiles(map[string]string{"z.go": "package z", "a.go": "package a"})
	assert.Equal(t, "File: a.go\n```\npackage a\n```\n\nFile: z.go\n```\npackage z\n```", got)
	assert.Empty(t, RenderFiles(nil))
}

func TestChatMessages(t *testing.T) {
	b := NewBuilder(DefaultPersonality())
	history := []coditypes.Message{
		{Role: coditypes.RoleUser, Content: "hello"},
		{Role: coditypes.RoleAssistant, Content: "hi"},
	}
	ws := Workspace{ProjectName: "codi", Path: "/src/codi"}

	msgs := b.ChatMessages(ws, map[string]any{"project_name": "codi"}, history)
	require.Len(t, msgs, 5)

	assert.Equal(t, coditypes.RoleSystem, msgs[0].Role)
	assert.True(t, strings.HasPrefix(msgs[0].Content, "You are Codi, an AI Senior Software Developer"))
	assert.Contains(t, msgs[0].Content, "- Project: codi")
	assert.Contains(t, msgs[0].Content, "7. Be proactive in suggesting architectural improvements")

	assert.Contains(t, msgs[1].Content, "You are actively working in the project 'codi' located at /src/codi.")
	assert.Equal(t, `Current conversation context: {"project_name":"codi"}`, msgs[2].Content)
	assert.Equal(t, coditypes.CompletionMessage{Role: coditypes.RoleUser, Content: "hello"}, msgs[3])
	assert.Equal(t, coditypes.RoleAssistant, msgs[4].Role)
}

func TestChatMessagesWithoutWorkspaceOrContext(t *testing.T) {
	b := NewBuilder(DefaultPersonality())
	msgs := b.ChatMessages(Workspace{}, nil, nil)

	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "- Location: Not yet determined")
}

func TestAnalysisPrompt(t *testing.T) {
	msgs := NewBuilder(DefaultPersonality()).Analysis(newTask(coditypes.TaskAnalyze))

	require.Len(t, msgs, 2)
	assert.Equal(t, analysisSystem, msgs[0].Content)
	assert.True(t, strings.HasPrefix(msgs[1].Content, "As a senior software developer, analyze the following code:"))
	assert.Less(t, strings.Index(msgs[1].Content, "File: a.py"), strings.Index(msgs[1].Content, "File: b.py"))
	assert.True(t, strings.HasSuffix(msgs[1].Content, "Task description: review the parser"))
}

func TestGenerationPrompts(t *testing.T) {
	task := newTask(coditypes.TaskGenerate)
	task.Context.Language = "go"
	task.Requirements = []string{"no globals", "context aware"}
	b := NewBuilder(DefaultPersonality())

	first := b.Generation(task)
	require.Len(t, first, 2)
	assert.Equal(t, generationSystem, first[0].Content)
	assert.Contains(t, first[1].Content, "\nPreferred language: go")
	assert.Contains(t, first[1].Content, "\nSpecific requirements:\n- no globals\n- context aware")
	assert.Contains(t, first[1].Content, "\nExisting project files:\nFile: a.py")

	follow := b.GenerationFollowUp(task, "package main")
	require.Len(t, follow, 4)
	assert.Equal(t, first[1], follow[1])
	assert.Equal(t, coditypes.CompletionMessage{Role: coditypes.RoleAssistant, Content: "package main"}, follow[2])
	assert.Equal(t, explanationRequest, follow[3].Content)
}

func TestReviewPrompts(t *testing.T) {
	task := newTask(coditypes.TaskReview)
	b := NewBuilder(DefaultPersonality())

	first := b.Review(task)
	assert.Equal(t, reviewSystem, first[0].Content)
	assert.Contains(t, first[1].Content, "perform a comprehensive code review")

	follow := b.ReviewFollowUp(task, "looks fine")
	require.Len(t, follow, 4)
	assert.Equal(t, improvementSystem, follow[0].Content)
	assert.Equal(t, "looks fine", follow[2].Content)
	assert.Equal(t, improvementRequest, follow[3].Content)
}

func TestBuildersAreDeterministic(t *testing.T) {
	b := NewBuilder(DefaultPersonality())
	task := newTask(coditypes.TaskReview)
	for i := 0; i < 5; i++ {
		assert.Equal(t, b.Review(task), b.Review(task))
		assert.Equal(t, b.Generation(task), b.Generation(task))
	}
}

func TestPersonality(t *testing.T) {
	p := DefaultPersonality()
	assert.Equal(t, "Codi", p.Name)
	assert.Len(t, p.Capabilities, 5)

	assert.Equal(t,
		"👋 Hello! I'm Codi, your AI senior software developer. I'm currently working in the codi project and have full access to the codebase. Let's write some excellent code together.",
		p.Greeting("codi"))

	_, err := ParsePersonality([]byte("style: terse"))
	assert.Error(t, err)
	_, err = ParsePersonality([]byte("name: [unclosed"))
	assert.Error(t, err)
}
