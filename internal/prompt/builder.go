// Package prompt assembles the role-tagged messages sent to the completion
// backend. Every function is pure: identical input gives identical output.
package prompt

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/tognete/codi/pkg/coditypes"
)

// Workspace identifies the project the assistant is working in.
type Workspace struct {
	ProjectName string
	Path        string
}

// Builder produces message lists for chat turns and task pipelines.
type Builder struct {
	personality Personality
}

// NewBuilder creates a Builder for personality.
func NewBuilder(personality Personality) *Builder {
	return &Builder{personality: personality}
}

// Personality returns the profile the builder speaks as.
func (b *Builder) Personality() Personality {
	return b.personality
}

// ChatMessages builds the messages of a conversational turn: personality,
// workspace description, conversation context (when non-empty) and history.
func (b *Builder) ChatMessages(ws Workspace, convContext map[string]any, history []coditypes.Message) []coditypes.CompletionMessage {
	msgs := []coditypes.CompletionMessage{system(b.personality.SystemPrompt(ws))}

	if ws.Path != "" {
		msgs = append(msgs, system(fmt.Sprintf(workspaceTemplate, ws.ProjectName, ws.Path)))
	}

	if len(convContext) > 0 {
		// encoding/json sorts map keys, so this is deterministic.
		if data, err := json.Marshal(convContext); err == nil {
			msgs = append(msgs, system("Current conversation context: "+string(data)))
		}
	}

	for _, m := range history {
		msgs = append(msgs, coditypes.CompletionMessage{Role: m.Role, Content: m.Content})
	}
	return msgs
}

// Analysis builds the single-call analysis request.
func (b *Builder) Analysis(task coditypes.CodingTask) []coditypes.CompletionMessage {
	prompt := fmt.Sprintf(analysisTemplate, RenderFiles(task.Context.Files), task.Description)
	return []coditypes.CompletionMessage{system(analysisSystem), user(prompt)}
}

// Generation builds the first generation request.
func (b *Builder) Generation(task coditypes.CodingTask) []coditypes.CompletionMessage {
	return []coditypes.CompletionMessage{system(generationSystem), user(generationPrompt(task))}
}

// GenerationFollowUp asks for an explanation of generated code.
func (b *Builder) GenerationFollowUp(task coditypes.CodingTask, generated string) []coditypes.CompletionMessage {
	return []coditypes.CompletionMessage{
		system(explanationSystem),
		user(generationPrompt(task)),
		assistant(generated),
		user(explanationRequest),
	}
}

// Review builds the first review request.
func (b *Builder) Review(task coditypes.CodingTask) []coditypes.CompletionMessage {
	return []coditypes.CompletionMessage{system(reviewSystem), user(reviewPrompt(task))}
}

// ReviewFollowUp asks for concrete improvements based on a review.
func (b *Builder) ReviewFollowUp(task coditypes.CodingTask, review string) []coditypes.CompletionMessage {
	return []coditypes.CompletionMessage{
		system(improvementSystem),
		user(reviewPrompt(task)),
		assistant(review),
		user(improvementRequest),
	}
}

// RenderFiles renders each file as a labeled fenced block, in path order.
func RenderFiles(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	blocks := make([]string, 0, len(paths))
	for _, path := range paths {
		blocks = append(blocks, fmt.Sprintf("File: %s\n```\n%s\n```", path, files[path]))
	}
	return strings.Join(blocks, "\n\n")
}

func generationPrompt(task coditypes.CodingTask) string {
	var language, requirements, existing string

	if task.Context.Language != "" {
		language = "\nPreferred language: " + task.Context.Language
	}
	if len(task.Requirements) > 0 {
		requirements = "\nSpecific requirements:\n- " + strings.Join(task.Requirements, "\n- ")
	}
	if len(task.Context.Files) > 0 {
		existing = "\nExisting project files:\n" + RenderFiles(task.Context.Files)
	}

	return fmt.Sprintf(generationTemplate, task.Description, language, requirements, existing)
}

func reviewPrompt(task coditypes.CodingTask) string {
	return fmt.Sprintf(reviewTemplate, RenderFiles(task.Context.Files), task.Description)
}

func system(content string) coditypes.CompletionMessage {
	return coditypes.CompletionMessage{Role: coditypes.RoleSystem, Content: content}
}

func user(content string) coditypes.CompletionMessage {
	return coditypes.CompletionMessage{Role: coditypes.RoleUser, Content: content}
}

func assistant(content string) coditypes.CompletionMessage {
	return coditypes.CompletionMessage{Role: coditypes.RoleAssistant, Content: content}
}
