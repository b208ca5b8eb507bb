// Package classifier maps free-form messages to coding task kinds using
// ordered keyword tables. Matching is case-insensitive substring search.
package classifier

import (
	"strings"

	"github.com/tognete/codi/pkg/coditypes"
)

// Rule pairs a task kind with the phrases that select it.
type Rule struct {
	Kind     coditypes.TaskType
	Keywords []string
}

// TaskRules are evaluated in order and the first match wins. The review
// phrases are checked after the analyze set, so "check pr" reports analyze.
var TaskRules = []Rule{
	{Kind: coditypes.TaskAnalyze, Keywords: []string{"analyze", "review", "check", "look at"}},
	{Kind: coditypes.TaskGenerate, Keywords: []string{"generate", "create", "write", "implement"}},
	{Kind: coditypes.TaskReview, Keywords: []string{"review pr", "review pull request", "check pr"}},
}

// FileKeywords mark a message as a workspace file-system question.
var FileKeywords = []string{"file", "directory", "folder", "repo", "repository", "count"}

// AdvisoryKeywords select suggestion lines out of model output.
var AdvisoryKeywords = []string{"suggest", "recommend", "consider", "should", "could"}

// CriticalKeywords promote a suggestion ahead of the rest.
var CriticalKeywords = []string{"critical", "security", "vulnerability", "urgent", "bug", "error"}

// Classify returns the task kind for message, or false when it is not a task.
func Classify(message string) (coditypes.TaskType, bool) {
	lower := strings.ToLower(message)
	for _, rule := range TaskRules {
		if containsAny(lower, rule.Keywords) {
			return rule.Kind, true
		}
	}
	return "", false
}

// IsFileOperation reports whether message asks about workspace files.
func IsFileOperation(message string) bool {
	return containsAny(strings.ToLower(message), FileKeywords)
}

// IsCritical reports whether a suggestion mentions a critical keyword.
func IsCritical(suggestion string) bool {
	return containsAny(strings.ToLower(suggestion), CriticalKeywords)
}

// ExtractSuggestions returns the trimmed lines of text that contain an advisory keyword.
func ExtractSuggestions(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if containsAny(strings.ToLower(line), AdvisoryKeywords) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

// Prioritize orders suggestions critical first, keeping relative order, and
// marks each group with its prefix.
func Prioritize(suggestions []string) []string {
	critical := make([]string, 0, len(suggestions))
	normal := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		if IsCritical(s) {
			critical = append(critical, "🚨 "+s)
		} else {
			normal = append(normal, "💡 "+s)
		}
	}
	return append(critical, normal...)
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
