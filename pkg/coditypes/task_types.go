package coditypes

import "fmt"

// TaskType is the kind of coding task recognized in a message.
type TaskType string

const (
	// TaskAnalyze asks for code analysis.
	TaskAnalyze TaskType = "analyze"
	// TaskGenerate asks for new code.
	TaskGenerate TaskType = "generate"
	// TaskReview asks for a code review with concrete improvements.
	TaskReview TaskType = "review"
)

// ParseTaskType converts a wire value into a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	switch TaskType(s) {
	case TaskAnalyze, TaskGenerate, TaskReview:
		return TaskType(s), nil
	}
	return "", fmt.Errorf("%w: task type %q", ErrNotImplemented, s)
}

// CodeContext is the code snapshot a task works against.
type CodeContext struct {
	Files       map[string]string `json:"files"`
	CurrentFile string            `json:"current_file,omitempty"`
	Language    string            `json:"language,omitempty"`
	ProjectRoot string            `json:"project_root,omitempty"`
}

// CodingTask is a request for analysis, generation or review.
type CodingTask struct {
	TaskType     TaskType    `json:"task_type"`
	Description  string      `json:"description"`
	Context      CodeContext `json:"context"`
	Requirements []string    `json:"requirements,omitempty"`
}

// CodeResponse is the structured result of a coding task.
type CodeResponse struct {
	Solution    string            `json:"solution"`
	Explanation string            `json:"explanation"`
	Suggestions []string          `json:"suggestions,omitempty"`
	CodeChanges map[string]string `json:"code_changes,omitempty"`
}

// HasChanges reports whether the response proposes any file edits.
func (r *CodeResponse) HasChanges() bool {
	return r != nil && len(r.CodeChanges) > 0
}
