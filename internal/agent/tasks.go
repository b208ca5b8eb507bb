package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/tognete/codi/internal/changes"
	"github.com/tognete/codi/internal/classifier"
	"github.com/tognete/codi/internal/workflow"
	"github.com/tognete/codi/pkg/coditypes"
)

// ProcessTask runs the pipeline for task.TaskType. Backend failures are
// returned inside the response; the only error is a wrapped
// coditypes.ErrNotImplemented for an unknown task kind.
func (a *Agent) ProcessTask(ctx context.Context, task coditypes.CodingTask) (coditypes.CodeResponse, error) {
	if isGreeting(task.Description) {
		return coditypes.CodeResponse{
			Solution:    a.builder.Personality().Greeting(a.opts.Workspace.ProjectName),
			Explanation: "Greeting message",
		}, nil
	}

	var (
		resp coditypes.CodeResponse
		err  error
	)
	switch task.TaskType {
	case coditypes.TaskAnalyze:
		resp, err = workflow.Run(ctx, a.reporter, a.opts.Heartbeat, "Analyzing code in workspace", "Analyze Code", a.analyze(task))
	case coditypes.TaskGenerate:
		resp, err = workflow.Run(ctx, a.reporter, a.opts.Heartbeat, "Generating new code", "Generate Code", a.generate(task))
	case coditypes.TaskReview:
		resp, err = workflow.Run(ctx, a.reporter, a.opts.Heartbeat, "Reviewing code", "Review Code", a.review(task))
	default:
		return coditypes.CodeResponse{}, fmt.Errorf("%w: unknown task type %q", coditypes.ErrNotImplemented, task.TaskType)
	}

	if err != nil {
		return coditypes.CodeResponse{
			Solution:    "Error processing task: " + err.Error(),
			Explanation: "An error occurred",
		}, nil
	}
	return resp, nil
}

func (a *Agent) analyze(task coditypes.CodingTask) func(context.Context) (coditypes.CodeResponse, error) {
	return func(ctx context.Context) (coditypes.CodeResponse, error) {
		analysis, err := a.complete(ctx, a.builder.Analysis(task), TaskTemperature)
		if err != nil {
			return coditypes.CodeResponse{}, fmt.Errorf("error during code analysis: %w", err)
		}
		return coditypes.CodeResponse{
			Solution:    analysis,
			Explanation: "Code analysis completed successfully",
			Suggestions: classifier.ExtractSuggestions(analysis),
		}, nil
	}
}

func (a *Agent) generate(task coditypes.CodingTask) func(context.Context) (coditypes.CodeResponse, error) {
	return func(ctx context.Context) (coditypes.CodeResponse, error) {
		generated, err := a.complete(ctx, a.builder.Generation(task), TaskTemperature)
		if err != nil {
			return coditypes.CodeResponse{}, fmt.Errorf("error during code generation: %w", err)
		}

		explanation, err := a.complete(ctx, a.builder.GenerationFollowUp(task, generated), TaskTemperature)
		if err != nil {
			return coditypes.CodeResponse{}, fmt.Errorf("error during code generation: %w", err)
		}

		return coditypes.CodeResponse{
			Solution:    generated,
			Explanation: explanation,
			Suggestions: classifier.ExtractSuggestions(explanation),
			CodeChanges: changes.Parse(generated),
		}, nil
	}
}

func (a *Agent) review(task coditypes.CodingTask) func(context.Context) (coditypes.CodeResponse, error) {
	return func(ctx context.Context) (coditypes.CodeResponse, error) {
		review, err := a.complete(ctx, a.builder.Review(task), TaskTemperature)
		if err != nil {
			return coditypes.CodeResponse{}, fmt.Errorf("error during code review: %w", err)
		}

		improvements, err := a.complete(ctx, a.builder.ReviewFollowUp(task, review), TaskTemperature)
		if err != nil {
			return coditypes.CodeResponse{}, fmt.Errorf("error during code review: %w", err)
		}

		suggestions := classifier.Prioritize(classifier.ExtractSuggestions(review + "\n" + improvements))

		return coditypes.CodeResponse{
			Solution:    reviewSummary(review, improvements, suggestions),
			Explanation: "Code review completed with detailed analysis and suggestions",
			Suggestions: suggestions,
			CodeChanges: changes.Parse(improvements),
		}, nil
	}
}

func reviewSummary(review, improvements string, suggestions []string) string {
	var b strings.Builder
	b.WriteString("# Code Review Summary\n\n## General Review\n")
	b.WriteString(review)
	b.WriteString("\n\n## Specific Improvements\n")
	b.WriteString(improvements)
	b.WriteString("\n\n## Prioritized Suggestions\n")
	for _, s := range suggestions {
		b.WriteString("\n" + s)
	}
	b.WriteString("\n")
	return b.String()
}
