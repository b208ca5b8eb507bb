package gateway

import (
	"strings"

	"github.com/slack-go/slack"

	"github.com/tognete/codi/internal/changes"
	"github.com/tognete/codi/pkg/coditypes"
)

// Slack rejects section text over 3000 characters.
const (
	MaxTextLen   = 3000
	MaxChangeLen = 1000
)

// FormatBlocks lays out a reply as Slack blocks: the reply text, an optional
// suggestions list and one section per changed file.
func FormatBlocks(text string, task *coditypes.CodeResponse) []slack.Block {
	blocks := []slack.Block{section(truncate(text, MaxTextLen))}
	if task == nil {
		return blocks
	}

	if len(task.Suggestions) > 0 {
		lines := make([]string, 0, len(task.Suggestions))
		for _, s := range task.Suggestions {
			lines = append(lines, "• "+s)
		}
		blocks = append(blocks, section(truncate("*Suggestions:*\n"+strings.Join(lines, "\n"), MaxTextLen)))
	}

	for _, path := range changes.SortedPaths(task.CodeChanges) {
		blocks = append(blocks,
			section("*Changes to "+path+":*"),
			section("```"+truncate(task.CodeChanges[path], MaxChangeLen)+"```"),
		)
	}
	return blocks
}

// MentionText strips the leading bot mention ("<@U123> ") from an app_mention text.
func MentionText(raw string) string {
	if _, after, found := strings.Cut(raw, ">"); found {
		return strings.TrimSpace(after)
	}
	return strings.TrimSpace(raw)
}

func section(text string) *slack.SectionBlock {
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, nil)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
