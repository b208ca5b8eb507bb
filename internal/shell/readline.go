package shell

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/muesli/termenv"
)

var commands = []string{CmdReset, CmdSave, CmdExit}

// NewReadline creates the line editor for the chat prompt. historyFile may be empty.
func NewReadline(historyFile string) (*readline.Instance, error) {
	items := make([]readline.PrefixCompleterInterface, 0, len(commands))
	for _, c := range commands {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewEx(&readline.Config{
		Prompt:          Prompt,
		HistoryFile:     historyFile,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Painter:         NewCommandPainter(lipgloss.ColorProfile() != termenv.Ascii),
	})
}

// CommandPainter highlights a leading shell command such as /save.
type CommandPainter struct {
	color bool
	style lipgloss.Style
}

// NewCommandPainter returns a painter; with color false it leaves lines untouched.
func NewCommandPainter(color bool) *CommandPainter {
	return &CommandPainter{
		color: color,
		style: lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
	}
}

// Paint implements readline.Painter.
func (p *CommandPainter) Paint(line []rune, _ int) []rune {
	if !p.color {
		return line
	}
	input := string(line)
	for _, c := range commands {
		if input == c || strings.HasPrefix(input, c+" ") {
			return []rune(p.style.Render(c) + input[len(c):])
		}
	}
	return line
}
