// Package shell runs the interactive chat loop in the terminal.
package shell

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/chzyer/readline"

	"github.com/tognete/codi/internal/agent"
	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/services"
)

// Prompt is shown before each line of user input.
const Prompt = "You > "

// Commands handled by the shell instead of the assistant.
const (
	CmdReset = "/reset"
	CmdSave  = "/save"
	CmdExit  = "/exit"
)

// Session is the conversation the shell talks to.
type Session interface {
	Chat(ctx context.Context, message, source string) agent.Reply
	Reset()
	Save(ctx context.Context) (string, error)
}

// Renderer turns assistant markdown into terminal text.
type Renderer interface {
	RenderOrRaw(markdown string) string
}

// Differ compares proposed file contents with the workspace.
type Differ interface {
	Compare(root string, proposed map[string]string) ([]services.FileDiff, error)
}

// LineReader yields one line of input per call. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// Shell reads user input, runs chat turns and prints the replies.
type Shell struct {
	session  Session
	printer  *output.Printer
	renderer Renderer
	differ   Differ
	root     string
	log      *log.Logger
}

// Option customizes a Shell.
type Option func(*Shell)

// WithRenderer renders replies through r.
func WithRenderer(r Renderer) Option {
	return func(s *Shell) { s.renderer = r }
}

// WithDiffs shows proposed changes as diffs against the files under root.
func WithDiffs(d Differ, root string) Option {
	return func(s *Shell) {
		s.differ = d
		s.root = root
	}
}

// New creates a Shell writing to printer.
func New(session Session, printer *output.Printer, opts ...Option) *Shell {
	s := &Shell{
		session: session,
		printer: printer,
		log:     logger.NewStyledLogger("Shell"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Banner prints the welcome text and usage tips.
func (s *Shell) Banner() {
	s.printer.Line(output.SemanticHighlight, "\n✨ CLI Chat Interface Ready!")
	s.printer.Line(output.SemanticHighlight, "\nTips:")
	s.printer.Println("• Chat with me as you would with a senior software developer")
	s.printer.Println("• I'll automatically detect your project context")
	s.printer.Println("• Use /reset to start over, /save to keep this conversation")
	s.printer.Println("• Use /exit or Ctrl+D to quit")
}

// Run reads lines until input ends, /exit is entered or ctx is cancelled.
func (s *Shell) Run(ctx context.Context, in LineReader) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := in.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			if line == "" {
				return nil
			}
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		if !s.HandleInput(ctx, line) {
			return nil
		}
	}
}

// HandleInput processes one line of input and reports whether the loop should continue.
func (s *Shell) HandleInput(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)
	switch input {
	case "":
		return true
	case CmdExit:
		return false
	case CmdReset:
		s.session.Reset()
		s.printer.Info("Conversation cleared.")
		return true
	case CmdSave:
		handle, err := s.session.Save(ctx)
		if err != nil {
			s.printer.Error("Error: " + err.Error())
			return true
		}
		s.printer.Success("Conversation saved: " + handle)
		return true
	}

	reply := s.session.Chat(ctx, input, agent.SourceCLI)
	s.printReply(reply)
	return true
}

func (s *Shell) printReply(reply agent.Reply) {
	s.printer.Line(output.SemanticHighlight, "\nCodi")
	text := reply.Text
	if s.renderer != nil {
		text = s.renderer.RenderOrRaw(text)
	}
	s.printer.Println(strings.TrimRight(text, "\n"))

	if !reply.Task.HasChanges() || s.differ == nil {
		return
	}
	diffs, err := s.differ.Compare(s.root, reply.Task.CodeChanges)
	if err != nil {
		s.log.Warn("Could not diff proposed changes", "error", err)
		return
	}
	for _, d := range diffs {
		s.printDiff(d)
	}
}

func (s *Shell) printDiff(d services.FileDiff) {
	header := "\n--- " + d.Path
	if d.NewFile {
		header += " (new file)"
	}
	s.printer.Line(output.SemanticHighlight, header)
	for _, l := range d.Lines {
		switch l.Kind {
		case services.LineAdded:
			s.printer.Line(output.SemanticAdded, "+ "+l.Text)
		case services.LineRemoved:
			s.printer.Line(output.SemanticRemoved, "- "+l.Text)
		default:
			s.printer.Line(output.SemanticDetail, "  "+l.Text)
		}
	}
}
