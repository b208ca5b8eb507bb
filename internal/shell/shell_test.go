package shell

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/internal/agent"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/services"
	"github.com/tognete/codi/internal/testutils"
	"github.com/tognete/codi/pkg/coditypes"
)

type fakeSession struct {
	messages []string
	sources  []string
	resets   int
	saves    int
	saveErr  error
	reply    agent.Reply
}

func (f *fakeSession) Chat(_ context.Context, message, source string) agent.Reply {
	f.messages = append(f.messages, message)
	f.sources = append(f.sources, source)
	return f.reply
}

func (f *fakeSession) Reset() { f.resets++ }

func (f *fakeSession) Save(context.Context) (string, error) {
	f.saves++
	if f.saveErr != nil {
		return "", f.saveErr
	}
	return "conversation_1.json", nil
}

type lines struct {
	queue []string
	err   error
}

func (l *lines) Readline() (string, error) {
	if len(l.queue) == 0 {
		if l.err != nil {
			return "", l.err
		}
		return "", io.EOF
	}
	next := l.queue[0]
	l.queue = l.queue[1:]
	return next, nil
}

type tagRenderer struct{}

func (tagRenderer) RenderOrRaw(s string) string { return "[md]" + s }

func TestHandleInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		saveErr error
		cont    bool
		want    string
		chats   int
		resets  int
		saves   int
	}{
		{name: "blank", input: "   ", cont: true},
		{name: "exit", input: "/exit", cont: false},
		{name: "reset", input: "/reset", cont: true, want: "Conversation cleared.", resets: 1},
		{name: "save", input: "/save", cont: true, want: "Conversation saved: conversation_1.json", saves: 1},
		{name: "save failure", input: "/save", saveErr: errors.New("no persister"), cont: true, want: "Error: no persister", saves: 1},
		{name: "chat", input: "  hello there ", cont: true, want: "Codi", chats: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			printer, buf := output.NewCapturePrinter()
			sess := &fakeSession{saveErr: tt.saveErr, reply: agent.Reply{Text: "hi!"}}
			sh := New(sess, printer)

			assert.Equal(t, tt.cont, sh.HandleInput(context.Background(), tt.input))
			if tt.want != "" {
				assert.True(t, buf.Contains(tt.want), buf.String())
			}
			assert.Len(t, sess.messages, tt.chats)
			assert.Equal(t, tt.resets, sess.resets)
			assert.Equal(t, tt.saves, sess.saves)
		})
	}
}

func TestHandleInput_ChatUsesCLISource(t *testing.T) {
	printer, buf := output.NewCapturePrinter()
	sess := &fakeSession{reply: agent.Reply{Text: "**bold**"}}
	sh := New(sess, printer, WithRenderer(tagRenderer{}))

	sh.HandleInput(context.Background(), "explain main.go")

	assert.Equal(t, []string{"explain main.go"}, sess.messages)
	assert.Equal(t, []string{"cli"}, sess.sources)
	assert.True(t, buf.Contains("[md]**bold**"))
}

func TestHandleInput_PrintsDiffs(t *testing.T) {
	root := testutils.CreateWorkspace(t, map[string]string{"main.go": "package main\n\nfunc main() {}\n"})
	printer, buf := output.NewCapturePrinter()
	sess := &fakeSession{reply: agent.Reply{
		Text: "updated",
		Task: &coditypes.CodeResponse{CodeChanges: map[string]string{
			"main.go":   "package main\n\nfunc main() { run() }\n",
			"helper.go": "package main\n",
		}},
	}}
	sh := New(sess, printer, WithDiffs(services.NewDiffService(), root))

	sh.HandleInput(context.Background(), "generate a helper")

	assert.True(t, buf.Contains("--- helper.go (new file)"))
	assert.True(t, buf.Contains("--- main.go"))
	assert.True(t, buf.Contains("- func main() {}"))
	assert.True(t, buf.Contains("+ func main() { run() }"))
}

func TestRun(t *testing.T) {
	t.Run("stops on exit", func(t *testing.T) {
		printer, _ := output.NewCapturePrinter()
		sess := &fakeSession{}
		err := New(sess, printer).Run(context.Background(), &lines{queue: []string{"one", "/exit", "never"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"one"}, sess.messages)
	})

	t.Run("stops on eof", func(t *testing.T) {
		printer, _ := output.NewCapturePrinter()
		sess := &fakeSession{}
		require.NoError(t, New(sess, printer).Run(context.Background(), &lines{queue: []string{"a", "b"}}))
		assert.Equal(t, []string{"a", "b"}, sess.messages)
	})

	t.Run("interrupt on empty line quits", func(t *testing.T) {
		printer, _ := output.NewCapturePrinter()
		require.NoError(t, New(&fakeSession{}, printer).Run(context.Background(), &lines{err: readline.ErrInterrupt}))
	})

	t.Run("reader failure", func(t *testing.T) {
		printer, _ := output.NewCapturePrinter()
		boom := errors.New("tty gone")
		assert.ErrorIs(t, New(&fakeSession{}, printer).Run(context.Background(), &lines{err: boom}), boom)
	})

	t.Run("cancelled context", func(t *testing.T) {
		printer, _ := output.NewCapturePrinter()
		sess := &fakeSession{}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, New(sess, printer).Run(ctx, &lines{queue: []string{"x"}}))
		assert.Empty(t, sess.messages)
	})
}

func TestBanner(t *testing.T) {
	printer, buf := output.NewCapturePrinter()
	New(&fakeSession{}, printer).Banner()
	assert.True(t, buf.Contains("CLI Chat Interface Ready!"))
	assert.True(t, buf.Contains("Tips:"))
}

func TestCommandPainter(t *testing.T) {
	plain := NewCommandPainter(false)
	assert.Equal(t, "/save now", string(plain.Paint([]rune("/save now"), 0)))

	colored := NewCommandPainter(true)
	assert.Equal(t, "hello", string(colored.Paint([]rune("hello"), 0)))
	assert.Contains(t, string(colored.Paint([]rune("/reset"), 0)), "/reset")
	assert.Equal(t, "/resetting", string(colored.Paint([]rune("/resetting"), 0)))
}
