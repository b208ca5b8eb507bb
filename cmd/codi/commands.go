package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tognete/codi/internal/gateway"
	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/server"
	"github.com/tognete/codi/internal/shell"
	"github.com/tognete/codi/internal/workspace"
	"github.com/tognete/codi/pkg/coditypes"
)

var (
	resumeHandle string
	serveAddr    string
	prBranch     string
	prTitle      string
	prDesc       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start Codi in interactive mode (CLI + Slack)",
	Long: `Start the terminal chat and, when SLACK_BOT_TOKEN and SLACK_APP_TOKEN are set,
the Slack listener. Both talk to the same conversation.`,
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve coding tasks over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var prCmd = &cobra.Command{
	Use:   "pr",
	Short: "Generate code for a description and open a pull request",
	Args:  cobra.NoArgs,
	RunE:  runPR,
}

var conversationsCmd = &cobra.Command{
	Use:   "conversations",
	Short: "Manage saved conversations",
}

var conversationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved conversations, newest first",
	Args:  cobra.NoArgs,
	RunE:  runConversationsList,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, runCmd} {
		c.Flags().StringVar(&resumeHandle, "resume", "", "Resume a saved conversation by handle")
	}

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: http.addr, :8000)")

	prCmd.Flags().StringVar(&prBranch, "branch", "", "Branch to create")
	prCmd.Flags().StringVar(&prTitle, "title", "", "Pull request title")
	prCmd.Flags().StringVar(&prDesc, "description", "", "What the generated code should do")
	for _, name := range []string{"branch", "title", "description"} {
		_ = prCmd.MarkFlagRequired(name)
	}

	conversationsCmd.AddCommand(conversationsListCmd)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func runInteractive(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	printer := output.GetGlobalPrinter()
	printer.Line(output.SemanticHighlight, "\n🚀 Starting Codi...")
	printer.Line(output.SemanticHighlight, "Your AI Senior Software Developer")

	a, err := newApp(cfg, printer)
	if err != nil {
		return err
	}
	defer a.Close()

	if resumeHandle != "" {
		if err := a.session.Resume(ctx, resumeHandle); err != nil {
			return fmt.Errorf("failed to resume %s: %w", resumeHandle, err)
		}
		printer.Info("Resumed conversation " + resumeHandle)
	}

	printer.Println("\nStarting services:")
	printer.Println("1. CLI Chat Interface")
	if cfg.HasSlack() {
		printer.Println("2. Slack Integration")
	} else {
		printer.Warning("Slack tokens not set; Slack integration disabled.")
	}

	rl, err := shell.NewReadline(historyFile())
	if err != nil {
		return fmt.Errorf("failed to start line editor: %w", err)
	}
	var closeOnce sync.Once
	closeReader := func() { closeOnce.Do(func() { _ = rl.Close() }) }
	defer closeReader()

	opts := []shell.Option{}
	if md := markdownRenderer(a); md != nil {
		opts = append(opts, shell.WithRenderer(md))
	}
	if d := diffService(a); d != nil && !a.workspace.Empty() {
		opts = append(opts, shell.WithDiffs(d, a.workspace.Path))
	}
	sh := shell.New(a.session, printer, opts...)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Leaving the chat loop shuts everything down.
		defer stop()
		sh.Banner()
		return sh.Run(gctx, rl)
	})
	g.Go(func() error {
		// Unblocks a pending Readline on Ctrl+C or a Slack failure.
		<-gctx.Done()
		closeReader()
		return nil
	})
	if cfg.HasSlack() {
		g.Go(func() error {
			return gateway.Listen(gctx, a.session, cfg.SlackBotToken, cfg.SlackAppToken)
		})
	}

	err = g.Wait()
	printer.Println("\nShutting down Codi... 👋")
	return err
}

func historyFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	dir = filepath.Join(dir, "codi")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := newApp(cfg, output.GetGlobalPrinter())
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	if addr == "" {
		addr = server.DefaultAddr
	}
	logger.Info("Starting HTTP server", "addr", addr)
	return server.New(a.session).ListenAndServe(ctx, addr)
}

func runPR(cmd *cobra.Command, _ []string) error {
	ctx, stop := signalContext(cmd)
	defer stop()

	printer := output.GetGlobalPrinter()
	a, err := newApp(cfg, printer)
	if err != nil {
		return err
	}
	defer a.Close()

	gh, err := githubService(ctx, cfg, a.registry)
	if err != nil {
		return err
	}
	if a.workspace.Empty() {
		return errors.New("no workspace detected; pass --workspace")
	}

	printer.Info(fmt.Sprintf("Generating code for %s in %s", gh.Repo(), a.workspace.ProjectName))
	resp, err := a.session.ProcessTask(ctx, coditypes.CodingTask{
		TaskType:    coditypes.TaskGenerate,
		Description: prDesc,
		Context:     workspace.LoadCodeContext(a.workspace.Path, cfg.MaxFileBytes),
	})
	if err != nil {
		return err
	}
	if !resp.HasChanges() {
		return fmt.Errorf("no code changes generated: %s", resp.Solution)
	}

	url, err := gh.CreatePullRequest(ctx, prBranch, prTitle, pullRequestBody(prDesc, resp), resp.CodeChanges)
	if err != nil {
		return err
	}
	printer.Success("✅ Pull request created: " + url)
	return nil
}

// pullRequestBody describes the request and lists the suggestions that came with the code.
func pullRequestBody(description string, resp coditypes.CodeResponse) string {
	body := "## Description\n" + description + "\n\n## Explanation\n" + resp.Explanation + "\n"
	if len(resp.Suggestions) > 0 {
		body += "\n## Suggestions\n"
		for _, s := range resp.Suggestions {
			body += "- " + s + "\n"
		}
	}
	return body + "\n_Generated by Codi._\n"
}

func runConversationsList(cmd *cobra.Command, _ []string) error {
	ws := detectWorkspace(cfg)
	persister, err := openPersister(cfg, ws)
	if err != nil {
		return err
	}
	defer closePersister(persister)

	summaries, err := persister.List(cmd.Context())
	if err != nil {
		return err
	}

	printer := output.GetGlobalPrinter()
	if len(summaries) == 0 {
		printer.Info("No saved conversations.")
		return nil
	}
	for _, s := range summaries {
		printer.Println(fmt.Sprintf("%-40s %4d messages  %s", s.Handle, s.Messages, s.UpdatedAt.Format("2006-01-02 15:04:05")))
	}
	return nil
}
