package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tognete/codi/internal/agent"
	"github.com/tognete/codi/internal/config"
	"github.com/tognete/codi/internal/conversation"
	"github.com/tognete/codi/internal/logger"
	"github.com/tognete/codi/internal/output"
	"github.com/tognete/codi/internal/services"
	"github.com/tognete/codi/internal/testutils"
	"github.com/tognete/codi/internal/workflow"
	"github.com/tognete/codi/internal/workspace"
	"github.com/tognete/codi/pkg/coditypes"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg       *config.Config
	printer   *output.Printer
	registry  *services.Registry
	workspace workspace.Info
	persister conversation.Persister
	session   *agent.Session
}

// newApp wires services, the workspace, conversation storage and the agent.
func newApp(cfg *config.Config, printer *output.Printer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return nil, err
	}

	client, err := completionClient(cfg, registry)
	if err != nil {
		return nil, err
	}

	ws := detectWorkspace(cfg)
	persister, err := openPersister(cfg, ws)
	if err != nil {
		return nil, err
	}

	a := agent.New(client, workflow.NewReporter(printer), agent.Options{
		Model: cfg.Model,
		Heartbeat: workflow.HeartbeatOptions{
			Interval: cfg.HeartbeatInterval,
			Tick:     cfg.HeartbeatTick,
		},
		Workspace:    ws,
		MaxFileBytes: cfg.MaxFileBytes,
		Autosave:     cfg.Autosave,
	})

	logger.Info("Codi ready", "provider", client.GetProviderName(), "model", cfg.Model, "workspace", ws.Path)
	return &app{
		cfg:       cfg,
		printer:   printer,
		registry:  registry,
		workspace: ws,
		persister: persister,
		session:   agent.NewSession(a, conversation.NewStore(persister, cfg.TestMode)),
	}, nil
}

// Close releases storage handles.
func (a *app) Close() error {
	return closePersister(a.persister)
}

func closePersister(p conversation.Persister) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func newRegistry(cfg *config.Config) (*services.Registry, error) {
	debug := services.NewDebugTransportService(cfg.DebugHTTP)
	registry := services.NewRegistry()
	for _, svc := range []coditypes.Service{
		debug,
		services.NewClientFactory(cfg.LocalBaseURL, debug.Transport()),
		services.NewMarkdownService(""),
		services.NewDiffService(),
	} {
		if err := registry.RegisterService(svc); err != nil {
			return nil, err
		}
	}
	if err := registry.InitializeAll(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	return registry, nil
}

func completionClient(cfg *config.Config, registry *services.Registry) (coditypes.LLMClient, error) {
	apiKey := cfg.APIKeyFor(cfg.Provider)
	if cfg.TestMode && apiKey == "" && cfg.Provider != "local" {
		return testutils.EchoClient{}, nil
	}
	factory, err := services.Get[*services.ClientFactory](registry, "client_factory")
	if err != nil {
		return nil, err
	}
	return factory.GetClientForProvider(cfg.Provider, apiKey)
}

func detectWorkspace(cfg *config.Config) workspace.Info {
	if cfg.Workspace != "" {
		return workspace.FromPath(cfg.Workspace)
	}
	cwd, err := os.Getwd()
	if err != nil {
		logger.Warn("Cannot determine working directory", "error", err)
		return workspace.Info{}
	}
	home, _ := os.UserHomeDir()
	return workspace.Detect(cfg.GitHubRepo, cwd, home)
}

// openPersister resolves a relative storage path against the workspace.
func openPersister(cfg *config.Config, ws workspace.Info) (conversation.Persister, error) {
	path := cfg.StoragePath
	if !filepath.IsAbs(path) && !ws.Empty() {
		path = filepath.Join(ws.Path, path)
	}
	p, err := conversation.NewPersister(cfg.StorageDriver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation storage: %w", err)
	}
	return p, nil
}

func markdownRenderer(a *app) *services.MarkdownService {
	if a.cfg.TestMode {
		return nil
	}
	md, err := services.Get[*services.MarkdownService](a.registry, "markdown")
	if err != nil {
		return nil
	}
	return md
}

func diffService(a *app) *services.DiffService {
	d, err := services.Get[*services.DiffService](a.registry, "diff")
	if err != nil {
		return nil
	}
	return d
}

func githubService(ctx context.Context, cfg *config.Config, registry *services.Registry) (*services.GitHubService, error) {
	if err := cfg.ValidateGitHub(); err != nil {
		return nil, err
	}
	debug, err := services.Get[*services.DebugTransportService](registry, "debug-transport")
	if err != nil {
		return nil, err
	}
	gh, err := services.NewGitHubService(ctx, cfg.GitHubToken, cfg.GitHubRepo, debug.Transport())
	if err != nil {
		return nil, err
	}
	if err := registry.RegisterService(gh); err != nil {
		return nil, err
	}
	return gh, gh.Initialize()
}
