package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"

	"github.com/tognete/codi/internal/logger"
)

// DefaultWordWrap is the column assistant replies are wrapped at.
const DefaultWordWrap = 80

// MarkdownService renders assistant replies for the terminal with glamour.
type MarkdownService struct {
	mu       sync.Mutex
	style    string
	width    int
	renderer *glamour.TermRenderer
}

// NewMarkdownService creates a service. An empty style selects auto detection;
// "notty" renders without escape sequences.
func NewMarkdownService(style string) *MarkdownService {
	return &MarkdownService{style: style, width: DefaultWordWrap}
}

// Name returns "markdown".
func (m *MarkdownService) Name() string {
	return "markdown"
}

// Initialize builds the renderer.
func (m *MarkdownService) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.build()
}

func (m *MarkdownService) build() error {
	styleOpt := glamour.WithAutoStyle()
	if m.style != "" {
		styleOpt = glamour.WithStandardStyle(m.style)
	}

	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(m.width))
	if err != nil {
		return fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	m.renderer = renderer
	logger.Debug("Markdown renderer ready", "style", m.style, "width", m.width)
	return nil
}

// SetWordWrap rebuilds the renderer for width columns.
func (m *MarkdownService) SetWordWrap(width int) error {
	if width <= 0 {
		return fmt.Errorf("word wrap width must be positive, got %d", width)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.width = width
	return m.build()
}

// Render converts markdown to terminal output.
func (m *MarkdownService) Render(markdown string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.renderer == nil {
		return "", fmt.Errorf("markdown service not initialized")
	}
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}

	rendered, err := m.renderer.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return rendered, nil
}

// RenderOrRaw renders markdown, returning the input unchanged on failure.
func (m *MarkdownService) RenderOrRaw(markdown string) string {
	rendered, err := m.Render(markdown)
	if err != nil {
		logger.Debug("Markdown rendering failed, using raw text", "error", err)
		return markdown
	}
	return rendered
}
