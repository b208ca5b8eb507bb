// Package output provides the console output layer for Codi.
// Printers depend only on the StyleProvider interface, so styling stays optional.
package output

// StyleProvider supplies styles for semantic output types.
type StyleProvider interface {
	// GetStyle returns a TextStyle for a semantic type such as "info" or "step".
	GetStyle(semantic string) TextStyle

	// IsAvailable returns true if the provider is ready to render styles.
	IsAvailable() bool
}

// TextStyle renders text. lipgloss.Style satisfies it.
type TextStyle interface {
	Render(text ...string) string
}

// Mode defines the output modes a printer can operate in.
type Mode int

const (
	// ModeAuto uses styles when a provider is set and plain prefixes otherwise.
	ModeAuto Mode = iota
	// ModeStyled forces styled output.
	ModeStyled
	// ModePlain forces plain text output.
	ModePlain
	// ModeJSON writes one JSON object per line.
	ModeJSON
)

// SemanticType is the meaning of a piece of output.
type SemanticType string

const (
	SemanticPlain     SemanticType = "plain"
	SemanticInfo      SemanticType = "info"
	SemanticSuccess   SemanticType = "success"
	SemanticWarning   SemanticType = "warning"
	SemanticError     SemanticType = "error"
	SemanticStep      SemanticType = "step"
	SemanticDetail    SemanticType = "detail"
	SemanticWorking   SemanticType = "working"
	SemanticDone      SemanticType = "done"
	SemanticFailed    SemanticType = "failed"
	SemanticHighlight SemanticType = "highlight"
	SemanticCode      SemanticType = "code"
	SemanticAdded     SemanticType = "added"
	SemanticRemoved   SemanticType = "removed"
)
