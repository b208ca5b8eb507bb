package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is a lipgloss-backed StyleProvider.
type Theme struct {
	styles map[SemanticType]lipgloss.Style
}

// NewTheme builds the default color theme.
func NewTheme() *Theme {
	return &Theme{styles: map[SemanticType]lipgloss.Style{
		SemanticPlain:     lipgloss.NewStyle(),
		SemanticInfo:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		SemanticSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		SemanticWarning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		SemanticError:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		SemanticStep:      lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true),
		SemanticDetail:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		SemanticWorking:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true),
		SemanticDone:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		SemanticFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		SemanticHighlight: lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true),
		SemanticCode:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		SemanticAdded:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		SemanticRemoved:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	}}
}

// GetStyle returns the style for semantic, or an unstyled one.
func (t *Theme) GetStyle(semantic string) TextStyle {
	if style, ok := t.styles[SemanticType(semantic)]; ok {
		return style
	}
	return lipgloss.NewStyle()
}

// IsAvailable reports whether the terminal can show colors.
func (t *Theme) IsAvailable() bool {
	return lipgloss.ColorProfile() != termenv.Ascii
}

// DisableColors makes all lipgloss rendering plain. Used in test mode and with NO_COLOR.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ShouldUseColor reports whether stdout is a color-capable terminal and NO_COLOR is unset.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	return termenv.NewOutput(os.Stdout).Profile != termenv.Ascii
}
