package output

// PlainTextStyle renders text with an optional semantic prefix.
type PlainTextStyle struct {
	prefix string
}

// NewPlainTextStyle creates a plain style with prefix.
func NewPlainTextStyle(prefix string) *PlainTextStyle {
	return &PlainTextStyle{prefix: prefix}
}

// Render joins text and prepends the prefix.
func (p *PlainTextStyle) Render(text ...string) string {
	out := ""
	for _, t := range text {
		out += t
	}
	return p.prefix + out
}

// PlainStyleProvider maps semantic types to plain prefixes.
type PlainStyleProvider struct{}

var plainProvider = &PlainStyleProvider{}

// NewPlainStyleProvider creates a plain style provider.
func NewPlainStyleProvider() *PlainStyleProvider {
	return plainProvider
}

// GetStyle returns the plain style for semantic.
func (p *PlainStyleProvider) GetStyle(semantic string) TextStyle {
	switch SemanticType(semantic) {
	case SemanticSuccess:
		return NewPlainTextStyle("✓ ")
	case SemanticWarning:
		return NewPlainTextStyle("⚠ ")
	case SemanticError:
		return NewPlainTextStyle("✗ ")
	case SemanticInfo:
		return NewPlainTextStyle("ℹ ")
	default:
		return NewPlainTextStyle("")
	}
}

// IsAvailable always returns true.
func (p *PlainStyleProvider) IsAvailable() bool {
	return true
}
