package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed personality.yaml
var defaultPersonality []byte

// Personality describes who the assistant presents itself as.
type Personality struct {
	Name         string   `yaml:"name"`
	Role         string   `yaml:"role"`
	Style        string   `yaml:"style"`
	Expertise    []string `yaml:"expertise"`
	Capabilities []string `yaml:"capabilities"`
	Guidelines   []string `yaml:"guidelines"`
}

// DefaultPersonality returns the built-in Codi profile.
func DefaultPersonality() Personality {
	p, err := ParsePersonality(defaultPersonality)
	if err != nil {
		panic(fmt.Sprintf("embedded personality is invalid: %v", err))
	}
	return p
}

// ParsePersonality decodes a YAML profile. Name and role are required.
func ParsePersonality(data []byte) (Personality, error) {
	var p Personality
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Personality{}, fmt.Errorf("failed to parse personality: %w", err)
	}
	if p.Name == "" || p.Role == "" {
		return Personality{}, fmt.Errorf("personality needs a name and a role")
	}
	return p, nil
}

// SystemPrompt renders the profile as the first system message of a chat turn.
func (p Personality) SystemPrompt(ws Workspace) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, an %s with extensive experience in %s.\n", p.Name, p.Role, strings.Join(p.Expertise, ", "))
	fmt.Fprintf(&b, "You communicate in a %s manner, drawing from years of software development expertise.\n\n", p.Style)

	b.WriteString("You have direct access to the following capabilities:\n")
	for _, c := range p.Capabilities {
		b.WriteString("- " + c + "\n")
	}

	b.WriteString("\nYour workspace context:\n")
	b.WriteString("- Project: " + orUndetermined(ws.ProjectName) + "\n")
	b.WriteString("- Location: " + orUndetermined(ws.Path) + "\n")

	b.WriteString("\nYou should:\n")
	for i, g := range p.Guidelines {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}

	b.WriteString("\nIMPORTANT: You have DIRECT access to the file system and can read/write code. ")
	b.WriteString("Never suggest that you don't have access. Instead, use your capabilities to help users effectively.")
	return b.String()
}

// Greeting is the fixed reply to a bare hello.
func (p Personality) Greeting(projectName string) string {
	return fmt.Sprintf("👋 Hello! I'm %s, your AI senior software developer. "+
		"I'm currently working in the %s project and have full access to the codebase. "+
		"Let's write some excellent code together.", p.Name, projectName)
}

func orUndetermined(s string) string {
	if s == "" {
		return "Not yet determined"
	}
	return s
}
