package changes

import (
	"path/filepath"
	"strings"
)

var languages = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".jsx":  "jsx",
	".ts":   "typescript",
	".tsx":  "tsx",
	".java": "java",
	".cpp":  "cpp",
	".h":    "c",
	".rb":   "ruby",
	".rs":   "rust",
	".sh":   "bash",
	".yaml": "yaml",
	".yml":  "yaml",
	".json": "json",
	".md":   "markdown",
}

// LanguageFor returns a fence language hint for path, or "text".
func LanguageFor(path string) string {
	if lang, ok := languages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "text"
}
