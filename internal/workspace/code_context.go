package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/tognete/codi/pkg/coditypes"
)

// DefaultMaxFileBytes caps the size of a single file loaded into a task context.
const DefaultMaxFileBytes int64 = 256 * 1024

// SourceExtensions are the file extensions loaded into a task context.
var SourceExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".java": true, ".cpp": true, ".h": true, ".go": true,
}

var skippedDirs = map[string]bool{
	"node_modules": true,
	"venv":         true,
	"__pycache__":  true,
	"vendor":       true,
}

// LoadCodeContext reads the source files under root into a CodeContext keyed by
// slash-separated relative path. Unreadable, oversized and non-UTF-8 files are
// skipped silently. An empty root yields an empty context.
func LoadCodeContext(root string, maxBytes int64) coditypes.CodeContext {
	files := make(map[string]string)
	if root == "" {
		return coditypes.CodeContext{Files: files}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFileBytes
	}

	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !SourceExtensions[filepath.Ext(d.Name())] {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxBytes {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil || !utf8.Valid(data) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})

	return coditypes.CodeContext{Files: files, ProjectRoot: root}
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || skippedDirs[name]
}
