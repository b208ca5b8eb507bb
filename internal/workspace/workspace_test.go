package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tognete/codi/internal/testutils"
)

func TestDetect(t *testing.T) {
	t.Run("configured repository under home", func(t *testing.T) {
		home := t.TempDir()
		checkout := filepath.Join(home, "projects", "codi")
		_, err := git.PlainInit(checkout, false)
		require.NoError(t, err)

		info := Detect("tognete/codi", t.TempDir(), home)
		assert.Equal(t, checkout, info.Path)
		assert.Equal(t, "codi", info.ProjectName)
	})

	t.Run("enclosing git work tree", func(t *testing.T) {
		root := t.TempDir()
		_, err := git.PlainInit(root, false)
		require.NoError(t, err)
		nested := filepath.Join(root, "internal", "pkg")
		require.NoError(t, os.MkdirAll(nested, 0o755))

		info := Detect("", nested, "")
		assert.Equal(t, filepath.Base(root), info.ProjectName)
	})

	t.Run("falls back to working dir", func(t *testing.T) {
		cwd := t.TempDir()
		info := Detect("missing/repo", cwd, t.TempDir())
		assert.Equal(t, cwd, info.Path)
		assert.False(t, info.Empty())
	})
}

func TestFromPath(t *testing.T) {
	assert.True(t, FromPath("").Empty())
	assert.Equal(t, "proj", FromPath("/tmp/proj").ProjectName)
}

func TestLoadCodeContext(t *testing.T) {
	root := testutils.CreateWorkspace(t, map[string]string{
		"main.go":               "package main",
		"src/app.py":            "print('hi')",
		"README.md":             "# readme",
		".hidden/secret.py":     "x = 1",
		"node_modules/lib/a.js": "module.exports = {}",
		"vendor/x/y.go":         "package y",
		"web/big.ts":            string(make([]byte, 64)),
		"web/binary.js":         string([]byte{0xff, 0xfe, 0x00}),
		"__pycache__/cached.py": "cached",
	})

	ctx := LoadCodeContext(root, 32)
	assert.Equal(t, root, ctx.ProjectRoot)
	assert.Equal(t, map[string]string{
		"main.go":    "package main",
		"src/app.py": "print('hi')",
	}, ctx.Files)

	assert.Empty(t, LoadCodeContext("", 0).Files)
}

func TestScanSummary(t *testing.T) {
	root := testutils.CreateWorkspace(t, map[string]string{
		"a.go":              "",
		"b.go":              "",
		"pkg/c.go":          "",
		"pkg/d.py":          "",
		"Makefile":          "",
		".gitignore":        "",
		".git/config":       "",
		"node_modules/x.js": "",
	})

	stats, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, 6, stats.Files)
	assert.Equal(t, 1, stats.Directories)
	assert.Equal(t, "Repository Statistics:\n"+
		"- Total files: 6\n"+
		"- Total directories: 1\n"+
		"\nFile types:\n"+
		"- .go: 3 files\n"+
		"- .py: 1 files\n"+
		"- no extension: 1 files\n", stats.Summary())
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}
