// Package workspace locates the project Codi works in and reads it for tasks.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Info describes a detected workspace.
type Info struct {
	Path        string
	ProjectName string
}

// Empty reports whether no workspace is configured.
func (i Info) Empty() bool {
	return i.Path == ""
}

// searchDirs are tried, in order, for a checkout named after the configured repository.
var searchDirs = []string{"devel", "dev", "projects", "code", ""}

// Detect finds the workspace for cwd. A configured repository ("owner/name" or
// "name") is looked up as a git checkout under cwd and a few common locations in
// home. Failing that the enclosing git work tree is used, then cwd itself.
func Detect(githubRepo, cwd, home string) Info {
	if githubRepo != "" {
		name := githubRepo[strings.LastIndex(githubRepo, "/")+1:]
		candidates := []string{filepath.Join(cwd, name)}
		if home != "" {
			for _, dir := range searchDirs {
				candidates = append(candidates, filepath.Join(home, dir, name))
			}
		}
		for _, candidate := range candidates {
			if isDir(filepath.Join(candidate, ".git")) {
				return newInfo(candidate)
			}
		}
	}

	if root, ok := gitRoot(cwd); ok {
		return newInfo(root)
	}
	return newInfo(cwd)
}

// FromPath builds Info for an explicitly configured path.
func FromPath(path string) Info {
	if path == "" {
		return Info{}
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return newInfo(path)
}

func newInfo(path string) Info {
	return Info{Path: path, ProjectName: filepath.Base(path)}
}

func gitRoot(dir string) (string, bool) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", false
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", false
	}
	return wt.Filesystem.Root(), true
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
