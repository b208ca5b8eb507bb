package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tognete/codi/internal/changes"
)

// LineKind marks a line of a file diff.
type LineKind int

const (
	// LineContext is unchanged.
	LineContext LineKind = iota
	// LineAdded is new in the proposed content.
	LineAdded
	// LineRemoved exists only in the current content.
	LineRemoved
)

// DiffLine is one line of a rendered file diff.
type DiffLine struct {
	Kind LineKind
	Text string
}

// FileDiff compares the workspace copy of a file with proposed content.
type FileDiff struct {
	Path    string
	NewFile bool
	Lines   []DiffLine
	Added   int
	Removed int
}

// String renders the diff with +/- prefixes.
func (d FileDiff) String() string {
	var b strings.Builder
	for _, line := range d.Lines {
		switch line.Kind {
		case LineAdded:
			b.WriteString("+ ")
		case LineRemoved:
			b.WriteString("- ")
		default:
			b.WriteString("  ")
		}
		b.WriteString(line.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// DiffService shows proposed code changes against the files in a workspace.
type DiffService struct {
	dmp *diffmatchpatch.DiffMatchPatch
}

// NewDiffService creates a DiffService.
func NewDiffService() *DiffService {
	return &DiffService{dmp: diffmatchpatch.New()}
}

// Name returns "diff".
func (s *DiffService) Name() string {
	return "diff"
}

// Initialize is a no-op.
func (s *DiffService) Initialize() error {
	return nil
}

// Diff compares current with proposed line by line.
func (s *DiffService) Diff(path, current, proposed string) FileDiff {
	a, b, lines := s.dmp.DiffLinesToChars(current, proposed)
	diffs := s.dmp.DiffCharsToLines(s.dmp.DiffMain(a, b, false), lines)

	out := FileDiff{Path: path}
	for _, d := range diffs {
		kind := LineContext
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			kind = LineAdded
		case diffmatchpatch.DiffDelete:
			kind = LineRemoved
		}
		for _, text := range splitLines(d.Text) {
			out.Lines = append(out.Lines, DiffLine{Kind: kind, Text: text})
			switch kind {
			case LineAdded:
				out.Added++
			case LineRemoved:
				out.Removed++
			}
		}
	}
	return out
}

// Compare diffs every proposed change against the file under root. Missing
// files are reported as new. Paths escaping root are rejected.
func (s *DiffService) Compare(root string, proposed map[string]string) ([]FileDiff, error) {
	diffs := make([]FileDiff, 0, len(proposed))
	for _, path := range changes.SortedPaths(proposed) {
		full, err := resolveInRoot(root, path)
		if err != nil {
			return nil, err
		}

		current, err := os.ReadFile(full)
		newFile := errors.Is(err, fs.ErrNotExist)
		if err != nil && !newFile {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}

		d := s.Diff(path, string(current), proposed[path])
		d.NewFile = newFile
		diffs = append(diffs, d)
	}
	return diffs, nil
}

func resolveInRoot(root, path string) (string, error) {
	full := filepath.Join(root, filepath.FromSlash(path))
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the workspace", path)
	}
	return full, nil
}

func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
