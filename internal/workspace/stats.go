package workspace

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// NoExtension is the bucket for files without an extension.
const NoExtension = "no extension"

// Stats summarizes the layout of a repository.
type Stats struct {
	Files       int
	Directories int
	FileTypes   map[string]int
}

// ExtCount is one row of the file type breakdown.
type ExtCount struct {
	Ext   string
	Count int
}

// Scan walks root and counts files and directories. Hidden directories and
// dependency folders are not descended into; hidden files count toward the total
// but not toward the type breakdown.
func Scan(root string) (Stats, error) {
	stats := Stats{FileTypes: make(map[string]int)}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}
			stats.Directories++
			return nil
		}

		stats.Files++
		if strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext == "" {
			ext = NoExtension
		}
		stats.FileTypes[ext]++
		return nil
	})
	if err != nil {
		return Stats{}, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return stats, nil
}

// ByCount returns the type breakdown, most common first, ties by extension.
func (s Stats) ByCount() []ExtCount {
	rows := make([]ExtCount, 0, len(s.FileTypes))
	for ext, n := range s.FileTypes {
		rows = append(rows, ExtCount{Ext: ext, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Ext < rows[j].Ext
	})
	return rows
}

// Summary renders the statistics report shown to the user.
func (s Stats) Summary() string {
	var b strings.Builder
	b.WriteString("Repository Statistics:\n")
	fmt.Fprintf(&b, "- Total files: %d\n", s.Files)
	fmt.Fprintf(&b, "- Total directories: %d\n", s.Directories)
	b.WriteString("\nFile types:\n")
	for _, row := range s.ByCount() {
		fmt.Fprintf(&b, "- %s: %d files\n", row.Ext, row.Count)
	}
	return b.String()
}
