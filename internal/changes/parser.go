// Package changes recovers per-file code edits from free-form model output.
//
// Two marker conventions are recognized: a fenced block whose tag carries a
// path (```python app/main.py) and an explicit label line (File: app.py or
// filename: app.py). Everything outside an open file is discarded.
package changes

import (
	"sort"
	"strings"
)

const fence = "```"

// parser holds the two pieces of state of the extraction state machine.
type parser struct {
	currentFile string
	buffer      []string
	out         map[string]string
}

// Parse scans text line by line and returns a path to content mapping.
// It never fails; text without markers yields an empty, non-nil map.
func Parse(text string) map[string]string {
	p := &parser{out: make(map[string]string)}
	for _, line := range strings.Split(text, "\n") {
		p.feed(line)
	}
	p.flush()
	return p.out
}

func (p *parser) feed(line string) {
	switch {
	case strings.HasPrefix(line, fence) && len(line) > len(fence):
		p.flush()
		if path := pathFromTag(line[len(fence):]); path != "" {
			p.currentFile = path
		}

	case strings.HasPrefix(line, "File: ") || strings.HasPrefix(line, "filename: "):
		p.flush()
		p.currentFile = strings.TrimSpace(line[strings.Index(line, ":")+1:])

	case line == fence:
		p.flush()
		p.currentFile = ""

	case p.currentFile != "":
		p.buffer = append(p.buffer, line)
	}
}

// pathFromTag returns the first token of a fence tag that looks like a path,
// so both "app.py" and "python app.py" name a file while "python" does not.
func pathFromTag(tag string) string {
	for _, tok := range strings.Fields(tag) {
		if strings.ContainsAny(tok, "/.") {
			return tok
		}
	}
	return ""
}

// flush commits the buffer under the open file. An empty buffer commits nothing.
func (p *parser) flush() {
	if p.currentFile != "" && len(p.buffer) > 0 {
		p.out[p.currentFile] = strings.Join(p.buffer, "\n")
	}
	p.buffer = p.buffer[:0]
}

// Render writes changes back in the fenced-with-path convention, in path order.
// Parse(Render(m)) reproduces m for path-like keys whose content has no marker lines.
func Render(changes map[string]string) string {
	var b strings.Builder
	for i, path := range SortedPaths(changes) {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(fence + LanguageFor(path) + " " + path + "\n")
		b.WriteString(changes[path])
		b.WriteString("\n" + fence + "\n")
	}
	return b.String()
}

// SortedPaths returns the keys of changes in lexical order.
func SortedPaths(changes map[string]string) []string {
	paths := make([]string, 0, len(changes))
	for path := range changes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
