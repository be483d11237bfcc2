package bootstrap

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// EntryKind names what a manifest entry provisions.
type EntryKind string

// Entry kinds.
const (
	// EntryDir creates a directory.
	EntryDir EntryKind = "dir"

	// EntryTemplate copies an embedded template to the same relative path.
	EntryTemplate EntryKind = "template"

	// EntrySample writes the synthetic employee dataset. The optional
	// argument is the row count.
	EntrySample EntryKind = "sample"
)

// Entry is one line of the dependency manifest.
type Entry struct {
	Kind EntryKind
	Path string
	Rows int
	Line int
}

// ParseManifest reads one entry per line as "kind path [rows]". Blank lines
// and lines starting with # are ignored. Paths must stay inside the
// workspace.
func ParseManifest(r io.Reader) ([]Entry, error) {
	var entries []Entry

	sc := bufio.NewScanner(r)
	line := 0

	for sc.Scan() {
		line++

		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		e, err := parseEntry(strings.Fields(text), line)
		if err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return entries, nil
}

func parseEntry(fields []string, line int) (Entry, error) {
	if len(fields) < 2 {
		return Entry{}, fmt.Errorf("manifest line %d: want \"kind path\", got %q", line, strings.Join(fields, " "))
	}

	e := Entry{Kind: EntryKind(fields[0]), Path: filepath.Clean(fields[1]), Line: line}

	if filepath.IsAbs(e.Path) || e.Path == ".." || strings.HasPrefix(e.Path, ".."+string(filepath.Separator)) {
		return Entry{}, fmt.Errorf("manifest line %d: path %q leaves the workspace", line, fields[1])
	}

	switch e.Kind {
	case EntryDir, EntryTemplate:
		if len(fields) > 2 {
			return Entry{}, fmt.Errorf("manifest line %d: %s takes no argument", line, e.Kind)
		}
	case EntrySample:
		e.Rows = defaultSampleRows

		if len(fields) > 2 {
			rows, err := strconv.Atoi(fields[2])
			if err != nil || rows <= 0 {
				return Entry{}, fmt.Errorf("manifest line %d: invalid row count %q", line, fields[2])
			}

			e.Rows = rows
		}
	default:
		return Entry{}, fmt.Errorf("manifest line %d: unknown entry kind %q", line, fields[0])
	}

	return e, nil
}
