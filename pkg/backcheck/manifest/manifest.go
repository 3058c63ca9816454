package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// digestPattern matches a 256-bit digest in lowercase hex.
var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// Manifest is an ordered set of path-to-digest entries. It is built
// once and immutable during verification; lookups are O(1).
type Manifest struct {
	entries []Entry
	index   map[string]string
}

// New returns an empty Manifest.
func New() *Manifest {
	return &Manifest{index: make(map[string]string)}
}

// Add inserts an entry. Adding a path twice replaces the previous
// digest; relative paths are unique within a manifest.
func (m *Manifest) Add(path, digest string) {
	if _, exists := m.index[path]; exists {
		for i := range m.entries {
			if m.entries[i].Path == path {
				m.entries[i].Digest = digest
				break
			}
		}
	} else {
		m.entries = append(m.entries, Entry{Path: path, Digest: digest})
	}
	m.index[path] = digest
}

// Digest returns the digest recorded for path.
func (m *Manifest) Digest(path string) (string, bool) {
	d, ok := m.index[path]
	return d, ok
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns the entries sorted by path ascending.
func (m *Manifest) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Paths returns the entry paths sorted ascending.
func (m *Manifest) Paths() []string {
	out := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e.Path)
	}
	sort.Strings(out)
	return out
}

// Encode writes the manifest in its line format, one
// "<path> <digest>" pair per line, sorted by path.
func (m *Manifest) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range m.Entries() {
		if _, err := fmt.Fprintf(bw, "%s %s\n", e.Path, e.Digest); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile atomically writes the manifest to path: the content is
// written to a temp file in the destination directory and renamed into
// place, so a crash mid-write cannot leave a corrupt or partial
// manifest, and a failure leaves any pre-existing file untouched.
func (m *Manifest) WriteFile(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if err := m.Encode(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp manifest: %w", err)
	}

	// CreateTemp creates the file 0600; the manifest is shared data.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting manifest permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing manifest: %w", err)
	}
	return nil
}

// Parse reads a manifest from r. Each non-empty line must split into
// exactly two whitespace-separated tokens, the second a 64-character
// lowercase hex digest; anything else fails with a *FormatError
// carrying the line number. Blank lines are ignored.
func Parse(r io.Reader) (*Manifest, error) {
	m := New()

	scanner := bufio.NewScanner(r)
	// Paths can exceed bufio's default token size on deep trees.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		tokens := strings.Fields(line)
		if len(tokens) != 2 {
			return nil, &FormatError{
				Line:    lineNo,
				Content: line,
				Reason:  fmt.Sprintf("expected 2 fields, found %d", len(tokens)),
			}
		}

		path, digest := tokens[0], tokens[1]
		if !digestPattern.MatchString(digest) {
			return nil, &FormatError{
				Line:    lineNo,
				Content: line,
				Reason:  "digest is not 64 lowercase hex characters",
			}
		}

		m.Add(path, digest)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	return m, nil
}

// Load reads and parses the manifest file at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	m, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return m, nil
}
