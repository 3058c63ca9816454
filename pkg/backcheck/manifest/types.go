// Package manifest implements backcheck's on-disk manifest: a plain
// text, line-oriented mapping from relative file paths to SHA-256
// digests, sorted by path so repeated builds of an unchanged tree are
// byte-identical and diff-friendly.
package manifest

import "fmt"

// DefaultName is the manifest filename written to the working directory
// when no explicit path is given.
const DefaultName = "backup_hashes.txt"

// Entry maps a relative file path to its content digest.
type Entry struct {
	// Path is relative to the scan root, forward-slash separated.
	Path string `json:"path"`

	// Digest is the 64-character lowercase hex SHA-256 of the file
	// contents.
	Digest string `json:"digest"`
}

// FormatError describes a malformed manifest line. A single malformed
// line is fatal for the whole load: a manifest that cannot be fully
// parsed cannot be partially trusted.
type FormatError struct {
	// Line is the 1-based line number of the offending line.
	Line int

	// Content is the offending line text.
	Content string

	// Reason describes what is wrong with the line.
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed manifest line %d: %s (%q)", e.Line, e.Reason, e.Content)
}
