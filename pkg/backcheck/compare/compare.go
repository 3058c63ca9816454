// Package compare verifies a restored directory tree against a saved
// manifest, classifying every path seen on either side as matched,
// mismatched, missing, extra, or unreadable.
package compare

import (
	"context"
	"sort"

	"github.com/backcheck/backcheck/pkg/backcheck/logging"
	"github.com/backcheck/backcheck/pkg/backcheck/manifest"
	"github.com/backcheck/backcheck/pkg/backcheck/snapshot"
	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// logger is the package-level logger for verify operations.
var logger = logging.Get("compare")

// Mismatch records a path present on both sides with differing digests.
type Mismatch struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// Report is the classified outcome of a verification. Every relative
// path appearing in the manifest or the rescanned tree lands in exactly
// one of the five groups, each sorted by path.
type Report struct {
	// Matched paths had equal digests on both sides.
	Matched []string `json:"matched"`

	// Mismatched paths exist on both sides with differing digests.
	Mismatched []Mismatch `json:"mismatched"`

	// Missing paths are in the manifest but absent from the tree.
	Missing []string `json:"missing"`

	// Extra paths are in the tree but absent from the manifest.
	Extra []string `json:"extra"`

	// Unreadable paths could not be hashed during verification. This is
	// its own category: an unreadable file is neither confirmed intact
	// nor proven corrupt.
	Unreadable []snapshot.FileFailure `json:"unreadable"`

	// ScanErrors lists traversal-level problems from the rescan.
	ScanErrors []types.ScanError `json:"scan_errors,omitempty"`

	// Stats summarizes the hashing pass over the tree.
	Stats snapshot.Stats `json:"stats"`
}

// Failed reports whether the verification should be treated as a
// failure: any mismatched or missing file fails the run. Extra and
// unreadable files are reported but do not fail it on their own.
func (r *Report) Failed() bool {
	return len(r.Mismatched) > 0 || len(r.Missing) > 0
}

// Total returns the number of classified paths.
func (r *Report) Total() int {
	return len(r.Matched) + len(r.Mismatched) + len(r.Missing) + len(r.Extra) + len(r.Unreadable)
}

// Run loads the manifest at manifestPath, rescans and rehashes the tree
// described by opts, and returns the classified report. A malformed
// manifest or an invalid root is fatal; per-file problems during the
// rescan are classified, not raised.
func Run(ctx context.Context, manifestPath string, opts snapshot.Options) (*Report, error) {
	m, err := manifest.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	tree, err := snapshot.HashTree(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := Classify(m, tree)
	logger.Info("verify complete",
		"root", opts.Root,
		"matched", len(report.Matched),
		"mismatched", len(report.Mismatched),
		"missing", len(report.Missing),
		"extra", len(report.Extra),
		"unreadable", len(report.Unreadable))
	return report, nil
}

// Classify compares expected digests from a manifest against the
// actual digests of a hashed tree.
func Classify(m *manifest.Manifest, tree *snapshot.Tree) *Report {
	report := &Report{
		ScanErrors: tree.ScanErrors,
		Stats:      tree.Stats,
	}

	unreadable := make(map[string]snapshot.FileFailure, len(tree.Failures))
	for _, f := range tree.Failures {
		unreadable[f.Path] = f
	}

	union := make(map[string]struct{}, m.Len()+len(tree.Digests)+len(unreadable))
	for _, p := range m.Paths() {
		union[p] = struct{}{}
	}
	for p := range tree.Digests {
		union[p] = struct{}{}
	}
	for p := range unreadable {
		union[p] = struct{}{}
	}

	paths := make([]string, 0, len(union))
	for p := range union {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if f, ok := unreadable[p]; ok {
			report.Unreadable = append(report.Unreadable, f)
			continue
		}

		expected, inManifest := m.Digest(p)
		actual, inTree := tree.Digests[p]

		switch {
		case inManifest && inTree && expected == actual:
			report.Matched = append(report.Matched, p)
		case inManifest && inTree:
			report.Mismatched = append(report.Mismatched, Mismatch{
				Path:     p,
				Expected: expected,
				Actual:   actual,
			})
		case inManifest:
			report.Missing = append(report.Missing, p)
		default:
			report.Extra = append(report.Extra, p)
		}
	}

	return report
}
