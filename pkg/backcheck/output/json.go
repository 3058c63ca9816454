package output

import (
	"bytes"
	"encoding/json"

	"github.com/backcheck/backcheck/pkg/backcheck/compare"
	"github.com/backcheck/backcheck/pkg/backcheck/snapshot"
	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// jsonOutput represents the full JSON output structure.
type jsonOutput struct {
	Root       string                 `json:"root"`
	Manifest   string                 `json:"manifest"`
	Passed     bool                   `json:"passed"`
	Matched    []string               `json:"matched"`
	Mismatched []compare.Mismatch     `json:"mismatched"`
	Missing    []string               `json:"missing"`
	Extra      []string               `json:"extra"`
	Unreadable []snapshot.FileFailure `json:"unreadable"`
	ScanErrors []types.ScanError      `json:"scan_errors,omitempty"`
	Stats      jsonStats              `json:"stats"`
}

// jsonStats represents hashing statistics in JSON output.
type jsonStats struct {
	FilesHashed int64  `json:"files_hashed"`
	BytesHashed int64  `json:"bytes_hashed"`
	Elapsed     string `json:"elapsed"`
}

// JSONFormatter formats a verification report as a single indented JSON
// object. Empty groups are emitted as empty arrays rather than null so
// consumers can index them unconditionally.
type JSONFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *JSONFormatter) Format(w *bytes.Buffer, r *Result) error {
	rep := r.Report

	out := jsonOutput{
		Root:       r.Root,
		Manifest:   r.ManifestPath,
		Passed:     r.Passed(),
		Matched:    emptyIfNil(rep.Matched),
		Mismatched: rep.Mismatched,
		Missing:    emptyIfNil(rep.Missing),
		Extra:      emptyIfNil(rep.Extra),
		Unreadable: rep.Unreadable,
		ScanErrors: rep.ScanErrors,
		Stats: jsonStats{
			FilesHashed: rep.Stats.FilesHashed,
			BytesHashed: rep.Stats.BytesHashed,
			Elapsed:     rep.Stats.Elapsed.Round(timeResolution).String(),
		},
	}
	if out.Mismatched == nil {
		out.Mismatched = []compare.Mismatch{}
	}
	if out.Unreadable == nil {
		out.Unreadable = []snapshot.FileFailure{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func init() {
	Register("json", func() Formatter {
		return &JSONFormatter{}
	})
}

// Ensure JSONFormatter implements Formatter.
var _ Formatter = (*JSONFormatter)(nil)
