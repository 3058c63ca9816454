package output

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// PlainFormatter formats a verification report as simple aligned text.
// It produces plain output suitable for scripting, piping, and the
// on-disk summary file. No colors or styling are applied.
type PlainFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PlainFormatter) Format(w *bytes.Buffer, r *Result) error {
	rep := r.Report

	fmt.Fprintf(w, "Backup verification report\n")
	fmt.Fprintf(w, "Root:     %s\n", r.Root)
	fmt.Fprintf(w, "Manifest: %s\n", r.ManifestPath)
	fmt.Fprintf(w, "Hashed:   %d files, %s in %s\n\n",
		rep.Stats.FilesHashed,
		humanize.IBytes(uint64(rep.Stats.BytesHashed)),
		rep.Stats.Elapsed.Round(timeResolution))

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)

	if _, err := tw.Write([]byte("STATUS\tPATH\tDETAIL\n")); err != nil {
		return err
	}

	for _, p := range rep.Matched {
		fmt.Fprintf(tw, "ok\t%s\t\n", p)
	}
	for _, m := range rep.Mismatched {
		fmt.Fprintf(tw, "MISMATCH\t%s\texpected %s, got %s\n", m.Path, m.Expected, m.Actual)
	}
	for _, p := range rep.Missing {
		fmt.Fprintf(tw, "MISSING\t%s\t\n", p)
	}
	for _, p := range rep.Extra {
		fmt.Fprintf(tw, "extra\t%s\t\n", p)
	}
	for _, u := range rep.Unreadable {
		fmt.Fprintf(tw, "unreadable\t%s\t%s\n", u.Path, u.Error)
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nTotals: %d matched, %d mismatched, %d missing, %d extra, %d unreadable\n",
		len(rep.Matched), len(rep.Mismatched), len(rep.Missing), len(rep.Extra), len(rep.Unreadable))

	if r.Passed() {
		fmt.Fprintf(w, "Result: PASSED\n")
	} else {
		fmt.Fprintf(w, "Result: FAILED\n")
	}

	return nil
}

func init() {
	Register("plain", func() Formatter {
		return &PlainFormatter{}
	})
}

// Ensure PlainFormatter implements Formatter.
var _ Formatter = (*PlainFormatter)(nil)
