package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// PrettyFormatter formats a verification report with colors and styling
// using lipgloss. It produces a visually appealing output suitable for
// terminal display.
type PrettyFormatter struct{}

// Format writes the formatted output to the buffer.
func (f *PrettyFormatter) Format(w *bytes.Buffer, r *Result) error {
	w.WriteString(f.formatHeader(r))
	w.WriteString("\n")

	w.WriteString(f.formatGroups(r))

	w.WriteString(f.formatFooter(r))
	w.WriteString("\n")

	return nil
}

// formatHeader builds the header box with run metadata.
func (f *PrettyFormatter) formatHeader(r *Result) string {
	var lines []string

	rootLabel := LabelStyle.Render("Root:")
	rootValue := ValueStyle.Render(r.Root)
	lines = append(lines, fmt.Sprintf("%s     %s", rootLabel, rootValue))

	manifestLabel := LabelStyle.Render("Manifest:")
	manifestValue := ValueStyle.Render(r.ManifestPath)
	lines = append(lines, fmt.Sprintf("%s %s", manifestLabel, manifestValue))

	stats := r.Report.Stats
	hashedLabel := LabelStyle.Render("Hashed:")
	hashedValue := ValueStyle.Render(fmt.Sprintf("%d files, %s in %s",
		stats.FilesHashed,
		humanize.IBytes(uint64(stats.BytesHashed)),
		stats.Elapsed.Round(timeResolution)))
	lines = append(lines, fmt.Sprintf("%s   %s", hashedLabel, hashedValue))

	return HeaderBox.Render(strings.Join(lines, "\n"))
}

// formatGroups renders the non-matched groups, one path per line.
// Matched files are summarized as a count; listing them individually
// would bury the problems the user is looking for.
func (f *PrettyFormatter) formatGroups(r *Result) string {
	rep := r.Report
	var sb strings.Builder

	matched := SuccessStyle.Render(fmt.Sprintf("%d matched", len(rep.Matched)))
	sb.WriteString("  " + matched + "\n")

	for _, m := range rep.Mismatched {
		tag := ErrorStyle.Render("mismatch")
		detail := DigestStyle.Render(fmt.Sprintf("expected %s, got %s", m.Expected, m.Actual))
		sb.WriteString(fmt.Sprintf("  %s  %s\n           %s\n", tag, PathStyle.Render(m.Path), detail))
	}
	for _, p := range rep.Missing {
		tag := ErrorStyle.Render("missing ")
		sb.WriteString(fmt.Sprintf("  %s  %s\n", tag, PathStyle.Render(p)))
	}
	for _, p := range rep.Extra {
		tag := WarningStyle.Render("extra   ")
		sb.WriteString(fmt.Sprintf("  %s  %s\n", tag, PathStyle.Render(p)))
	}
	for _, u := range rep.Unreadable {
		tag := WarningStyle.Render("unread  ")
		detail := MutedStyle.Render(u.Error)
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", tag, PathStyle.Render(u.Path), detail))
	}

	return sb.String()
}

// formatFooter builds the footer box with totals and the verdict.
func (f *PrettyFormatter) formatFooter(r *Result) string {
	rep := r.Report
	var parts []string

	totalLabel := LabelStyle.Render("Checked:")
	totalValue := ValueStyle.Render(fmt.Sprintf("%d paths", rep.Total()))
	parts = append(parts, fmt.Sprintf("%s %s", totalLabel, totalValue))

	counts := fmt.Sprintf("%s / %s / %s / %s",
		ErrorStyle.Render(fmt.Sprintf("%d mismatched", len(rep.Mismatched))),
		ErrorStyle.Render(fmt.Sprintf("%d missing", len(rep.Missing))),
		WarningStyle.Render(fmt.Sprintf("%d extra", len(rep.Extra))),
		WarningStyle.Render(fmt.Sprintf("%d unreadable", len(rep.Unreadable))))
	parts = append(parts, counts)

	if r.Passed() {
		parts = append(parts, SuccessStyle.Bold(true).Render("PASSED"))
	} else {
		parts = append(parts, ErrorStyle.Bold(true).Render("FAILED"))
	}

	return FooterBox.Render(strings.Join(parts, "  "))
}

func init() {
	Register("pretty", func() Formatter {
		return &PrettyFormatter{}
	})
}

// Ensure PrettyFormatter implements Formatter.
var _ Formatter = (*PrettyFormatter)(nil)
