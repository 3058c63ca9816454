package main

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/viper"
)

// progressEnabled reports whether a progress bar should be shown.
// Progress goes to stderr so it never pollutes report output.
func progressEnabled() bool {
	if getQuiet() || viper.GetBool("no_progress") {
		return false
	}
	return isatty.IsTerminal(os.Stderr.Fd())
}

// newProgressBar creates a byte-based progress bar for a hashing pass.
func newProgressBar(totalBytes int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		totalBytes,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(120*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// progressReporter adapts a progress bar to the snapshot callbacks. A
// zero reporter is valid and does nothing until OnEnumerate fires.
type progressReporter struct {
	description string
	bar         *progressbar.ProgressBar
}

// OnEnumerate creates the bar once the total byte count is known.
func (p *progressReporter) OnEnumerate(files, bytes int64) {
	if !progressEnabled() {
		return
	}
	p.bar = newProgressBar(bytes, p.description)
	_ = p.bar.RenderBlank()
}

// OnHashBytes advances the bar.
func (p *progressReporter) OnHashBytes(n int64) {
	if p.bar != nil {
		_ = p.bar.Add64(n)
	}
}

// Finish clears the bar.
func (p *progressReporter) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
