package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/backcheck/backcheck/pkg/backcheck/compare"
	"github.com/backcheck/backcheck/pkg/backcheck/config"
	"github.com/backcheck/backcheck/pkg/backcheck/output"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [path] [manifest]",
	Short: "Verify a restored tree against a manifest",
	Long: `Rehash every file under the given directory tree and compare the
digests against a previously built manifest.

Each path is classified as matched, mismatched, missing, extra, or
unreadable. The command fails when any file is mismatched or missing;
extra and unreadable files are reported but do not fail the run.

A plain-text summary is also written to backup_verification_summary.txt
in the current working directory unless --no-summary-file is given.

Examples:
  backcheck verify /restore/photos
  backcheck verify /restore/photos photos.manifest
  backcheck verify -o json /restore/photos | jq .passed`,
	Args: cobra.MaximumNArgs(2),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// runVerify is the verify command handler.
func runVerify(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	var manifestPath string
	if len(args) > 1 {
		manifestPath, err = config.ExpandPath(args[1])
		if err != nil {
			return fmt.Errorf("failed to expand manifest path: %w", err)
		}
	} else {
		manifestPath, err = resolveManifestPath()
		if err != nil {
			return err
		}
	}

	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = "pretty"
	}
	// Styled output only makes sense on a color terminal; piped or
	// colorless runs get the plain rendering.
	if outFormat == "pretty" && (viper.GetBool("no_color") || !isatty.IsTerminal(os.Stdout.Fd())) {
		outFormat = "plain"
	}
	formatter, err := output.Get(outFormat)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	reporter := &progressReporter{description: "verifying"}
	opts, err := snapshotOptions(root, reporter)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	printVerbose("Verifying %s against %s", root, manifestPath)

	report, err := compare.Run(ctx, manifestPath, opts)
	reporter.Finish()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Verification cancelled")
			return err
		}
		return fmt.Errorf("verification aborted: %w", err)
	}

	result := &output.Result{
		Root:         root,
		ManifestPath: manifestPath,
		Report:       report,
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, result); err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Print(buf.String())

	if !viper.GetBool("no_summary_file") {
		if err := writeSummaryFile(result); err != nil {
			printError("failed to write summary file: %v", err)
		}
	}

	if report.Failed() {
		return fmt.Errorf("verification failed: %d mismatched, %d missing",
			len(report.Mismatched), len(report.Missing))
	}

	return nil
}

// writeSummaryFile renders the plain report to the summary file in the
// current working directory.
func writeSummaryFile(result *output.Result) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	path := filepath.Join(cwd, viper.GetString("summary_name"))

	var buf bytes.Buffer
	plain := &output.PlainFormatter{}
	if err := plain.Format(&buf, result); err != nil {
		return err
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}

	printVerbose("Wrote summary to %s", path)
	return nil
}
