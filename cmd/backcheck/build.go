package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/backcheck/backcheck/pkg/backcheck/snapshot"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Hash a directory tree and write its manifest",
	Long: `Walk the given directory tree, hash every regular file with SHA-256,
and write a manifest of relative paths and digests.

The manifest is written to backup_hashes.txt in the current working
directory unless --manifest points elsewhere. Files that cannot be read
are reported but do not abort the build.

Examples:
  backcheck build /srv/backups/photos
  backcheck build -m photos.manifest /srv/backups/photos
  backcheck build --chunk-size 8MiB /srv/backups/video`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
}

// runBuild is the build command handler.
func runBuild(_ *cobra.Command, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	manifestPath, err := resolveManifestPath()
	if err != nil {
		return err
	}

	reporter := &progressReporter{description: "hashing"}
	opts, err := snapshotOptions(root, reporter)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	printVerbose("Building manifest for %s", root)

	res, err := snapshot.Build(ctx, opts)
	reporter.Finish()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			printInfo("Build cancelled")
			return err
		}
		return fmt.Errorf("build failed: %w", err)
	}

	if err := res.Manifest.WriteFile(manifestPath); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	printInfo("Wrote %s: %d files, %s hashed in %s",
		manifestPath,
		res.Manifest.Len(),
		humanize.IBytes(uint64(res.Stats.BytesHashed)),
		res.Stats.Elapsed.Round(timeResolution))

	for _, f := range res.Failures {
		printError("skipped %s: %s", f.Path, f.Error)
	}
	for _, e := range res.ScanErrors {
		printError("scan: %s: %s", e.Path, e.Error)
	}

	return nil
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		printInfo("\nInterrupted, stopping...")
		cancel()
	}()

	return ctx, cancel
}
