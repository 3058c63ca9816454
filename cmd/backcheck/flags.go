package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/backcheck/backcheck/pkg/backcheck/config"
	"github.com/backcheck/backcheck/pkg/backcheck/snapshot"
	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// timeResolution is the rounding applied to elapsed durations in
// status messages.
const timeResolution = 10 * time.Millisecond

// resolveRoot turns a positional path argument into an absolute
// directory path, expanding a leading ~.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	return abs, nil
}

// resolveChunkSize parses the configured hashing buffer size.
func resolveChunkSize() (int64, error) {
	chunkStr := viper.GetString("chunk_size")
	if chunkStr == "" {
		chunkStr = config.DefaultChunkSize
	}

	size, err := types.ParseSize(chunkStr)
	if err != nil {
		return 0, fmt.Errorf("invalid chunk size %q: %w", chunkStr, err)
	}

	return size, nil
}

// resolveManifestPath returns the manifest location: the --manifest
// flag if given, otherwise the configured manifest name in the current
// working directory.
func resolveManifestPath() (string, error) {
	if path := viper.GetString("manifest"); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return "", fmt.Errorf("failed to expand manifest path: %w", err)
		}
		return expanded, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}

	return filepath.Join(cwd, viper.GetString("manifest_name")), nil
}

// snapshotOptions assembles hashing options shared by build and verify.
func snapshotOptions(root string, reporter *progressReporter) (snapshot.Options, error) {
	chunkSize, err := resolveChunkSize()
	if err != nil {
		return snapshot.Options{}, err
	}

	return snapshot.Options{
		Root:           root,
		FollowSymlinks: viper.GetBool("follow_symlinks"),
		ChunkSize:      chunkSize,
		OnEnumerate:    reporter.OnEnumerate,
		OnHashBytes:    reporter.OnHashBytes,
	}, nil
}
