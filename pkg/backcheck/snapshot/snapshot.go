// Package snapshot builds backup manifests: it sequences the scanner
// and the digest engine over a directory tree, collecting successful
// digests into a manifest and per-file failures into a separate list so
// one unreadable file never aborts a build.
package snapshot

import (
	"context"
	"strings"
	"time"

	"github.com/backcheck/backcheck/pkg/backcheck/digest"
	"github.com/backcheck/backcheck/pkg/backcheck/logging"
	"github.com/backcheck/backcheck/pkg/backcheck/manifest"
	"github.com/backcheck/backcheck/pkg/backcheck/scanner"
	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// logger is the package-level logger for build operations.
var logger = logging.Get("snapshot")

// FailureKind classifies why a file was left out of a manifest.
type FailureKind string

const (
	// FailureRead covers files that disappeared or became unreadable
	// between enumeration and hashing.
	FailureRead FailureKind = "read"

	// FailureUnencodablePath covers files whose relative path contains
	// whitespace and therefore cannot be represented in the two-token
	// manifest line format.
	FailureUnencodablePath FailureKind = "unencodable-path"
)

// FileFailure records a file that could not be added to a manifest.
type FileFailure struct {
	// Path is relative to the scan root.
	Path string `json:"path"`

	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`

	// Error is the underlying error message.
	Error string `json:"error"`
}

// Options configures a build or hashing pass.
type Options struct {
	// Root is the directory to snapshot.
	Root string

	// FollowSymlinks is passed through to the scanner.
	FollowSymlinks bool

	// ChunkSize is the digest engine read buffer size; zero uses the
	// default.
	ChunkSize int64

	// OnEnumerate is called once after enumeration with the total file
	// and byte counts, before any hashing starts.
	OnEnumerate func(files, bytes int64)

	// OnHashBytes is called with byte increments as files are hashed.
	OnHashBytes func(n int64)
}

// Stats summarizes a completed pass.
type Stats struct {
	FilesHashed int64         `json:"files_hashed"`
	BytesHashed int64         `json:"bytes_hashed"`
	Elapsed     time.Duration `json:"elapsed"`
}

// Result is the outcome of a manifest build.
type Result struct {
	// Manifest holds every file that hashed successfully.
	Manifest *manifest.Manifest

	// Failures lists files omitted from the manifest, by kind.
	Failures []FileFailure

	// ScanErrors lists traversal-level problems (unreadable
	// directories and the like).
	ScanErrors []types.ScanError

	// Stats summarizes the pass.
	Stats Stats
}

// Tree is the outcome of a hashing pass used for verification: the
// actual digests found under a root, plus everything that went wrong
// getting them.
type Tree struct {
	// Digests maps relative path to actual content digest.
	Digests map[string]string

	// Failures lists files that could not be hashed.
	Failures []FileFailure

	// ScanErrors lists traversal-level problems.
	ScanErrors []types.ScanError

	// Stats summarizes the pass.
	Stats Stats
}

// Build snapshots the tree under opts.Root into a manifest. Per-file
// digest failures are recorded and skipped; only an invalid root or a
// cancelled context is fatal.
func Build(ctx context.Context, opts Options) (*Result, error) {
	tree, err := HashTree(ctx, opts)
	if err != nil {
		return nil, err
	}

	m := manifest.New()
	for rel, d := range tree.Digests {
		m.Add(rel, d)
	}

	logger.Info("build complete",
		"root", opts.Root,
		"files", m.Len(),
		"failures", len(tree.Failures),
		"bytes", tree.Stats.BytesHashed)

	return &Result{
		Manifest:   m,
		Failures:   tree.Failures,
		ScanErrors: tree.ScanErrors,
		Stats:      tree.Stats,
	}, nil
}

// HashTree enumerates the tree under opts.Root and digests every
// regular file found, in two phases so byte totals are known before
// hashing begins.
func HashTree(ctx context.Context, opts Options) (*Tree, error) {
	start := time.Now()

	scan, err := scanner.New(scanner.Options{
		Root:           opts.Root,
		FollowSymlinks: opts.FollowSymlinks,
	}).Scan(ctx)
	if err != nil {
		return nil, err
	}

	if opts.OnEnumerate != nil {
		opts.OnEnumerate(int64(len(scan.Files)), scan.TotalSize)
	}

	tree := &Tree{
		Digests:    make(map[string]string, len(scan.Files)),
		ScanErrors: scan.Errors,
	}

	engine := digest.New(opts.ChunkSize)
	for _, f := range scan.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if strings.ContainsAny(f.Rel, " \t") {
			logger.Warn("path not representable in manifest", "path", f.Rel)
			tree.Failures = append(tree.Failures, FileFailure{
				Path:  f.Rel,
				Kind:  FailureUnencodablePath,
				Error: "path contains whitespace",
			})
			if opts.OnHashBytes != nil {
				opts.OnHashBytes(f.Size)
			}
			continue
		}

		var hashed int64
		d, err := engine.File(f.Abs, func(n int64) {
			hashed += n
			if opts.OnHashBytes != nil {
				opts.OnHashBytes(n)
			}
		})
		if err != nil {
			// TOCTOU window: the file vanished or became unreadable
			// after enumeration.
			logger.Warn("hash failed", "path", f.Rel, "error", err)
			tree.Failures = append(tree.Failures, FileFailure{
				Path:  f.Rel,
				Kind:  FailureRead,
				Error: err.Error(),
			})
			if opts.OnHashBytes != nil && f.Size > hashed {
				opts.OnHashBytes(f.Size - hashed)
			}
			continue
		}

		tree.Digests[f.Rel] = d
		tree.Stats.FilesHashed++
		tree.Stats.BytesHashed += hashed
	}

	tree.Stats.Elapsed = time.Since(start)
	return tree, nil
}
