// Package scanner enumerates the regular files under a directory tree
// for the backcheck backup verifier. Traversal is depth-first over an
// explicit work stack with directory entries visited in sorted order,
// so the resulting sequence is deterministic regardless of the
// filesystem's native directory ordering.
package scanner

// Options configures the scanner behavior.
type Options struct {
	// Root is the directory to scan. It must exist and be a directory.
	Root string

	// FollowSymlinks controls whether symbolic links are followed.
	// When false (the default) symlinks are skipped entirely: they are
	// neither descended into nor emitted as files. When true, links to
	// directories are descended into with cycle detection and links to
	// regular files are emitted.
	FollowSymlinks bool

	// OnFile is called for each regular file as it is discovered.
	// Returning an error stops the walk and propagates the error.
	OnFile func(FileEntry) error
}

// Validate applies defaults for unset values.
func (o *Options) Validate() {
	if o.Root == "" {
		o.Root = "."
	}
}
