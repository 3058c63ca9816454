package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/backcheck/backcheck/pkg/backcheck/logging"
	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// logger is the package-level logger for scan operations.
var logger = logging.Get("scanner")

// FileEntry is a regular file discovered during a scan.
type FileEntry = types.FileEntry

// ErrNotDirectory is returned when the scan root does not exist or is
// not a directory. It is fatal and reported before any traversal.
var ErrNotDirectory = errors.New("not a directory")

// Scanner walks a directory tree and reports every regular file under
// it. The walk is read-only and restartable: calling Scan twice on an
// unchanged tree yields the same sequence both times.
type Scanner struct {
	opts Options

	// errors collects per-entry failures without stopping the walk.
	errors []types.ScanError

	// visited tracks resolved directory paths when following symlinks,
	// so link cycles terminate.
	visited map[string]struct{}

	root string
}

// Result contains the aggregated outcome of a scan.
type Result struct {
	// Files are the regular files found, in traversal order:
	// depth-first with directory entries sorted by name.
	Files []FileEntry

	// Root is the resolved absolute path that was scanned.
	Root string

	// DirsScanned is the number of directories visited.
	DirsScanned int64

	// TotalSize is the sum of all file sizes in bytes.
	TotalSize int64

	// SymlinksSkipped counts symlinks passed over because following is
	// disabled.
	SymlinksSkipped int64

	// Errors contains per-entry failures encountered during the walk.
	Errors []types.ScanError
}

// New creates a Scanner with the given options.
func New(opts Options) *Scanner {
	opts.Validate()
	return &Scanner{
		opts:   opts,
		errors: make([]types.ScanError, 0),
	}
}

// Scan walks the tree rooted at Options.Root and returns every regular
// file found. Per-entry errors (unreadable directories, entries that
// vanish mid-walk) are recorded in the result and do not abort the
// scan; only an invalid root or a cancelled context is fatal.
func (s *Scanner) Scan(ctx context.Context) (*Result, error) {
	root, err := s.validateRoot()
	if err != nil {
		return nil, err
	}
	s.root = root
	s.errors = s.errors[:0]
	if s.opts.FollowSymlinks {
		s.visited = map[string]struct{}{root: {}}
	}

	res := &Result{Root: root}

	// Depth-first traversal over an explicit stack; recursion would
	// overflow on pathological tree depths.
	stack := []string{root}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		res.DirsScanned++

		// os.ReadDir returns entries sorted by name, which pins the
		// traversal order independent of filesystem ordering.
		entries, err := os.ReadDir(dir)
		if err != nil {
			s.addError(dir, err)
			continue
		}

		var subdirs []string
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())

			switch {
			case entry.Type()&fs.ModeSymlink != 0:
				if !s.opts.FollowSymlinks {
					res.SymlinksSkipped++
					continue
				}
				s.followSymlink(path, &subdirs, res)

			case entry.IsDir():
				subdirs = append(subdirs, path)

			case entry.Type().IsRegular():
				info, err := entry.Info()
				if err != nil {
					s.addError(path, err)
					continue
				}
				if err := s.emit(path, info.Size(), res); err != nil {
					return nil, err
				}

			default:
				// Device files, sockets, and fifos are not backup
				// content; skip them.
				logger.Debug("skipping special file", "path", path, "mode", entry.Type())
			}
		}

		// Push in reverse so the stack pops subdirectories in sorted
		// order.
		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	res.Errors = s.errors
	return res, nil
}

// followSymlink resolves a symlink when following is enabled. Links to
// directories are queued for traversal unless their resolved target was
// already visited; links to regular files are emitted.
func (s *Scanner) followSymlink(path string, subdirs *[]string, res *Result) {
	info, err := os.Stat(path)
	if err != nil {
		// Broken link.
		s.addError(path, err)
		return
	}

	if info.IsDir() {
		resolved, err := filepath.EvalSymlinks(path)
		if err != nil {
			s.addError(path, err)
			return
		}
		if _, seen := s.visited[resolved]; seen {
			logger.Debug("skipping symlink cycle", "path", path, "target", resolved)
			return
		}
		s.visited[resolved] = struct{}{}
		*subdirs = append(*subdirs, path)
		return
	}

	if info.Mode().IsRegular() {
		if err := s.emit(path, info.Size(), res); err != nil {
			s.addError(path, err)
		}
	}
}

// emit records a regular file in the result and invokes the streaming
// callback if one is configured.
func (s *Scanner) emit(path string, size int64, res *Result) error {
	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		return fmt.Errorf("relativizing %s: %w", path, err)
	}

	entry := FileEntry{
		Rel:  filepath.ToSlash(rel),
		Abs:  path,
		Size: size,
	}

	res.Files = append(res.Files, entry)
	res.TotalSize += size

	if s.opts.OnFile != nil {
		return s.opts.OnFile(entry)
	}
	return nil
}

// validateRoot resolves the root path to absolute and verifies it is an
// existing directory.
func (s *Scanner) validateRoot() (string, error) {
	root, err := filepath.Abs(s.opts.Root)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s does not exist", ErrNotDirectory, root)
		}
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	return root, nil
}

// addError records a per-entry failure.
func (s *Scanner) addError(path string, err error) {
	logger.Warn("scan error", "path", path, "error", err)
	s.errors = append(s.errors, types.ScanError{
		Path:  path,
		Error: err.Error(),
	})
}
