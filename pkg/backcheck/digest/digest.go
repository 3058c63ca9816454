// Package digest computes streaming SHA-256 content digests for the
// backcheck backup verifier. Files are read in fixed-size chunks so
// arbitrarily large files never need to fit in memory.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// HexLength is the length of an encoded digest: 64 lowercase hex
// characters for a 256-bit hash.
const HexLength = sha256.Size * 2

// Engine hashes file contents in fixed-size chunks.
type Engine struct {
	chunkSize int64
}

// New returns an Engine reading files in chunks of chunkSize bytes.
// Non-positive sizes fall back to types.DefaultChunkSize.
func New(chunkSize int64) *Engine {
	if chunkSize <= 0 {
		chunkSize = types.DefaultChunkSize
	}
	return &Engine{chunkSize: chunkSize}
}

// File streams the file at path through SHA-256 and returns the digest
// as a 64-character lowercase hex string. onProgress, if non-nil, is
// called with the number of bytes consumed as the read loop advances.
//
// Errors opening or reading the file are returned to the caller; a file
// vanishing between enumeration and hashing surfaces here as an
// *fs.PathError and is the caller's per-file failure to record.
func (e *Engine) File(path string, onProgress func(n int64)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	buf := make([]byte, e.chunkSize)

	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			if _, werr := h.Write(buf[:n]); werr != nil {
				return "", fmt.Errorf("hashing %s: %w", path, werr)
			}
			if onProgress != nil {
				onProgress(int64(n))
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return "", fmt.Errorf("reading %s: %w", path, rerr)
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Sum hashes an in-memory byte slice with the same encoding as File.
// It exists for callers that already hold the content, such as tests
// computing expected values.
func Sum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
