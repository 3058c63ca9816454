package digest

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/backcheck/backcheck/pkg/backcheck/types"
)

// Known SHA-256 vectors.
const (
	helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	worldDigest = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
	emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatalf("write file %s: %v", p, err)
	}
	return p
}

func TestEngine_File(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name      string
		content   []byte
		chunkSize int64
		missing   bool
		want      string
		wantErr   bool
	}{
		{name: "hello vector", content: []byte("hello"), want: helloDigest},
		{name: "world vector", content: []byte("world"), want: worldDigest},
		{name: "empty file", content: []byte{}, want: emptyDigest},
		{name: "larger than one chunk", content: bytes.Repeat([]byte("A"), 2*1024*1024+17), chunkSize: 1024 * 1024, want: Sum(bytes.Repeat([]byte("A"), 2*1024*1024+17))},
		{name: "tiny chunk size", content: []byte("hello"), chunkSize: 2, want: helloDigest},
		{name: "missing file", missing: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.missing {
				path = filepath.Join(dir, "does-not-exist.bin")
			} else {
				path = writeFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".bin", tt.content)
			}

			var progressed int64
			got, err := New(tt.chunkSize).File(path, func(n int64) {
				progressed += n
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != tt.want {
				t.Fatalf("digest mismatch:\n got: %s\nwant: %s", got, tt.want)
			}
			if got != strings.ToLower(got) {
				t.Fatalf("digest not lowercase: %s", got)
			}
			if len(got) != HexLength {
				t.Fatalf("digest length = %d, want %d", len(got), HexLength)
			}
			if progressed != int64(len(tt.content)) {
				t.Fatalf("progress reported %d bytes, want %d", progressed, len(tt.content))
			}
		})
	}
}

func TestNew_DefaultChunkSize(t *testing.T) {
	e := New(0)
	if e.chunkSize != types.DefaultChunkSize {
		t.Errorf("chunkSize = %d, want %d", e.chunkSize, types.DefaultChunkSize)
	}

	e = New(-5)
	if e.chunkSize != types.DefaultChunkSize {
		t.Errorf("chunkSize = %d, want %d", e.chunkSize, types.DefaultChunkSize)
	}
}
