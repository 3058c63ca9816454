package snapshot

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/backcheck/backcheck/pkg/backcheck/scanner"
)

const (
	helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	worldDigest = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
)

// specTree creates the documented example tree: a.txt containing
// "hello" and sub/b.txt containing "world".
func specTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("world"), 0o644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestBuild_SpecExample(t *testing.T) {
	root := specTree(t)

	res, err := Build(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if res.Manifest.Len() != 2 {
		t.Fatalf("manifest has %d entries, want 2", res.Manifest.Len())
	}
	if len(res.Failures) != 0 {
		t.Fatalf("unexpected failures: %v", res.Failures)
	}

	var buf bytes.Buffer
	if err := res.Manifest.Encode(&buf); err != nil {
		t.Fatal(err)
	}

	want := "a.txt " + helloDigest + "\n" +
		"sub/b.txt " + worldDigest + "\n"
	if buf.String() != want {
		t.Errorf("manifest:\n%s\nwant:\n%s", buf.String(), want)
	}

	if res.Stats.FilesHashed != 2 {
		t.Errorf("FilesHashed = %d, want 2", res.Stats.FilesHashed)
	}
	if res.Stats.BytesHashed != 10 {
		t.Errorf("BytesHashed = %d, want 10", res.Stats.BytesHashed)
	}
}

func TestBuild_Idempotent(t *testing.T) {
	root := specTree(t)

	encode := func() []byte {
		t.Helper()
		res, err := Build(context.Background(), Options{Root: root})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		var buf bytes.Buffer
		if err := res.Manifest.Encode(&buf); err != nil {
			t.Fatal(err)
		}
		return buf.Bytes()
	}

	first := encode()
	second := encode()
	if !bytes.Equal(first, second) {
		t.Errorf("repeated builds differ:\n%s\nvs:\n%s", first, second)
	}
}

func TestBuild_InvalidRoot(t *testing.T) {
	_, err := Build(context.Background(), Options{Root: filepath.Join(t.TempDir(), "gone")})
	if !errors.Is(err, scanner.ErrNotDirectory) {
		t.Fatalf("Build() error = %v, want ErrNotDirectory", err)
	}
}

func TestBuild_WhitespacePathRecordedAsFailure(t *testing.T) {
	root := specTree(t)
	if err := os.WriteFile(filepath.Join(root, "has space.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := Build(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if res.Manifest.Len() != 2 {
		t.Errorf("manifest has %d entries, want 2 (whitespace path omitted)", res.Manifest.Len())
	}

	if len(res.Failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", res.Failures)
	}
	f := res.Failures[0]
	if f.Kind != FailureUnencodablePath {
		t.Errorf("failure kind = %q, want %q", f.Kind, FailureUnencodablePath)
	}
	if f.Path != "has space.txt" {
		t.Errorf("failure path = %q", f.Path)
	}
}

func TestHashTree_ProgressCallbacks(t *testing.T) {
	root := specTree(t)

	var totalFiles, totalBytes, hashedBytes int64
	tree, err := HashTree(context.Background(), Options{
		Root: root,
		OnEnumerate: func(files, bytes int64) {
			totalFiles, totalBytes = files, bytes
		},
		OnHashBytes: func(n int64) {
			hashedBytes += n
		},
	})
	if err != nil {
		t.Fatalf("HashTree() error = %v", err)
	}

	if totalFiles != 2 || totalBytes != 10 {
		t.Errorf("OnEnumerate reported %d files / %d bytes, want 2 / 10", totalFiles, totalBytes)
	}
	if hashedBytes != 10 {
		t.Errorf("OnHashBytes total = %d, want 10", hashedBytes)
	}
	if len(tree.Digests) != 2 {
		t.Errorf("digests = %v, want 2 entries", tree.Digests)
	}
}

func TestHashTree_VanishedFileRecordedAsReadFailure(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	root := specTree(t)
	locked := filepath.Join(root, "locked.txt")
	if err := os.WriteFile(locked, []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0o644)

	tree, err := HashTree(context.Background(), Options{Root: root})
	if err != nil {
		t.Fatalf("HashTree() error = %v, want nil (per-file failures are non-fatal)", err)
	}

	if len(tree.Failures) != 1 {
		t.Fatalf("failures = %v, want exactly one", tree.Failures)
	}
	if tree.Failures[0].Kind != FailureRead {
		t.Errorf("failure kind = %q, want %q", tree.Failures[0].Kind, FailureRead)
	}
	if _, ok := tree.Digests["locked.txt"]; ok {
		t.Error("unreadable file present in digests")
	}
	if len(tree.Digests) != 2 {
		t.Errorf("remaining files not hashed: %v", tree.Digests)
	}
}

func TestBuild_ContextCancellation(t *testing.T) {
	root := specTree(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Build(ctx, Options{Root: root})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Build() error = %v, want context.Canceled", err)
	}
}
