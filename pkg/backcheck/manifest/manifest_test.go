package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	helloDigest = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	worldDigest = "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7"
)

func TestManifest_AddAndLookup(t *testing.T) {
	m := New()
	m.Add("a.txt", helloDigest)
	m.Add("sub/b.txt", worldDigest)

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}

	d, ok := m.Digest("a.txt")
	if !ok || d != helloDigest {
		t.Errorf("Digest(a.txt) = %q, %v", d, ok)
	}

	if _, ok := m.Digest("missing.txt"); ok {
		t.Error("Digest(missing.txt) reported present")
	}

	// Re-adding a path replaces its digest instead of duplicating.
	m.Add("a.txt", worldDigest)
	if m.Len() != 2 {
		t.Fatalf("Len() after replace = %d, want 2", m.Len())
	}
	d, _ = m.Digest("a.txt")
	if d != worldDigest {
		t.Errorf("Digest(a.txt) after replace = %q", d)
	}
}

func TestManifest_EncodeSortedByPath(t *testing.T) {
	m := New()
	// Inserted out of order on purpose.
	m.Add("sub/b.txt", worldDigest)
	m.Add("a.txt", helloDigest)

	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := "a.txt " + helloDigest + "\n" +
		"sub/b.txt " + worldDigest + "\n"
	if buf.String() != want {
		t.Errorf("Encode output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestManifest_EncodeIdempotent(t *testing.T) {
	m := New()
	m.Add("z.bin", worldDigest)
	m.Add("a.bin", helloDigest)

	var first, second bytes.Buffer
	if err := m.Encode(&first); err != nil {
		t.Fatal(err)
	}
	if err := m.Encode(&second); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("repeated Encode calls produced different bytes")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLen  int
		wantLine int // expected FormatError line, 0 means no error
	}{
		{
			name:    "valid two entries",
			input:   "a.txt " + helloDigest + "\nsub/b.txt " + worldDigest + "\n",
			wantLen: 2,
		},
		{
			name:    "tab delimiter accepted",
			input:   "a.txt\t" + helloDigest + "\n",
			wantLen: 1,
		},
		{
			name:    "trailing blank lines ignored",
			input:   "a.txt " + helloDigest + "\n\n\n",
			wantLen: 1,
		},
		{
			name:    "empty input",
			input:   "",
			wantLen: 0,
		},
		{
			name:     "single token",
			input:    "a.txt\n",
			wantLine: 1,
		},
		{
			name:     "three tokens",
			input:    "a.txt extra " + helloDigest + "\n",
			wantLine: 1,
		},
		{
			name:     "63 character digest",
			input:    "a.txt " + helloDigest[:63] + "\n",
			wantLine: 1,
		},
		{
			name:     "65 character digest",
			input:    "a.txt " + helloDigest + "f\n",
			wantLine: 1,
		},
		{
			name:     "uppercase digest rejected",
			input:    "a.txt " + strings.ToUpper(helloDigest) + "\n",
			wantLine: 1,
		},
		{
			name:     "non-hex digest",
			input:    "a.txt " + strings.Repeat("z", 64) + "\n",
			wantLine: 1,
		},
		{
			name:     "error reports correct line number",
			input:    "a.txt " + helloDigest + "\n\nbroken-line\n",
			wantLine: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Parse(strings.NewReader(tt.input))
			if tt.wantLine > 0 {
				var ferr *FormatError
				if !errors.As(err, &ferr) {
					t.Fatalf("Parse() error = %v, want *FormatError", err)
				}
				if ferr.Line != tt.wantLine {
					t.Errorf("FormatError.Line = %d, want %d", ferr.Line, tt.wantLine)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if m.Len() != tt.wantLen {
				t.Errorf("Len() = %d, want %d", m.Len(), tt.wantLen)
			}
		})
	}
}

func TestParse_RoundTrip(t *testing.T) {
	m := New()
	m.Add("deep/nested/file.bin", helloDigest)
	m.Add("top.txt", worldDigest)

	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		t.Fatal(err)
	}

	parsed, err := Parse(&buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if parsed.Len() != m.Len() {
		t.Fatalf("round trip Len() = %d, want %d", parsed.Len(), m.Len())
	}
	for _, e := range m.Entries() {
		d, ok := parsed.Digest(e.Path)
		if !ok || d != e.Digest {
			t.Errorf("round trip lost %s: got %q, %v", e.Path, d, ok)
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Run("writes atomically and leaves no temp files", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultName)

		m := New()
		m.Add("a.txt", helloDigest)
		if err := m.WriteFile(path); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading manifest: %v", err)
		}
		if string(data) != "a.txt "+helloDigest+"\n" {
			t.Errorf("manifest content = %q", data)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = e.Name()
			}
			t.Errorf("temp files left behind: %v", names)
		}
	})

	t.Run("manifest is readable by other users", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultName)

		m := New()
		m.Add("a.txt", helloDigest)
		if err := m.WriteFile(path); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0o644 {
			t.Errorf("manifest mode = %o, want 644", perm)
		}
	})

	t.Run("failed write leaves existing manifest untouched", func(t *testing.T) {
		if os.Getuid() == 0 {
			t.Skip("permission checks do not apply to root")
		}

		dir := t.TempDir()
		path := filepath.Join(dir, DefaultName)

		original := []byte("old.txt " + worldDigest + "\n")
		if err := os.WriteFile(path, original, 0o644); err != nil {
			t.Fatal(err)
		}

		// A read-only directory makes the temp file creation fail
		// before the rename can happen.
		if err := os.Chmod(dir, 0o555); err != nil {
			t.Fatal(err)
		}
		defer os.Chmod(dir, 0o755)

		m := New()
		m.Add("new.txt", helloDigest)
		if err := m.WriteFile(path); err == nil {
			t.Fatal("WriteFile() = nil, want error in read-only directory")
		}

		if err := os.Chmod(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading manifest: %v", err)
		}
		if !bytes.Equal(data, original) {
			t.Errorf("existing manifest changed after failed write: %q", data)
		}
	})

	t.Run("overwrites an existing manifest without merging", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, DefaultName)

		if err := os.WriteFile(path, []byte("old.txt "+worldDigest+"\n"), 0o644); err != nil {
			t.Fatal(err)
		}

		m := New()
		m.Add("new.txt", helloDigest)
		if err := m.WriteFile(path); err != nil {
			t.Fatalf("WriteFile() error = %v", err)
		}

		loaded, err := Load(path)
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := loaded.Digest("old.txt"); ok {
			t.Error("old entry survived overwrite")
		}
		if _, ok := loaded.Digest("new.txt"); !ok {
			t.Error("new entry missing after overwrite")
		}
	})

	t.Run("fails when destination directory is missing", func(t *testing.T) {
		m := New()
		m.Add("a.txt", helloDigest)
		err := m.WriteFile(filepath.Join(t.TempDir(), "no-such-dir", DefaultName))
		if err == nil {
			t.Fatal("expected error writing into missing directory")
		}
	})
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing manifest file")
	}
}
