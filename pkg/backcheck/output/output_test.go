package output

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backcheck/backcheck/pkg/backcheck/compare"
	"github.com/backcheck/backcheck/pkg/backcheck/snapshot"
)

// failedResult returns a result with one entry in every group.
func failedResult() *Result {
	return &Result{
		Root:         "/restore/photos",
		ManifestPath: "backup_hashes.txt",
		Report: &compare.Report{
			Matched: []string{"album/ok.jpg"},
			Mismatched: []compare.Mismatch{
				{
					Path:     "album/corrupt.jpg",
					Expected: "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
					Actual:   "486ea46224d1bb4fb680f34f7c9ad96a8f24ec88be73ea8e5a6c65260e9cb8a7",
				},
			},
			Missing: []string{"album/gone.jpg"},
			Extra:   []string{"album/new.jpg"},
			Unreadable: []snapshot.FileFailure{
				{Path: "album/locked.jpg", Kind: snapshot.FailureRead, Error: "permission denied"},
			},
			Stats: snapshot.Stats{
				FilesHashed: 4,
				BytesHashed: 4096,
				Elapsed:     120 * time.Millisecond,
			},
		},
	}
}

// passedResult returns a result where everything matched.
func passedResult() *Result {
	return &Result{
		Root:         "/restore/photos",
		ManifestPath: "backup_hashes.txt",
		Report: &compare.Report{
			Matched: []string{"a.txt", "b.txt"},
			Stats:   snapshot.Stats{FilesHashed: 2, BytesHashed: 10},
		},
	}
}

func TestResult_Passed(t *testing.T) {
	assert.False(t, failedResult().Passed())
	assert.True(t, passedResult().Passed())
}

func TestGet_KnownFormatters(t *testing.T) {
	for _, name := range []string{"pretty", "plain", "json"} {
		t.Run(name, func(t *testing.T) {
			f, err := Get(name)
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}
}

func TestGet_UnknownFormatter(t *testing.T) {
	_, err := Get("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown formatter")
}

func TestAvailable(t *testing.T) {
	names := Available()
	assert.Contains(t, names, "pretty")
	assert.Contains(t, names, "plain")
	assert.Contains(t, names, "json")
	assert.IsIncreasing(t, names)
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	r := NewRegistry()
	r.Register("plain", func() Formatter { return &PlainFormatter{} })
	r.Register("plain", func() Formatter { return &JSONFormatter{} })

	f, err := r.Get("plain")
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)
	assert.Equal(t, []string{"plain"}, r.Available())
}
