package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFormatter_Failed(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}

	require.NoError(t, f.Format(&buf, failedResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, "/restore/photos", decoded["root"])
	assert.Equal(t, "backup_hashes.txt", decoded["manifest"])
	assert.Equal(t, false, decoded["passed"])

	mismatched, ok := decoded["mismatched"].([]any)
	require.True(t, ok)
	require.Len(t, mismatched, 1)
	entry := mismatched[0].(map[string]any)
	assert.Equal(t, "album/corrupt.jpg", entry["path"])

	stats := decoded["stats"].(map[string]any)
	assert.Equal(t, float64(4), stats["files_hashed"])
	assert.Equal(t, float64(4096), stats["bytes_hashed"])
}

func TestJSONFormatter_EmptyGroupsAreArrays(t *testing.T) {
	var buf bytes.Buffer
	f := &JSONFormatter{}

	require.NoError(t, f.Format(&buf, passedResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	for _, key := range []string{"mismatched", "missing", "extra", "unreadable"} {
		group, ok := decoded[key].([]any)
		assert.True(t, ok, "%s should decode as an array, got %T", key, decoded[key])
		assert.Empty(t, group)
	}
	assert.Equal(t, true, decoded["passed"])
}
