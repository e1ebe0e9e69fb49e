package repl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_MissingFileStartsEmpty(t *testing.T) {
	h := LoadHistory(filepath.Join(t.TempDir(), "does-not-exist"), 100)
	assert.Empty(t, h.Entries())
}

func TestHistory_AppendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	h := LoadHistory(path, 100)

	require.NoError(t, h.Append("private.x = 1"))
	require.NoError(t, h.Append("print(private.x)"))

	reloaded := LoadHistory(path, 100)
	assert.Equal(t, []string{"private.x = 1", "print(private.x)"}, reloaded.Entries())
}

func TestHistory_DuplicateMovesToEnd(t *testing.T) {
	h := LoadHistory(filepath.Join(t.TempDir(), "history"), 100)

	require.NoError(t, h.Append("a"))
	require.NoError(t, h.Append("b"))
	require.NoError(t, h.Append("a"))

	assert.Equal(t, []string{"b", "a"}, h.Entries())
}

func TestHistory_CapsAtMaxSize(t *testing.T) {
	h := LoadHistory(filepath.Join(t.TempDir(), "history"), 2)

	require.NoError(t, h.Append("a"))
	require.NoError(t, h.Append("b"))
	require.NoError(t, h.Append("c"))

	assert.Equal(t, []string{"b", "c"}, h.Entries())
}

func TestHistory_EmptyPathSkipsPersistence(t *testing.T) {
	h := LoadHistory("", 10)
	require.NoError(t, h.Append("a"))
	assert.Equal(t, []string{"a"}, h.Entries())
}

func TestHistory_CorruptFileStartsEmptyOnScanError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history")
	// A line far longer than the scanner's buffer cap triggers a scan error.
	big := make([]byte, 2*1024*1024)
	for i := range big {
		big[i] = 'x'
	}
	require.NoError(t, os.WriteFile(path, big, 0644))

	h := LoadHistory(path, 10)
	assert.Empty(t, h.Entries())
}
