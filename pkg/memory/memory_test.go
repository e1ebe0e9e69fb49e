package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileStartsEmpty(t *testing.T) {
	cm := Load(filepath.Join(t.TempDir(), "nope.json"), 5)
	assert.Equal(t, 0, cm.Count())
	assert.Equal(t, 1, cm.NextTurnNumber())
}

func TestLoad_DefaultsMaxTurnsWhenNonPositive(t *testing.T) {
	cm := Load(filepath.Join(t.TempDir(), "nope.json"), 0)
	for i := 0; i < DefaultMaxTurns+5; i++ {
		require.NoError(t, cm.Append(Turn{User: "u", Assistant: "a", TurnNumber: i + 1}))
	}
	assert.Equal(t, DefaultMaxTurns, cm.Count())
}

func TestAppend_TrimsToCapacity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.json")
	cm := Load(path, 2)

	require.NoError(t, cm.Append(Turn{User: "1", TurnNumber: 1}))
	require.NoError(t, cm.Append(Turn{User: "2", TurnNumber: 2}))
	require.NoError(t, cm.Append(Turn{User: "3", TurnNumber: 3}))

	assert.Equal(t, 2, cm.Count())
	last := cm.Last(0)
	require.Len(t, last, 2)
	assert.Equal(t, "2", last[0].User)
	assert.Equal(t, "3", last[1].User)
}

func TestAppend_PersistsAndReloads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "conv.json")
	cm := Load(path, 10)
	require.NoError(t, cm.Append(Turn{User: "hi", Assistant: "hello", TurnNumber: 1}))

	reloaded := Load(path, 10)
	assert.Equal(t, 1, reloaded.Count())
	assert.Equal(t, "hi", reloaded.Last(1)[0].User)
}

func TestLoad_CorruptedFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	cm := Load(path, 5)
	assert.Equal(t, 0, cm.Count())
}

func TestLoad_PersistedMaxTurnsOverridesArgument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.json")
	cm := Load(path, 5)
	cm.maxTurns = 3
	for i := 1; i <= 5; i++ {
		require.NoError(t, cm.Append(Turn{User: "x", TurnNumber: i}))
	}

	reloaded := Load(path, 100)
	assert.Equal(t, 3, reloaded.Count())
}

func TestLast_NReturnsMostRecentInOrder(t *testing.T) {
	cm := Load(filepath.Join(t.TempDir(), "conv.json"), 10)
	for i := 1; i <= 5; i++ {
		require.NoError(t, cm.Append(Turn{User: string(rune('a' + i - 1)), TurnNumber: i}))
	}
	last2 := cm.Last(2)
	require.Len(t, last2, 2)
	assert.Equal(t, "d", last2[0].User)
	assert.Equal(t, "e", last2[1].User)
}

func TestClear_EmptiesAndPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conv.json")
	cm := Load(path, 10)
	require.NoError(t, cm.Append(Turn{User: "x", TurnNumber: 1}))
	require.NoError(t, cm.Clear())

	assert.Equal(t, 0, cm.Count())
	reloaded := Load(path, 10)
	assert.Equal(t, 0, reloaded.Count())
}

func TestNextTurnNumber_FollowsLastAppended(t *testing.T) {
	cm := Load(filepath.Join(t.TempDir(), "conv.json"), 10)
	require.NoError(t, cm.Append(Turn{TurnNumber: 7}))
	assert.Equal(t, 8, cm.NextTurnNumber())
}

func TestPathFor_BuildsExpectedLayout(t *testing.T) {
	got := PathFor("/home/u", "assistant")
	assert.Equal(t, filepath.Join("/home/u", ".dana", "chats", "assistant_conversation.json"), got)
}
