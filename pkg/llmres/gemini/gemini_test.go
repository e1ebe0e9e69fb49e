package gemini

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New("g", Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNew_DefaultsModelWhenUnset(t *testing.T) {
	r, err := New("g", Config{APIKey: "fake-key"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash", r.Model())
}

func TestNew_DefaultsNameWhenEmpty(t *testing.T) {
	r, err := New("", Config{APIKey: "fake-key"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", r.Name())
	assert.Equal(t, "llm", r.Kind())
}

func TestNew_KeepsExplicitModel(t *testing.T) {
	r, err := New("g", Config{APIKey: "fake-key", Model: "gemini-1.5-pro"})
	require.NoError(t, err)
	assert.Equal(t, "gemini-1.5-pro", r.Model())
}
