package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults_FillsExpectedValues(t *testing.T) {
	d := Defaults()
	assert.Equal(t, "info", d.LogLevel)
	assert.Equal(t, 1000, d.HistoryMaxLines)
	assert.Equal(t, 20, d.MemoryMaxTurns)
	assert.Equal(t, 100_000, d.MaxSteps)
	assert.Equal(t, "gemini-2.0-flash", d.GeminiModel)
	assert.False(t, d.NLPOnBoot)
}

func TestHomeDir_NeverEmpty(t *testing.T) {
	assert.NotEmpty(t, HomeDir())
}

func TestIsTruthy(t *testing.T) {
	for _, s := range []string{"1", "true", "True", "yes", "on", " TRUE "} {
		assert.True(t, isTruthy(s), "expected %q to be truthy", s)
	}
	for _, s := range []string{"", "0", "false", "no", "off", "garbage"} {
		assert.False(t, isTruthy(s), "expected %q to be falsy", s)
	}
}

func TestExpandEnvVars_WithDefault(t *testing.T) {
	t.Setenv("DANA_TEST_VAR", "")
	os.Unsetenv("DANA_TEST_VAR")
	assert.Equal(t, "fallback", expandEnvVars("${DANA_TEST_VAR:-fallback}"))

	t.Setenv("DANA_TEST_VAR", "actual")
	assert.Equal(t, "actual", expandEnvVars("${DANA_TEST_VAR:-fallback}"))
}

func TestExpandEnvVars_BracedNoDefault(t *testing.T) {
	t.Setenv("DANA_TEST_VAR2", "hello")
	assert.Equal(t, "hello-world", expandEnvVars("${DANA_TEST_VAR2}-world"))
}

func TestExpandEnvVars_NoDollarSignIsNoOp(t *testing.T) {
	assert.Equal(t, "plain string", expandEnvVars("plain string"))
}

func TestLoad_NoFileNoEnvReturnsDefaults(t *testing.T) {
	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
	assert.False(t, s.MockLLM)
}

func TestLoad_YAMLFileOverridesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dana.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0644))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", s.LogLevel)
}

func TestLoad_DanaPrefixedEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dana.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0644))
	t.Setenv("DANA_LOG_LEVEL", "warn")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", s.LogLevel)
}

func TestLoad_BareLogLevelWins(t *testing.T) {
	t.Setenv("DANA_LOG_LEVEL", "warn")
	t.Setenv("LOG_LEVEL", "error")

	s, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "error", s.LogLevel)
}

func TestLoad_MockLLMEnvVar(t *testing.T) {
	t.Setenv("DANA_MOCK_LLM", "true")
	s, err := Load("")
	require.NoError(t, err)
	assert.True(t, s.MockLLM)
}

func TestLoad_MissingConfigFileIsNotAnError(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", s.LogLevel)
}
