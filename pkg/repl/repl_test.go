package repl

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitomatic/dana/pkg/interp"
	"github.com/aitomatic/dana/pkg/state"
)

func newTestREPL(t *testing.T, input string) (*REPL, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	ctx := interp.NewContext()
	history := LoadHistory(filepath.Join(t.TempDir(), "history"), 100)
	r := New(strings.NewReader(input), out, ctx, history, nil)
	return r, out
}

func TestREPL_SingleLineAssignmentPrintsLastValue(t *testing.T) {
	r, out := newTestREPL(t, "private.x = 1 + 2\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "3")
}

func TestREPL_PrintStatementEchoesOutput(t *testing.T) {
	r, out := newTestREPL(t, `print("hi")`+"\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "hi")
}

func TestREPL_MultiLineBlockAssemblesBeforeExecuting(t *testing.T) {
	input := "private.x = 1\nif private.x:\n    private.y = 1\n\n"
	r, _ := newTestREPL(t, input)
	require.NoError(t, r.Run())
	assert.Equal(t, int64(1), r.ctx.State.Get("private.y", state.None).AsInt())
}

func TestREPL_ExitCommandEndsLoop(t *testing.T) {
	r, out := newTestREPL(t, "exit\nprivate.x = 1\n")
	require.NoError(t, r.Run())
	assert.NotContains(t, out.String(), "1")
}

func TestREPL_HelpCommandPrintsUsage(t *testing.T) {
	r, out := newTestREPL(t, "help\nexit\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "Dana REPL")
}

func TestREPL_NLPToggleMetaCommands(t *testing.T) {
	r, out := newTestREPL(t, "##nlp status\n##nlp on\n##nlp status\nexit\n")
	require.NoError(t, r.Run())
	s := out.String()
	assert.Contains(t, s, "NLP mode: off")
	assert.Contains(t, s, "NLP mode on")
	assert.Contains(t, s, "NLP mode: on")
}

func TestREPL_NLPSelfTest(t *testing.T) {
	r, out := newTestREPL(t, "##nlp test\nexit\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "self-check ok")
}

func TestREPL_UnknownMetaCommand(t *testing.T) {
	r, out := newTestREPL(t, "##bogus\nexit\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "unknown meta-command")
}

func TestREPL_ParseErrorIsReportedNotFatal(t *testing.T) {
	r, out := newTestREPL(t, "if\nexit\n")
	require.NoError(t, r.Run())
	assert.NotEmpty(t, out.String())
}

func TestREPL_HistoryRecordsSubmittedLines(t *testing.T) {
	r, _ := newTestREPL(t, "private.x = 1\nexit\n")
	require.NoError(t, r.Run())
	assert.Equal(t, []string{"private.x = 1"}, r.history.Entries())
}

func TestParseFuncFor_ValidAndInvalid(t *testing.T) {
	pf := ParseFuncFor()
	valid, errText := pf("private.x = 1")
	assert.True(t, valid)
	assert.Empty(t, errText)

	valid, errText = pf("if\n")
	assert.False(t, valid)
	assert.NotEmpty(t, errText)
}
