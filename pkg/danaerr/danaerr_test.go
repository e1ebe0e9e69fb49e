package danaerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_BuildsMessageOnlyError(t *testing.T) {
	err := New(KindParse, "unexpected token")
	assert.Equal(t, "unexpected token", err.Error())
	assert.Equal(t, KindParse, err.Kind)
}

func TestWrap_AppendsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(KindRuntime, "could not save", cause)
	assert.Equal(t, "could not save: disk full", err.Error())
	assert.Same(t, cause, err.Unwrap())
}

func TestWithLocation_PrependsCaretFrame(t *testing.T) {
	err := New(KindParse, "unexpected '='").WithLocation(Location{
		Line: 1, Column: 5, SourceText: "a = = 1",
	})
	got := err.Error()
	assert.Contains(t, got, "a = = 1")
	assert.Contains(t, got, "unexpected '='")
	// caret line has 4 leading spaces before the '^' for column 5
	assert.Contains(t, got, "    ^")
}

func TestLocation_Format_EmptySourceTextYieldsEmptyFrame(t *testing.T) {
	loc := Location{Line: 1, Column: 1, SourceText: ""}
	assert.Empty(t, loc.Format())
}

func TestLocation_Format_ClampsColumnBelowOne(t *testing.T) {
	loc := Location{Line: 1, Column: 0, SourceText: "x"}
	assert.Equal(t, "x\n^", loc.Format())
}

func TestDisplay_PrefixesError(t *testing.T) {
	err := New(KindValidation, "bad field")
	assert.Equal(t, "Error: bad field", err.Display())
}

func TestIs_MatchesKind(t *testing.T) {
	err := New(KindState, "no such scope")
	assert.True(t, Is(err, KindState))
	assert.False(t, Is(err, KindParse))
}

func TestIs_NonDanaErrorIsFalse(t *testing.T) {
	assert.False(t, Is(errors.New("plain"), KindParse))
}

func TestErrorsAs_UnwrapsThroughWrap(t *testing.T) {
	cause := New(KindState, "inner")
	outer := Wrap(KindInterpret, "outer", cause)
	var de *Error
	require.True(t, errors.As(outer.Unwrap(), &de))
	assert.Equal(t, KindState, de.Kind)
}
