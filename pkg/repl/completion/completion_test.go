package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsComplete_EmptyInput(t *testing.T) {
	assert.True(t, IsComplete(""))
	assert.True(t, IsComplete("   \n"))
}

func TestIsComplete_BareWord(t *testing.T) {
	assert.True(t, IsComplete("private"))
	assert.True(t, IsComplete("private.x"))
}

func TestIsComplete_SimpleAssignment(t *testing.T) {
	assert.True(t, IsComplete("private.x = 1"))
	assert.False(t, IsComplete("private.x ="))
	assert.False(t, IsComplete("private.x =   "))
}

func TestIsComplete_UnbalancedBrackets(t *testing.T) {
	assert.False(t, IsComplete("print(1, 2"))
	assert.True(t, IsComplete("print(1, 2)"))
}

func TestIsComplete_BracketAcrossLines(t *testing.T) {
	assert.False(t, IsComplete("foo(1,\n"))
	assert.True(t, IsComplete("foo(1,\n2)"))
}

func TestIsComplete_TrailingColonNeedsBody(t *testing.T) {
	assert.False(t, IsComplete("if private.x:"))
}

func TestIsComplete_IfWithBody(t *testing.T) {
	assert.True(t, IsComplete("if private.x:\n    private.y = 1"))
}

func TestIsComplete_DanglingElifBody(t *testing.T) {
	assert.False(t, IsComplete("if private.x:\n    private.y = 1\nelif private.z:"))
}

func TestIsComplete_UnseenDedentLevel(t *testing.T) {
	assert.False(t, IsComplete("if private.x:\n    private.y = 1\n  private.z = 2"))
}

func TestIsComplete_HashHashTerminator(t *testing.T) {
	assert.True(t, IsComplete("if private.x:\n    private.y = 1\n##"))
}

func TestIsComplete_StringLiteralBracketsIgnored(t *testing.T) {
	assert.True(t, IsComplete(`private.x = "a (b"`))
}
