package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitomatic/dana/pkg/state"
)

func TestEnsureType_CreatesMinimalTypeFromFieldNames(t *testing.T) {
	reg := NewTypeRegistry()
	typ, err := EnsureType(reg, "bot", []string{"b", "a"})
	require.NoError(t, err)
	require.Len(t, typ.Fields, 2)
	assert.Equal(t, "a", typ.Fields[0].Name)
	assert.Equal(t, "b", typ.Fields[1].Name)
}

func TestEnsureType_ReturnsExistingOnSecondCall(t *testing.T) {
	reg := NewTypeRegistry()
	first, err := EnsureType(reg, "bot", []string{"a"})
	require.NoError(t, err)
	second, err := EnsureType(reg, "bot", []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestRegisterType_DifferentShapeErrors(t *testing.T) {
	reg := NewTypeRegistry()
	require.NoError(t, RegisterType(reg, &Type{Name: "bot", Fields: []FieldSpec{{Name: "a"}}}))
	err := RegisterType(reg, &Type{Name: "bot", Fields: []FieldSpec{{Name: "a"}, {Name: "b"}}})
	require.Error(t, err)
}

func TestRegisterType_SameShapeIsIdempotent(t *testing.T) {
	reg := NewTypeRegistry()
	require.NoError(t, RegisterType(reg, &Type{Name: "bot", Fields: []FieldSpec{{Name: "a"}}}))
	err := RegisterType(reg, &Type{Name: "bot", Fields: []FieldSpec{{Name: "a"}}})
	assert.NoError(t, err)
}

func TestNew_ConstructsInstanceWithCopiedFields(t *testing.T) {
	reg := NewTypeRegistry()
	fields := map[string]state.Value{"name": state.String("bob")}
	inst, err := New(reg, "bot", fields)
	require.NoError(t, err)
	assert.NotEmpty(t, inst.ID)
	assert.Equal(t, "bot", inst.TypeName)
	assert.Equal(t, "bob", inst.Fields["name"].AsString())

	fields["name"] = state.String("mutated")
	assert.Equal(t, "bob", inst.Fields["name"].AsString())
}

func TestDispatch_CustomMethodTakesPrecedenceOverDefault(t *testing.T) {
	reg := NewTypeRegistry()
	called := false
	typ := &Type{Name: "bot", Methods: map[string]Method{
		"plan": func(inst *Instance, args []state.Value) (state.Value, error) {
			called = true
			return state.String("custom"), nil
		},
	}}
	require.NoError(t, RegisterType(reg, typ))
	inst, err := New(reg, "bot", nil)
	require.NoError(t, err)

	v, err := Dispatch(inst, "plan", nil, Environment{})
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "custom", v.AsString())
}

func TestDispatch_UnknownMethodErrors(t *testing.T) {
	reg := NewTypeRegistry()
	inst, err := New(reg, "bot", nil)
	require.NoError(t, err)
	_, err = Dispatch(inst, "nonexistent", nil, Environment{})
	require.Error(t, err)
}

func TestDispatch_PlanAndSolveAreDeterministic(t *testing.T) {
	reg := NewTypeRegistry()
	inst, err := New(reg, "bot", map[string]state.Value{"mood": state.String("calm")})
	require.NoError(t, err)

	v, err := Dispatch(inst, "plan", []state.Value{state.String("task")}, Environment{})
	require.NoError(t, err)
	assert.Contains(t, v.AsString(), "plan for")
	assert.Contains(t, v.AsString(), "mood=calm")

	again, err := Dispatch(inst, "plan", []state.Value{state.String("task")}, Environment{})
	require.NoError(t, err)
	assert.Equal(t, v.AsString(), again.AsString())

	s, err := Dispatch(inst, "solve", []state.Value{state.String("task")}, Environment{})
	require.NoError(t, err)
	assert.Contains(t, s.AsString(), "solution for")
	assert.Contains(t, s.AsString(), "mood=calm")
}

func TestDispatch_RememberRecallRoundtrip(t *testing.T) {
	reg := NewTypeRegistry()
	inst, err := New(reg, "bot", nil)
	require.NoError(t, err)

	_, err = Dispatch(inst, "remember", []state.Value{state.String("k"), state.Int(7)}, Environment{})
	require.NoError(t, err)

	v, err := Dispatch(inst, "recall", []state.Value{state.String("k")}, Environment{})
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.AsInt())
}

func TestDispatch_RecallMissingKeyReturnsNone(t *testing.T) {
	reg := NewTypeRegistry()
	inst, err := New(reg, "bot", nil)
	require.NoError(t, err)
	v, err := Dispatch(inst, "recall", []state.Value{state.String("absent")}, Environment{})
	require.NoError(t, err)
	assert.True(t, v.IsNone())
}

func TestDispatch_ChatWithNoResourceUsesStockResponse(t *testing.T) {
	reg := NewTypeRegistry()
	inst, err := New(reg, "bot", nil)
	require.NoError(t, err)

	v, err := Dispatch(inst, "chat", []state.Value{state.String("hi")}, Environment{HomeDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, state.KindPromise, v.Kind())

	p := v.AsRef()
	stringer, ok := p.(interface{ String() string })
	require.True(t, ok)
	assert.Contains(t, stringer.String(), "no LLM configured")
}

type stubChatResource struct{ reply string }

func (s *stubChatResource) Kind() string  { return "llm" }
func (s *stubChatResource) Name() string  { return "stub" }
func (s *stubChatResource) Model() string { return "m" }
func (s *stubChatResource) ChatCompletion(prompt, systemPrompt string) (string, error) {
	return s.reply, nil
}

func TestDispatch_ChatWithResourceNoPoolResolvesSynchronously(t *testing.T) {
	reg := NewTypeRegistry()
	inst, err := New(reg, "bot", nil)
	require.NoError(t, err)

	env := Environment{HomeDir: t.TempDir(), DefaultResource: &stubChatResource{reply: "hello there"}}
	v, err := Dispatch(inst, "chat", []state.Value{state.String("hi")}, env)
	require.NoError(t, err)

	p := v.AsRef()
	stringer := p.(interface{ String() string })
	assert.Equal(t, "hello there", stringer.String())
}
