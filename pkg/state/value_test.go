package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_Truthy(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"none", None, false},
		{"zero int", Int(0), false},
		{"nonzero int", Int(1), true},
		{"zero float", Float(0), false},
		{"false bool", Bool(false), false},
		{"true bool", Bool(true), true},
		{"empty string", String(""), false},
		{"nonempty string", String("x"), true},
		{"empty sequence", Sequence(nil), false},
		{"nonempty sequence", Sequence([]Value{Int(1)}), true},
		{"empty mapping", Mapping(map[string]Value{}, nil), false},
		{"nonempty mapping", Mapping(map[string]Value{"a": Int(1)}, []string{"a"}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.Truthy())
		})
	}
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "None", None.String())
	assert.Equal(t, "5", Int(5).String())
	assert.Equal(t, "True", Bool(true).String())
	assert.Equal(t, "False", Bool(false).String())
	assert.Equal(t, "hello", String("hello").String())
	assert.Equal(t, "2.5", Float(2.5).String())
	assert.Equal(t, "2.0", Float(2).String())
	assert.Equal(t, "[1, 2]", Sequence([]Value{Int(1), Int(2)}).String())
	assert.Equal(t, "{a: 1}", Mapping(map[string]Value{"a": Int(1)}, []string{"a"}).String())
}

func TestEqual_NumericCrossKind(t *testing.T) {
	assert.True(t, Equal(Int(1), Float(1.0)))
	assert.True(t, Equal(Float(1.0), Int(1)))
	assert.False(t, Equal(Int(1), Float(1.5)))
}

func TestEqual_DifferentKindsFalse(t *testing.T) {
	assert.False(t, Equal(String("1"), Int(1)))
	assert.True(t, Equal(None, None))
}

func TestMapping_PreservesOrder(t *testing.T) {
	m := Mapping(map[string]Value{"b": Int(2), "a": Int(1)}, []string{"b", "a"})
	_, order := m.AsMapping()
	assert.Equal(t, []string{"b", "a"}, order)
}
