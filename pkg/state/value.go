// Package state implements Dana's scoped variable store: a fixed set of
// namespaces, each a string-keyed mapping, addressed by dotted paths.
package state

import (
	"fmt"
	"sort"
	"strings"
)

// Kind discriminates the dynamic type a Value carries at runtime.
type Kind int

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindSequence
	KindMapping
	KindAgent
	KindResource
	KindPromise
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindAgent:
		return "agent"
	case KindResource:
		return "resource"
	case KindPromise:
		return "promise"
	default:
		return "none"
	}
}

// Value is a tagged union over Dana's runtime value kinds. Zero value is None.
// Container kinds (Sequence, Mapping) and Agent/Resource/Promise carry
// pointers or reference types, matching the "by value for primitives, by
// shared reference for containers and agents" invariant in the spec.
type Value struct {
	kind     Kind
	i        int64
	f        float64
	b        bool
	s        string
	seq      []Value
	mapping  map[string]Value
	mapOrder []string // preserves insertion order for deterministic rendering
	ref      any      // agent instance, resource handle, or *promise.Promise
}

var None = Value{kind: KindNone}

func Int(v int64) Value      { return Value{kind: KindInt, i: v} }
func Float(v float64) Value  { return Value{kind: KindFloat, f: v} }
func Bool(v bool) Value      { return Value{kind: KindBool, b: v} }
func String(v string) Value  { return Value{kind: KindString, s: v} }
func Sequence(v []Value) Value {
	return Value{kind: KindSequence, seq: v}
}

// Mapping builds a mapping Value, preserving the order keys are supplied in.
func Mapping(pairs map[string]Value, order []string) Value {
	if order == nil {
		order = make([]string, 0, len(pairs))
		for k := range pairs {
			order = append(order, k)
		}
		sort.Strings(order)
	}
	return Value{kind: KindMapping, mapping: pairs, mapOrder: order}
}

// Ref wraps an opaque reference value (agent instance, resource, promise)
// under the given Kind.
func Ref(kind Kind, v any) Value {
	return Value{kind: kind, ref: v}
}

func (v Value) Kind() Kind        { return v.kind }
func (v Value) IsNone() bool      { return v.kind == KindNone }
func (v Value) AsInt() int64      { return v.i }
func (v Value) AsFloat() float64  { return v.f }
func (v Value) AsBool() bool      { return v.b }
func (v Value) AsString() string  { return v.s }
func (v Value) AsSequence() []Value {
	return v.seq
}
func (v Value) AsRef() any { return v.ref }

// AsMapping returns the underlying map and its insertion order. Mutating the
// returned map mutates the Value's storage (containers are shared by
// reference, per the data model).
func (v Value) AsMapping() (map[string]Value, []string) {
	return v.mapping, v.mapOrder
}

// Truthy implements Dana's truthiness rule used by if/while conditions and
// short-circuit and/or: None and zero-ish values are false, everything else
// true. Empty strings, empty sequences and empty mappings are falsy, mirroring
// the Python-inspired original runtime.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNone:
		return false
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindBool:
		return v.b
	case KindString:
		return v.s != ""
	case KindSequence:
		return len(v.seq) > 0
	case KindMapping:
		return len(v.mapping) > 0
	default:
		return true
	}
}

// String renders a Value the way print(...) and string concatenation do.
func (v Value) String() string {
	switch v.kind {
	case KindNone:
		return "None"
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return formatFloat(v.f)
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindString:
		return v.s
	case KindSequence:
		parts := make([]string, len(v.seq))
		for i, e := range v.seq {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMapping:
		parts := make([]string, 0, len(v.mapping))
		for _, k := range v.mapOrder {
			parts = append(parts, fmt.Sprintf("%s: %s", k, v.mapping[k].String()))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindPromise:
		if s, ok := v.ref.(fmt.Stringer); ok {
			return s.String()
		}
		return "<Promise>"
	case KindAgent, KindResource:
		if s, ok := v.ref.(fmt.Stringer); ok {
			return s.String()
		}
		return fmt.Sprintf("<%s>", v.kind)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal reports whether two values are the same kind and value. Containers
// compare by deep structural equality; agents/resources/promises compare by
// reference identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		// Numeric cross-kind equality (1 == 1.0) matches the arithmetic table.
		if a.kind == KindInt && b.kind == KindFloat {
			return float64(a.i) == b.f
		}
		if a.kind == KindFloat && b.kind == KindInt {
			return a.f == float64(b.i)
		}
		return false
	}
	switch a.kind {
	case KindNone:
		return true
	case KindInt:
		return a.i == b.i
	case KindFloat:
		return a.f == b.f
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindSequence:
		if len(a.seq) != len(b.seq) {
			return false
		}
		for i := range a.seq {
			if !Equal(a.seq[i], b.seq[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.mapping) != len(b.mapping) {
			return false
		}
		for k, av := range a.mapping {
			bv, ok := b.mapping[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return a.ref == b.ref
	}
}
