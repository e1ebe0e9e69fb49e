// Package agent implements Dana's agent struct system (spec §4.7, §4.8):
// a global type registry, instance construction, default methods
// (plan/solve/remember/recall/chat), and method dispatch. Grounded on the
// teacher's registry-plus-mutex pattern (pkg/registry.BaseRegistry[T],
// reused directly rather than reimplemented) and the shape of
// pkg/agent/registry.go's type-registration bookkeeping — not its A2A
// protocol content, which is out of scope.
package agent

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/aitomatic/dana/pkg/llmres"
	"github.com/aitomatic/dana/pkg/memory"
	"github.com/aitomatic/dana/pkg/promise"
	"github.com/aitomatic/dana/pkg/registry"
	"github.com/aitomatic/dana/pkg/state"
)

// FieldSpec is one field of an agent type: a name plus advisory metadata
// (spec §3 "field type annotations (advisory), field docstrings").
type FieldSpec struct {
	Name     string
	TypeHint string
	Doc      string
}

// Method is a user-defined agent method body, invoked with the instance and
// positional arguments already evaluated to Values.
type Method func(inst *Instance, args []state.Value) (state.Value, error)

// Type is a registered agent type: an ordered field list plus a map from
// method name to implementation. Re-declaring a type with a different
// field shape is an error (spec §3 invariant).
type Type struct {
	Name    string
	Fields  []FieldSpec
	Methods map[string]Method
}

// TypeRegistry maps agent-type names to Type records.
type TypeRegistry = registry.BaseRegistry[*Type]

// Environment is the set of ambient services default methods and chat
// need: a home directory for conversation-memory files, a default LLM
// resource fallback, and a worker pool for Promise computations. cmd/dana
// builds one Environment per process and hands it to the interpreter,
// which threads it through every dispatch call.
type Environment struct {
	HomeDir          string
	DefaultResource  llmres.Resource // may be nil
	Pool             *promise.Pool
	DefaultMaxTurns  int
}

// Instance is a single agent-instance record (spec §3 "Agent instance").
type Instance struct {
	ID       string
	TypeName string
	typ      *Type

	mu          sync.Mutex
	Fields      map[string]state.Value
	InstMemory  map[string]state.Value
	Resource    llmres.Resource // instance-bound LLM, if any
	conv        *memory.ConversationMemory
}

// NewTypeRegistry constructs an empty agent-type registry.
func NewTypeRegistry() *TypeRegistry {
	return registry.NewBaseRegistry[*Type]()
}

// EnsureType looks up name in reg, creating a minimal type (fields derived
// from fieldNames, no custom methods) if absent, per spec §4.7
// "ensures an agent type with that name exists (creating a minimal one
// from field keys if needed)".
func EnsureType(reg *TypeRegistry, name string, fieldNames []string) (*Type, error) {
	if existing, ok := reg.Get(name); ok {
		return existing, nil
	}
	sorted := append([]string(nil), fieldNames...)
	sort.Strings(sorted)
	fields := make([]FieldSpec, len(sorted))
	for i, n := range sorted {
		fields[i] = FieldSpec{Name: n}
	}
	t := &Type{Name: name, Fields: fields, Methods: map[string]Method{}}
	if err := reg.Register(name, t); err != nil {
		// Lost a race with a concurrent EnsureType for the same name;
		// whichever won is equally valid, since both are minimal types
		// derived from the same instance's field keys.
		if existing, ok := reg.Get(name); ok {
			return existing, nil
		}
		return nil, err
	}
	return t, nil
}

// RegisterType registers a fully-specified agent type (used when Dana
// source declares methods explicitly). Re-registering the same name with a
// different field shape is an error, per spec §3.
func RegisterType(reg *TypeRegistry, t *Type) error {
	if existing, ok := reg.Get(t.Name); ok {
		if !sameShape(existing, t) {
			return fmt.Errorf("agent type %q already registered with a different shape", t.Name)
		}
		return nil
	}
	return reg.Register(t.Name, t)
}

func sameShape(a, b *Type) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name {
			return false
		}
	}
	return true
}

// New constructs an instance of the named type, creating the type if
// necessary (spec §4.7 "agent(name, fields_map)").
func New(reg *TypeRegistry, name string, fields map[string]state.Value) (*Instance, error) {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	typ, err := EnsureType(reg, name, names)
	if err != nil {
		return nil, err
	}
	fieldsCopy := make(map[string]state.Value, len(fields))
	for k, v := range fields {
		fieldsCopy[k] = v
	}
	return &Instance{
		ID:       uuid.NewString(),
		TypeName: name,
		typ:      typ,
		Fields:   fieldsCopy,
		InstMemory: map[string]state.Value{},
	}, nil
}

// Type returns the instance's agent type.
func (inst *Instance) Type() *Type { return inst.typ }

// conversationMemory lazily creates the instance's ConversationMemory on
// first use, per spec §4.8 step 1.
func (inst *Instance) conversationMemory(env Environment) *memory.ConversationMemory {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.conv == nil {
		maxTurns := env.DefaultMaxTurns
		path := memory.PathFor(env.HomeDir, inst.TypeName)
		inst.conv = memory.Load(path, maxTurns)
	}
	return inst.conv
}
