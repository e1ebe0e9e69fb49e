package state

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Scope is one of Dana's fixed top-level namespaces (spec §3). The set is a
// closed enumeration: out-of-enum scope names are errors, never lazily
// created namespaces.
type Scope string

const (
	ScopePrivate Scope = "private"
	ScopePublic  Scope = "public"
	ScopeSystem  Scope = "system"
	ScopeLocal   Scope = "local"
	ScopeTemp    Scope = "temp"
	ScopeAgent   Scope = "agent"
	ScopeWorld   Scope = "world"
)

// LastValueKey is the reserved per-scope slot holding the value of the most
// recent assignment within that scope. Store.Set updates it on every
// assignment; evaluating an expression statement does not update it.
const LastValueKey = "__last_value"

var validScopes = map[Scope]bool{
	ScopePrivate: true,
	ScopePublic:  true,
	ScopeSystem:  true,
	ScopeLocal:   true,
	ScopeTemp:    true,
	ScopeAgent:   true,
	ScopeWorld:   true,
}

// IsValidScope reports whether name names one of the seven fixed scopes.
func IsValidScope(name string) bool {
	return validScopes[Scope(name)]
}

// Store is the mutable dictionary-of-dictionaries backing all Dana state.
// Reads and writes are synchronized: every access goes through the mutex,
// so the Store is safe to share across goroutines. The interpreter reads
// and writes it on its own goroutine; chat() deliveries on pool workers
// write conversation memory, not the Store.
type Store struct {
	mu     sync.RWMutex
	scopes map[Scope]map[string]Value
}

// New creates an empty Store with all seven scopes initialized.
func New() *Store {
	s := &Store{scopes: make(map[Scope]map[string]Value, len(validScopes))}
	for sc := range validScopes {
		s.scopes[sc] = make(map[string]Value)
	}
	return s
}

// Reset clears all scopes back to empty, as if the Store were newly created.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sc := range validScopes {
		s.scopes[sc] = make(map[string]Value)
	}
}

// splitKey separates "scope.sub.key" into its scope and remaining path parts.
func splitKey(key string) (Scope, []string, error) {
	parts := strings.Split(key, ".")
	if len(parts) < 2 || parts[0] == "" {
		return "", nil, fmt.Errorf("invalid key %q: expected scope.name", key)
	}
	scope := Scope(parts[0])
	if !validScopes[scope] {
		return "", nil, fmt.Errorf("unknown scope %q", parts[0])
	}
	return scope, parts[1:], nil
}

// Get resolves a dotted key (scope.sub[.sub...]). Any missing intermediate
// returns def rather than erroring, per spec §4.1.
func (s *Store) Get(key string, def Value) Value {
	scope, path, err := splitKey(key)
	if err != nil {
		return def
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.scopes[scope], path, def)
}

func lookup(m map[string]Value, path []string, def Value) Value {
	if len(path) == 0 {
		return def
	}
	v, ok := m[path[0]]
	if !ok {
		return def
	}
	if len(path) == 1 {
		return v
	}
	subMap, _ := v.AsMapping()
	if subMap == nil {
		return def
	}
	return lookup(subMap, path[1:], def)
}

// Set stores value at the dotted key, auto-creating intermediate mappings,
// and updates scope.__last_value to the same value. Returns an error if the
// scope is unknown or the key is bare (setting a scope as a whole).
func (s *Store) Set(key string, value Value) error {
	scope, path, err := splitKey(key)
	if err != nil {
		return err
	}
	if len(path) == 1 && path[0] == LastValueKey {
		return fmt.Errorf("cannot set reserved slot %s.%s directly", scope, LastValueKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root := s.scopes[scope]
	setPath(root, path, value)
	root[LastValueKey] = value
	return nil
}

// setPath writes value at path within m, materializing intermediate mappings
// as it goes. Intermediate mapping nodes are rebuilt (not mutated through the
// Value API) because Value's mapping field is the map's sole storage.
func setPath(m map[string]Value, path []string, value Value) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	key := path[0]
	existing, ok := m[key]
	var subMap map[string]Value
	var order []string
	if ok {
		subMap, order = existing.AsMapping()
	}
	if subMap == nil {
		subMap = make(map[string]Value)
		order = nil
	}
	setPath(subMap, path[1:], value)
	if order == nil {
		order = sortedKeys(subMap)
	} else if !contains(order, path[1]) {
		order = append(order, path[1])
	}
	m[key] = Mapping(subMap, order)
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// GetScope returns a snapshot copy of an entire scope's top-level keys and
// values. Used by the interpreter's bare-identifier lookup; never used to
// mutate state.
func (s *Store) GetScope(scope Scope) map[string]Value {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Value, len(s.scopes[scope]))
	for k, v := range s.scopes[scope] {
		out[k] = v
	}
	return out
}
