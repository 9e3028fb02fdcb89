package vm

import "sort"

// Scope is a flat name → Value mapping. A VM owns one global Scope and one
// local Scope per unit; blocks never introduce scopes of their own.
type Scope struct {
	vars map[string]Value
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{vars: make(map[string]Value)}
}

// Get returns the binding for name.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Has reports whether name is bound.
func (s *Scope) Has(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Set binds name unconditionally.
func (s *Scope) Set(name string, v Value) {
	s.vars[name] = v
}

// Delete removes the binding for name and reports whether it existed.
func (s *Scope) Delete(name string) bool {
	if _, ok := s.vars[name]; !ok {
		return false
	}
	delete(s.vars, name)
	return true
}

// Len returns the number of bindings.
func (s *Scope) Len() int {
	return len(s.vars)
}

// Names returns the bound names, sorted.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for name := range s.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Env is the two-level view an instruction executes against: the local
// scope of its unit, falling through to the global scope.
type Env struct {
	Local  *Scope
	Global *Scope
}

// Lookup resolves name local-first, then global.
func (e Env) Lookup(name string) (Value, bool) {
	if v, ok := e.Local.Get(name); ok {
		return v, true
	}
	return e.Global.Get(name)
}

// Assign writes name into the local scope if it is already bound there,
// otherwise into the global scope.
func (e Env) Assign(name string, v Value) {
	if e.Local.Has(name) {
		e.Local.Set(name, v)
		return
	}
	e.Global.Set(name, v)
}

// Remove deletes name from the local scope if bound there, otherwise from
// the global scope. It reports whether any binding was removed.
func (e Env) Remove(name string) bool {
	if e.Local.Delete(name) {
		return true
	}
	return e.Global.Delete(name)
}
