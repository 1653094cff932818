// Package env implements the global binding table described by spec.md
// §4.6 "Environment manager". Local (non-global) bindings are resolved
// statically by pkg/compiler to register slots and never touch this
// package at runtime; Global is exercised only by the name-keyed
// Load/Store/Create*GlobalVar opcodes (spec.md §4.1 "Loads/stores").
package env

import "github.com/ardan-lang/ardan/pkg/value"

type binding struct {
	value value.Value
	kind  value.PropertyKind
}

// Global is the root execution context's variable environment: a flat,
// name-keyed binding table shared by every frame whose enclosing scope is
// the top level (spec.md §3 "ExecutionContext").
type Global struct {
	bindings map[string]*binding
}

func NewGlobal() *Global {
	return &Global{bindings: make(map[string]*binding)}
}

// Create installs a new global binding, following spec.md §4.2's
// "duplicate declaration in scope" rule at the top level: redeclaring an
// existing global is allowed for `var` (matching hoistable top-level
// function/var redeclaration) but rejected for let/const.
func (g *Global) Create(name string, v value.Value, kind value.PropertyKind) error {
	if existing, ok := g.bindings[name]; ok {
		if kind != value.PropVar || existing.kind != value.PropVar {
			return &RedeclarationError{Name: name}
		}
	}
	g.bindings[name] = &binding{value: v, kind: kind}
	return nil
}

// Load resolves a global read. An unresolved name is a runtime error
// (spec.md §9 Open Questions: "assignment to an undeclared global" is
// decided as *fail*; reads of a never-declared global fail the same way).
func (g *Global) Load(name string) (value.Value, error) {
	b, ok := g.bindings[name]
	if !ok {
		return value.Undefined, &ReferenceError{Name: name}
	}
	return b.value, nil
}

// Store assigns to an existing global, refusing to rebind a const
// (spec.md §3 Class/Object "const cannot be rebound" invariant, applied
// uniformly to globals) and refusing to implicitly create a new global
// (SPEC_FULL.md §D.2 Open Question decision: fail).
func (g *Global) Store(name string, v value.Value) error {
	b, ok := g.bindings[name]
	if !ok {
		return &ReferenceError{Name: name}
	}
	if b.kind == value.PropConst {
		return &ConstAssignmentError{Name: name}
	}
	b.value = v
	return nil
}

// Has reports whether name is currently bound. The compiler and VM do not
// call it: `typeof` reads its operand through the ordinary load path.
func (g *Global) Has(name string) bool {
	_, ok := g.bindings[name]
	return ok
}

type ReferenceError struct{ Name string }

func (e *ReferenceError) Error() string { return "ReferenceError: " + e.Name + " is not defined" }

type ConstAssignmentError struct{ Name string }

func (e *ConstAssignmentError) Error() string {
	return "TypeError: Assignment to constant variable '" + e.Name + "'"
}

type RedeclarationError struct{ Name string }

func (e *RedeclarationError) Error() string {
	return "SyntaxError: Identifier '" + e.Name + "' has already been declared"
}
