package compiler

import (
	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/value"
)

// compileClassDeclaration compiles the class value then binds it to a
// variable the same way compileFunctionDeclaration binds a function value
// (spec.md §4.2 "Classes").
func (c *Compiler) compileClassDeclaration(s *ast.ClassDeclaration) {
	classReg := c.compileClassExpression(s)
	if c.isGlobalScope() {
		nameIdx := c.constIndex(value.String(s.Name))
		c.emitBC(bytecode.OpCreateGlobalVar, classReg, nameIdx)
		c.freeReg(classReg)
		return
	}
	reg := c.declareLocal(s.Name, ast.KindVar, s.Line)
	c.emit(bytecode.OpMove, reg, classReg, 0)
	c.emit(bytecode.OpCreateLocalVar, reg, 0, 0)
	c.freeReg(classReg)
}

// compileClassExpression evaluates the superclass (or marks none with the
// 0xFF sentinel), emits NewClass, then installs every field and method via
// the opcode selected by the visibility x kind x staticness matrix
// (spec.md §4.2 "Classes": "Evaluate the superclass (or load null), emit
// NewClass, then for each field and method emit the opcode selected by the
// matrix... Methods are compiled like functions and installed as closures
// whose this is rebound on instance construction").
func (c *Compiler) compileClassExpression(decl *ast.ClassDeclaration) uint8 {
	hasSuper := decl.Superclass != nil
	superReg := uint8(0xFF)
	if hasSuper {
		superReg = c.compileExpression(decl.Superclass)
	}
	classReg := c.allocReg()
	c.emit(bytecode.OpNewClass, classReg, superReg, c.nameIndex(decl.Name))
	if hasSuper {
		c.freeReg(superReg)
	}

	for _, f := range decl.Fields {
		c.compileClassField(classReg, f)
	}
	for _, m := range decl.Methods {
		c.compileClassMethod(classReg, m, hasSuper)
	}
	return classReg
}

// compileClassField computes the field's template value and installs it
// with the matching {visibility, const, static} opcode (spec.md §4.1
// "Classes"). Static fields, and instance fields whose initializer is a
// compile-time-known scalar or a function/arrow literal, are evaluated
// directly. Any other instance-field initializer is wrapped in a zero-arg
// thunk so CreateInstance can re-run it per instance instead of sharing one
// template value across every instance (see value.FieldTemplate doc).
func (c *Compiler) compileClassField(classReg uint8, f *ast.FieldDefinition) {
	var valReg uint8
	switch {
	case f.Init == nil:
		valReg = c.allocReg()
		c.emit(bytecode.OpLoadUndefined, valReg, 0, 0)
	case f.Static, isLiteralExpr(f.Init), isFunctionLiteral(f.Init):
		valReg = c.compileExpression(f.Init)
	default:
		nested, idx := c.newNested("<field-init>", false, nil)
		r := nested.compileExpression(f.Init)
		nested.emit(bytecode.OpReturn, r, 0, 0)
		nested.freeReg(r)
		valReg = c.finishClosure(nested, idx, 0, "<field-init>")
		c.emit(bytecode.OpMarkFieldThunk, valReg, 0, 0)
	}
	op := bytecode.FieldOpcodeFor(string(f.Visibility), f.Kind == ast.KindConst, f.Static)
	c.emitBC2(op, classReg, valReg, c.nameIndex(f.Name))
	c.freeReg(valReg)
}

// compileClassMethod compiles one method/getter/setter/constructor body as
// a nested function and installs the resulting closure with the matching
// {visibility, static} opcode. Accessor-ness is recorded on the closure via
// OpMarkAccessor since the 6-entry method matrix only spans visibility x
// staticness (spec.md §4.1 "Classes").
func (c *Compiler) compileClassMethod(classReg uint8, m *ast.MethodDefinition, hasSuper bool) {
	class := &classContext{isConstructor: m.Kind == "constructor", hasSuper: hasSuper}
	nested, idx := c.newNested(m.Name, false, class)
	arity := nested.compileParams(m.Function.Params)
	for _, st := range m.Function.Body.Body {
		nested.compileStatement(st)
	}
	closureReg := c.finishClosure(nested, idx, arity, m.Name)
	switch m.Kind {
	case "get":
		c.emit(bytecode.OpMarkAccessor, closureReg, 0, 0)
	case "set":
		c.emit(bytecode.OpMarkAccessor, closureReg, 1, 0)
	}
	op := bytecode.MethodOpcodeFor(string(m.Visibility), m.Static)
	c.emitBC2(op, classReg, closureReg, c.nameIndex(m.Name))
	c.freeReg(closureReg)
}

// compileEnumDeclaration lowers an enum to a superclass-less class whose
// every member is installed as a public const static field, the generated
// class object itself bound as a const (SPEC_FULL.md §C "Enums": "a
// class-like static-only construct: each member becomes a const static
// field ... whose value is either the given initializer or the 0-based
// ordinal").
func (c *Compiler) compileEnumDeclaration(s *ast.EnumDeclaration) {
	classReg := c.allocReg()
	c.emit(bytecode.OpNewClass, classReg, 0xFF, c.nameIndex(s.Name))

	op := bytecode.FieldOpcodeFor(string(ast.Public), true, true)
	for i, m := range s.Members {
		var valReg uint8
		if m.Init != nil {
			valReg = c.compileExpression(m.Init)
		} else {
			valReg = c.allocReg()
			c.emitBC(bytecode.OpLoadConst, valReg, c.constIndex(value.Number(float64(i))))
		}
		c.emitBC2(op, classReg, valReg, c.nameIndex(m.Name))
		c.freeReg(valReg)
	}

	if c.isGlobalScope() {
		nameIdx := c.constIndex(value.String(s.Name))
		c.emitBC(bytecode.OpCreateGlobalConst, classReg, nameIdx)
		c.freeReg(classReg)
		return
	}
	reg := c.declareLocal(s.Name, ast.KindConst, s.Line)
	c.emit(bytecode.OpMove, reg, classReg, 0)
	c.emit(bytecode.OpCreateLocalConst, reg, 0, 0)
	c.freeReg(classReg)
}

// isLiteralExpr reports whether e is a compile-time-known scalar, the
// FieldTemplate.Init "copy verbatim" case (spec.md §4.5).
func isLiteralExpr(e ast.Expression) bool {
	switch e.(type) {
	case *ast.NumberLiteral, *ast.StringLiteral, *ast.BoolLiteral, *ast.NullLiteral, *ast.UndefinedLiteral:
		return true
	default:
		return false
	}
}

// isFunctionLiteral reports whether e is a function/arrow literal, the
// FieldTemplate.Init "clone and rebind this" case (spec.md §4.5).
func isFunctionLiteral(e ast.Expression) bool {
	switch e.(type) {
	case *ast.FunctionExpression, *ast.ArrowFunction:
		return true
	default:
		return false
	}
}
