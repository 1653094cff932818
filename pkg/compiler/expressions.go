package compiler

import (
	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/value"
)

// compileExpression evaluates expr into a freshly allocated register and
// returns it; the caller owns and must eventually free that register
// (spec.md §4.2 "Register allocation": "Expressions evaluate into a fresh
// destination and must be released by their consumer").
func (c *Compiler) compileExpression(expr ast.Expression) uint8 {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		r := c.allocReg()
		c.emitBC(bytecode.OpLoadConst, r, c.constIndex(value.Number(e.Value)))
		return r
	case *ast.StringLiteral:
		r := c.allocReg()
		c.emitBC(bytecode.OpLoadConst, r, c.constIndex(value.String(e.Value)))
		return r
	case *ast.BoolLiteral:
		r := c.allocReg()
		if e.Value {
			c.emit(bytecode.OpLoadTrue, r, 0, 0)
		} else {
			c.emit(bytecode.OpLoadFalse, r, 0, 0)
		}
		return r
	case *ast.NullLiteral:
		r := c.allocReg()
		c.emit(bytecode.OpLoadNull, r, 0, 0)
		return r
	case *ast.UndefinedLiteral:
		r := c.allocReg()
		c.emit(bytecode.OpLoadUndefined, r, 0, 0)
		return r
	case *ast.TemplateLiteral:
		return c.compileTemplateLiteral(e)
	case *ast.Identifier:
		return c.compileIdentifierRead(e.Name, e.Line)
	case *ast.ThisExpression:
		return c.compileThis()
	case *ast.SuperExpression:
		c.addError(newCompileError(e.Line, "'super' keyword is unexpected outside a member or call expression"))
		r := c.allocReg()
		c.emit(bytecode.OpLoadUndefined, r, 0, 0)
		return r
	case *ast.UnaryExpression:
		return c.compileUnary(e)
	case *ast.UpdateExpression:
		return c.compileUpdate(e)
	case *ast.BinaryExpression:
		return c.compileBinary(e)
	case *ast.LogicalExpression:
		return c.compileLogical(e)
	case *ast.ConditionalExpression:
		return c.compileConditional(e)
	case *ast.AssignmentExpression:
		return c.compileAssignment(e)
	case *ast.SequenceExpression:
		return c.compileSequence(e)
	case *ast.CallExpression:
		return c.compileCall(e)
	case *ast.NewExpression:
		return c.compileNew(e)
	case *ast.MemberExpression:
		return c.compileMemberRead(e)
	case *ast.ArrayLiteral:
		return c.compileArrayLiteral(e)
	case *ast.ObjectLiteral:
		return c.compileObjectLiteral(e)
	case *ast.FunctionExpression:
		return c.compileFunctionExpression(e)
	case *ast.ArrowFunction:
		return c.compileArrowFunction(e)
	case *ast.ClassExpression:
		return c.compileClassExpression(e.Class)
	case *ast.AwaitExpression:
		return c.compileAwait(e)
	default:
		c.addError(newCompileError(0, "compiler: unsupported expression %T", expr))
		r := c.allocReg()
		c.emit(bytecode.OpLoadUndefined, r, 0, 0)
		return r
	}
}

func (c *Compiler) compileIdentifierRead(name string, line int) uint8 {
	if reg, _, ok := c.resolveLocal(name); ok {
		dst := c.allocReg()
		c.emit(bytecode.OpMove, dst, reg, 0)
		return dst
	}
	if idx, ok := c.resolveUpvalue(name); ok {
		dst := c.allocReg()
		c.emit(bytecode.OpLoadUpvalue, dst, uint8(idx), 0)
		return dst
	}
	dst := c.allocReg()
	c.emitBC(bytecode.OpLoadGlobalVar, dst, c.constIndex(value.String(name)))
	return dst
}

// compileThis resolves `this`: a plain function/method loads the current
// frame's bound this; an arrow resolves it as a free variable through the
// enclosing upvalue chain (spec.md SPEC_FULL.md §C "Arrow functions").
func (c *Compiler) compileThis() uint8 {
	if reg, _, ok := c.resolveLocal(thisPseudoName); ok {
		dst := c.allocReg()
		c.emit(bytecode.OpMove, dst, reg, 0)
		return dst
	}
	if idx, ok := c.resolveUpvalue(thisPseudoName); ok {
		dst := c.allocReg()
		c.emit(bytecode.OpLoadUpvalue, dst, uint8(idx), 0)
		return dst
	}
	dst := c.allocReg()
	c.emit(bytecode.OpLoadThis, dst, 0, 0)
	return dst
}

// thisPseudoName keys register 0 as a capturable local named "this" in
// every non-arrow function, so nested arrows can resolve it via the
// ordinary upvalue-resolution path.
const thisPseudoName = "this"

func (c *Compiler) compileUnary(e *ast.UnaryExpression) uint8 {
	arg := c.compileExpression(e.Argument)
	dst := c.allocReg()
	switch e.Operator {
	case "-":
		c.emit(bytecode.OpNegate, dst, arg, 0)
	case "!":
		c.emit(bytecode.OpNot, dst, arg, 0)
	case "~":
		c.emit(bytecode.OpBitNot, dst, arg, 0)
	case "typeof":
		c.emit(bytecode.OpTypeOf, dst, arg, 0)
	case "+":
		c.emit(bytecode.OpToNumber, dst, arg, 0)
	default:
		c.addError(newCompileError(e.Line, "unknown unary operator %q", e.Operator))
	}
	c.freeReg(arg)
	return dst
}

// compileUpdate desugars ++/-- (prefix and postfix) to a compound-
// assignment-shaped read/add/store (SPEC_FULL.md §C "Update expressions").
func (c *Compiler) compileUpdate(e *ast.UpdateExpression) uint8 {
	old := c.compileExpression(e.Argument)
	oneReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, oneReg, c.constIndex(value.Number(1)))
	newReg := c.allocReg()
	if e.Operator == "++" {
		c.emit(bytecode.OpAdd, newReg, old, oneReg)
	} else {
		c.emit(bytecode.OpSub, newReg, old, oneReg)
	}
	c.freeReg(oneReg)
	c.storeTo(e.Argument, newReg, e.Line)
	if e.Prefix {
		c.freeReg(old)
		return newReg
	}
	c.freeReg(newReg)
	return old
}

var binaryOps = map[string]bytecode.Op{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul, "/": bytecode.OpDiv,
	"%": bytecode.OpMod, "**": bytecode.OpPow,
	"&": bytecode.OpBitAnd, "|": bytecode.OpBitOr, "^": bytecode.OpBitXor,
	"<<": bytecode.OpShl, ">>": bytecode.OpShr, ">>>": bytecode.OpUShr,
	"==": bytecode.OpEqual, "!=": bytecode.OpNotEqual,
	"===": bytecode.OpStrictEqual, "!==": bytecode.OpStrictNotEqual,
	"<": bytecode.OpLessThan, "<=": bytecode.OpLessEqual,
	">": bytecode.OpGreaterThan, ">=": bytecode.OpGreaterEqual,
}

func (c *Compiler) compileBinary(e *ast.BinaryExpression) uint8 {
	lhs := c.compileExpression(e.Left)
	rhs := c.compileExpression(e.Right)
	dst := c.allocReg()
	if e.Operator == "+" {
		c.emit(bytecode.OpAdd, dst, lhs, rhs)
	} else if op, ok := binaryOps[e.Operator]; ok {
		c.emit(op, dst, lhs, rhs)
	} else {
		c.addError(newCompileError(e.Line, "unknown operator %q", e.Operator))
	}
	c.freeReg(lhs)
	c.freeReg(rhs)
	return dst
}

// compileLogical implements short-circuit &&, ||, and ?? (spec.md §4.2
// "Short-circuit operators").
func (c *Compiler) compileLogical(e *ast.LogicalExpression) uint8 {
	r := c.compileExpression(e.Left)
	var jidx int
	switch e.Operator {
	case "&&":
		jidx = c.emitJump(bytecode.OpJumpIfFalse, r)
	case "||":
		jidx = c.emitJump(bytecode.OpJumpIfTrue, r)
	case "??":
		jidx = c.emitNullishJump(r)
	default:
		c.addError(newCompileError(e.Line, "unknown logical operator %q", e.Operator))
	}
	c.compileInto(r, e.Right)
	c.patchJump(jidx)
	return r
}

// emitNullishJump jumps over the right-hand side when r is NOT nullish
// (?? only evaluates its right side when the left is null/undefined).
// There is no dedicated opcode for "jump if not nullish", so this is
// synthesized from a loose NotEqual against null (false for both null and
// undefined) plus JumpIfTrue.
func (c *Compiler) emitNullishJump(r uint8) int {
	nullReg := c.allocReg()
	c.emit(bytecode.OpLoadNull, nullReg, 0, 0)
	notNullReg := c.allocReg()
	c.emit(bytecode.OpNotEqual, notNullReg, r, nullReg)
	c.freeReg(nullReg)
	jidx := c.emitJump(bytecode.OpJumpIfTrue, notNullReg)
	c.freeReg(notNullReg)
	return jidx
}

func (c *Compiler) compileConditional(e *ast.ConditionalExpression) uint8 {
	cond := c.compileExpression(e.Test)
	jf := c.emitJump(bytecode.OpJumpIfFalse, cond)
	c.freeReg(cond)
	dst := c.allocReg()
	c.compileInto(dst, e.Consequent)
	jEnd := c.emitJump(bytecode.OpJump, 0)
	c.patchJump(jf)
	c.compileInto(dst, e.Alternate)
	c.patchJump(jEnd)
	return dst
}

func (c *Compiler) compileSequence(e *ast.SequenceExpression) uint8 {
	var last uint8
	for i, ex := range e.Expressions {
		if i > 0 {
			c.freeReg(last)
		}
		last = c.compileExpression(ex)
	}
	return last
}

// compileTemplateLiteral lowers to a left fold of OpStringConcat over the
// alternating quasis/expressions (SPEC_FULL.md §C "Template literals").
func (c *Compiler) compileTemplateLiteral(e *ast.TemplateLiteral) uint8 {
	acc := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, acc, c.constIndex(value.String(e.Quasis[0])))
	for i, expr := range e.Expressions {
		v := c.compileExpression(expr)
		s := c.allocReg()
		c.emit(bytecode.OpToString, s, v, 0)
		c.freeReg(v)
		c.emit(bytecode.OpStringConcat, acc, acc, s)
		c.freeReg(s)
		if i+1 < len(e.Quasis) {
			q := c.allocReg()
			c.emitBC(bytecode.OpLoadConst, q, c.constIndex(value.String(e.Quasis[i+1])))
			c.emit(bytecode.OpStringConcat, acc, acc, q)
			c.freeReg(q)
		}
	}
	return acc
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral) uint8 {
	dst := c.allocReg()
	c.emit(bytecode.OpNewArray, dst, 0, 0)
	for _, el := range e.Elements {
		if el.Spread {
			c.emitSpreadInto(dst, el.Value)
			continue
		}
		v := c.compileExpression(el.Value)
		c.emit(bytecode.OpArrayPush, dst, v, 0)
		c.freeReg(v)
	}
	return dst
}

// emitSpreadInto flattens an iterable into dst's array elements (one
// element at a time, via a runtime counted loop against GetObjectLength /
// GetPropertyDynamic; SPEC_FULL.md §C "spread in call arguments / array
// literals / new").
func (c *Compiler) emitSpreadInto(dst uint8, expr ast.Expression) {
	src := c.compileExpression(expr)
	idxReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, idxReg, c.constIndex(value.Number(0)))
	lenReg := c.allocReg()
	c.emit(bytecode.OpGetObjectLength, lenReg, src, 0)

	start := len(c.chunk.Code)
	condReg := c.allocReg()
	c.emit(bytecode.OpLessThan, condReg, idxReg, lenReg)
	jf := c.emitJump(bytecode.OpJumpIfFalse, condReg)
	c.freeReg(condReg)

	elReg := c.allocReg()
	c.emit(bytecode.OpGetPropertyDynamic, elReg, src, idxReg)
	c.emit(bytecode.OpArrayPush, dst, elReg, 0)
	c.freeReg(elReg)

	oneReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, oneReg, c.constIndex(value.Number(1)))
	c.emit(bytecode.OpAdd, idxReg, idxReg, oneReg)
	c.freeReg(oneReg)
	c.emitLoop(start)
	c.patchJump(jf)

	c.freeReg(lenReg)
	c.freeReg(idxReg)
	c.freeReg(src)
}

// compileObjectLiteral handles shorthand (`{ x }`) and computed (`{ [k]: v
// }`) properties (SPEC_FULL.md §C "Object literal shorthand and computed
// keys").
func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral) uint8 {
	dst := c.allocReg()
	c.emit(bytecode.OpNewObject, dst, 0, 0)
	for _, p := range e.Properties {
		var v uint8
		if p.Shorthand {
			v = c.compileIdentifierRead(p.Key, p.Line)
		} else {
			v = c.compileExpression(p.Value)
		}
		if p.Computed {
			k := c.compileExpression(p.KeyExpr)
			c.emit(bytecode.OpSetPropertyDynamic, dst, k, v)
			c.freeReg(k)
		} else {
			c.emitBC2(bytecode.OpSetProperty, dst, v, c.nameIndex(p.Key))
		}
		c.freeReg(v)
	}
	return dst
}

// emitBC2 is the 3-operand form used by object/class field opcodes:
// a=obj/class reg, b=value reg, c=narrow name-table index.
func (c *Compiler) emitBC2(op bytecode.Op, a, b uint8, nameIdx uint8) int {
	return c.emit(op, a, b, nameIdx)
}

func (c *Compiler) compileAwait(e *ast.AwaitExpression) uint8 {
	p := c.compileExpression(e.Argument)
	dst := c.allocReg()
	c.emit(bytecode.OpAwait, dst, p, 0)
	c.freeReg(p)
	return dst
}

// --- Member access ---

func (c *Compiler) compileMemberRead(e *ast.MemberExpression) uint8 {
	if _, ok := e.Object.(*ast.SuperExpression); ok {
		name, ok := e.Property.(*ast.Identifier)
		if !ok {
			c.addError(newCompileError(e.Line, "super property access must use a static name"))
			name = &ast.Identifier{Name: ""}
		}
		dst := c.allocReg()
		c.emitBC2(bytecode.OpGetSuper, dst, 0, c.nameIndex(name.Name))
		return dst
	}
	objReg := c.compileExpression(e.Object)
	dst := c.allocReg()
	if e.Computed {
		keyReg := c.compileExpression(e.Property)
		c.emit(bytecode.OpGetPropertyDynamic, dst, objReg, keyReg)
		c.freeReg(keyReg)
	} else {
		name := e.Property.(*ast.Identifier).Name
		c.emitBC2(bytecode.OpGetProperty, dst, objReg, c.nameIndex(name))
	}
	c.freeReg(objReg)
	return dst
}

// --- Assignment ---

func (c *Compiler) compileAssignment(e *ast.AssignmentExpression) uint8 {
	if e.Operator == "=" {
		v := c.compileExpression(e.Value)
		c.storeTo(e.Target, v, e.Line)
		return v
	}
	// Compound assignment: read current LHS, compute, store back
	// (spec.md §4.2 "Binary operators").
	old := c.compileExpression(e.Target)
	rhs := c.compileExpression(e.Value)
	opStr := e.Operator[:len(e.Operator)-1] // "+=" -> "+"
	newReg := c.allocReg()
	if opStr == "+" {
		c.emit(bytecode.OpAdd, newReg, old, rhs)
	} else if op, ok := binaryOps[opStr]; ok {
		c.emit(op, newReg, old, rhs)
	} else {
		c.addError(newCompileError(e.Line, "unknown compound-assignment operator %q", e.Operator))
	}
	c.freeReg(old)
	c.freeReg(rhs)
	c.storeTo(e.Target, newReg, e.Line)
	return newReg
}

// storeTo and compileAssignTo are the same operation: store valReg into
// target, refusing const rebinds and unsupported targets (spec.md §4.2
// "Errors surfaced statically").
func (c *Compiler) storeTo(target ast.Expression, valReg uint8, line int) {
	c.compileAssignTo(target, valReg, line)
}

func (c *Compiler) compileAssignTo(target ast.Expression, valReg uint8, line int) {
	switch t := target.(type) {
	case *ast.Identifier:
		if reg, kind, ok := c.resolveLocal(t.Name); ok {
			if kind == ast.KindConst {
				c.addError(newCompileError(line, "assignment to constant variable %q", t.Name))
				return
			}
			c.emit(bytecode.OpMove, reg, valReg, 0)
			return
		}
		for enc := c.enclosing; enc != nil; enc = enc.enclosing {
			if _, kind, found := enc.resolveLocal(t.Name); found {
				if kind == ast.KindConst {
					c.addError(newCompileError(line, "assignment to constant variable %q", t.Name))
					return
				}
				break
			}
		}
		if idx, ok := c.resolveUpvalue(t.Name); ok {
			c.emit(bytecode.OpStoreUpvalueVar, uint8(idx), valReg, 0)
			return
		}
		c.emitBC(bytecode.OpStoreGlobalVar, valReg, c.constIndex(value.String(t.Name)))
	case *ast.MemberExpression:
		if _, ok := t.Object.(*ast.SuperExpression); ok {
			c.addError(newCompileError(line, "cannot assign to a super property"))
			return
		}
		objReg := c.compileExpression(t.Object)
		if t.Computed {
			keyReg := c.compileExpression(t.Property)
			c.emit(bytecode.OpSetPropertyDynamic, objReg, keyReg, valReg)
			c.freeReg(keyReg)
		} else {
			name := t.Property.(*ast.Identifier).Name
			c.emitBC2(bytecode.OpSetProperty, objReg, valReg, c.nameIndex(name))
		}
		c.freeReg(objReg)
	default:
		c.addError(newCompileError(line, "unsupported assignment target %T", target))
	}
}

// --- Calls / new ---

func (c *Compiler) compileCall(e *ast.CallExpression) uint8 {
	if _, ok := e.Callee.(*ast.SuperExpression); ok {
		c.emitArgs(e.Args)
		c.emit(bytecode.OpCallSuper, 0, 0, uint8(len(e.Args)))
		dst := c.allocReg()
		c.emit(bytecode.OpLoadUndefined, dst, 0, 0)
		return dst
	}
	calleeReg := c.compileExpression(e.Callee)
	c.emitArgs(e.Args)
	dst := c.allocReg()
	c.emit(bytecode.OpCall, dst, calleeReg, uint8(len(e.Args)))
	c.freeReg(calleeReg)
	return dst
}

// emitArgs pushes each call argument, flattening spread arguments at
// runtime (SPEC_FULL.md §C).
func (c *Compiler) emitArgs(args []*ast.Argument) {
	for _, a := range args {
		if a.Spread {
			c.emitSpreadArgPush(a.Value)
			continue
		}
		v := c.compileExpression(a.Value)
		c.emit(bytecode.OpPushArg, v, 0, 0)
		c.freeReg(v)
	}
}

func (c *Compiler) emitSpreadArgPush(expr ast.Expression) {
	src := c.compileExpression(expr)
	idxReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, idxReg, c.constIndex(value.Number(0)))
	lenReg := c.allocReg()
	c.emit(bytecode.OpGetObjectLength, lenReg, src, 0)

	start := len(c.chunk.Code)
	condReg := c.allocReg()
	c.emit(bytecode.OpLessThan, condReg, idxReg, lenReg)
	jf := c.emitJump(bytecode.OpJumpIfFalse, condReg)
	c.freeReg(condReg)

	elReg := c.allocReg()
	c.emit(bytecode.OpGetPropertyDynamic, elReg, src, idxReg)
	c.emit(bytecode.OpPushArg, elReg, 0, 0)
	c.freeReg(elReg)

	oneReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, oneReg, c.constIndex(value.Number(1)))
	c.emit(bytecode.OpAdd, idxReg, idxReg, oneReg)
	c.freeReg(oneReg)
	c.emitLoop(start)
	c.patchJump(jf)

	c.freeReg(lenReg)
	c.freeReg(idxReg)
	c.freeReg(src)
}

func (c *Compiler) compileNew(e *ast.NewExpression) uint8 {
	classReg := c.compileExpression(e.Callee)
	instReg := c.allocReg()
	c.emit(bytecode.OpCreateInstance, instReg, classReg, 0)
	c.freeReg(classReg)
	c.emitArgs(e.Args)
	c.emit(bytecode.OpInvokeConstructor, instReg, 0, uint8(len(e.Args)))
	return instReg
}
