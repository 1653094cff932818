package compiler

import (
	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/value"
)

func (c *Compiler) compileStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.EmptyStatement:
		// nothing to emit
	case *ast.BlockStatement:
		c.beginScope()
		for _, st := range s.Body {
			c.compileStatement(st)
		}
		c.endScope()
	case *ast.ExpressionStatement:
		r := c.compileExpression(s.Expression)
		c.freeReg(r)
	case *ast.VariableStatement:
		c.compileVariableStatement(s)
	case *ast.IfStatement:
		c.compileIf(s)
	case *ast.WhileStatement:
		c.compileWhile(s)
	case *ast.DoWhileStatement:
		c.compileDoWhile(s)
	case *ast.ForStatement:
		c.compileFor(s)
	case *ast.ForInStatement:
		c.compileForIn(s)
	case *ast.ForOfStatement:
		c.compileForOf(s)
	case *ast.ReturnStatement:
		c.compileReturn(s)
	case *ast.BreakStatement:
		c.compileBreak(s)
	case *ast.ContinueStatement:
		c.compileContinue(s)
	case *ast.ThrowStatement:
		r := c.compileExpression(s.Argument)
		c.emit(bytecode.OpThrow, r, 0, 0)
		c.freeReg(r)
	case *ast.TryStatement:
		c.compileTry(s)
	case *ast.SwitchStatement:
		c.compileSwitch(s)
	case *ast.FunctionDeclaration:
		c.compileFunctionDeclaration(s)
	case *ast.ClassDeclaration:
		c.compileClassDeclaration(s)
	case *ast.EnumDeclaration:
		c.compileEnumDeclaration(s)
	case *ast.ImportDeclaration:
		// Import splicing is a concern of the outer driver (pkg/driver's
		// CompileFile resolves and pre-appends imported statements before
		// this compiler ever sees them, spec.md §4.2 "Imports"); a node
		// reaching here only happens via the string-only Compile path,
		// which has no importer directory to resolve against, so it's a
		// no-op rather than an error.
	default:
		c.addError(newCompileError(0, "compiler: unsupported statement %T", stmt))
	}
}

func (c *Compiler) compileVariableStatement(s *ast.VariableStatement) {
	for _, decl := range s.Declarations {
		if c.isGlobalScope() {
			var valReg uint8
			if decl.Init != nil {
				valReg = c.compileExpression(decl.Init)
			} else {
				valReg = c.allocReg()
				c.emit(bytecode.OpLoadUndefined, valReg, 0, 0)
			}
			nameIdx := c.constIndex(value.String(decl.Name))
			op := bytecode.OpCreateGlobalVar
			switch s.Kind {
			case ast.KindLet:
				op = bytecode.OpCreateGlobalLet
			case ast.KindConst:
				op = bytecode.OpCreateGlobalConst
			}
			c.emitBC(op, valReg, nameIdx)
			c.freeReg(valReg)
			continue
		}
		reg := c.declareLocal(decl.Name, s.Kind, decl.Line)
		if decl.Init != nil {
			c.compileInto(reg, decl.Init)
		} else {
			c.emit(bytecode.OpLoadUndefined, reg, 0, 0)
		}
		op := bytecode.OpCreateLocalVar
		switch s.Kind {
		case ast.KindLet:
			op = bytecode.OpCreateLocalLet
		case ast.KindConst:
			op = bytecode.OpCreateLocalConst
		}
		c.emit(op, reg, 0, 0)
	}
}

// compileInto evaluates expr and ensures its result ends up in target,
// freeing any temporary the expression allocated along the way.
func (c *Compiler) compileInto(target uint8, expr ast.Expression) {
	reg := c.compileExpression(expr)
	if reg != target {
		c.emit(bytecode.OpMove, target, reg, 0)
		c.freeReg(reg)
	}
}

func (c *Compiler) compileIf(s *ast.IfStatement) {
	cond := c.compileExpression(s.Test)
	jf := c.emitJump(bytecode.OpJumpIfFalse, cond)
	c.freeReg(cond)
	c.beginScope()
	c.compileStatement(s.Consequent)
	c.endScope()
	if s.Alternate != nil {
		jEnd := c.emitJump(bytecode.OpJump, 0)
		c.patchJump(jf)
		c.beginScope()
		c.compileStatement(s.Alternate)
		c.endScope()
		c.patchJump(jEnd)
	} else {
		c.patchJump(jf)
	}
}

func (c *Compiler) compileWhile(s *ast.WhileStatement) {
	start := len(c.chunk.Code)
	cond := c.compileExpression(s.Test)
	jf := c.emitJump(bytecode.OpJumpIfFalse, cond)
	c.freeReg(cond)

	loop := &loopContext{start: start}
	c.loops = append(c.loops, loop)
	c.beginScope()
	c.compileStatement(s.Body)
	c.endScope()
	c.emitLoop(start)
	c.patchJump(jf)
	c.patchBreaks(loop)
	c.loops = c.loops[:len(c.loops)-1]
}

// compileDoWhile lays the loop out as: Jump -> body; start: <test>;
// JumpIfFalse -> end; body: <body>; Loop -> start; end. The first pass
// enters the body without testing, and `continue` (which loops back to
// start) still re-tests the condition.
func (c *Compiler) compileDoWhile(s *ast.DoWhileStatement) {
	jBody := c.emitJump(bytecode.OpJump, 0)
	start := len(c.chunk.Code)
	cond := c.compileExpression(s.Test)
	jf := c.emitJump(bytecode.OpJumpIfFalse, cond)
	c.freeReg(cond)
	c.patchJump(jBody)
	loop := &loopContext{start: start}
	c.loops = append(c.loops, loop)
	c.beginScope()
	c.compileStatement(s.Body)
	c.endScope()
	c.emitLoop(start)
	c.patchJump(jf)
	c.patchBreaks(loop)
	c.loops = c.loops[:len(c.loops)-1]
}

func (c *Compiler) patchBreaks(loop *loopContext) {
	for _, idx := range loop.breaks {
		c.patchJump(idx)
	}
}

func (c *Compiler) compileFor(s *ast.ForStatement) {
	c.beginScope()
	isLetInit := false
	var letInitReg uint8
	if s.Init != nil {
		c.compileStatement(s.Init)
		if vs, ok := s.Init.(*ast.VariableStatement); ok && vs.Kind == ast.KindLet && len(vs.Declarations) == 1 {
			isLetInit = true
			letInitReg, _, _ = c.resolveLocal(vs.Declarations[0].Name)
		}
	}

	start := len(c.chunk.Code)
	var jf int
	hasTest := s.Test != nil
	if hasTest {
		cond := c.compileExpression(s.Test)
		jf = c.emitJump(bytecode.OpJumpIfFalse, cond)
		c.freeReg(cond)
	}

	loop := &loopContext{start: start}
	c.loops = append(c.loops, loop)

	// Per-iteration fresh binding for `let` loop variables: copy the
	// current value into a new register, run the body against that copy,
	// then close any upvalue formed over it before writing the advanced
	// value back (spec.md §8 scenario 1: "each iteration closes over a
	// fresh binding").
	bodyScopeStart := 0
	var iterReg uint8
	if isLetInit {
		c.beginScope()
		bodyScopeStart = len(c.locals)
		iterReg = c.allocReg()
		c.emit(bytecode.OpMove, iterReg, letInitReg, 0)
		c.locals = append(c.locals, localVar{name: forLoopVarName(s), reg: iterReg, kind: ast.KindLet, depth: c.scopeDepth})
	}

	c.beginScope()
	c.compileStatement(s.Body)
	c.endScope()

	if isLetInit {
		c.emit(bytecode.OpCloseUpvalue, iterReg, 0, 0)
		c.emit(bytecode.OpMove, letInitReg, iterReg, 0)
		c.locals = c.locals[:bodyScopeStart]
		c.freeReg(iterReg)
		c.endScope()
	}

	continueTarget := len(c.chunk.Code)
	_ = continueTarget
	if s.Update != nil {
		r := c.compileExpression(s.Update)
		c.freeReg(r)
	}
	c.emitLoop(start)
	if hasTest {
		c.patchJump(jf)
	}
	c.patchBreaks(loop)
	c.loops = c.loops[:len(c.loops)-1]
	c.endScope()
}

// forLoopVarName extracts the single declared name from a for-loop's let
// init, used only to label the synthetic per-iteration local.
func forLoopVarName(s *ast.ForStatement) string {
	if vs, ok := s.Init.(*ast.VariableStatement); ok && len(vs.Declarations) == 1 {
		return vs.Declarations[0].Name
	}
	return ""
}

// compileForIn iterates enumerable property keys via EnumKeys, lowering to
// the canonical counted-loop pattern (spec.md §4.2 "for-in").
func (c *Compiler) compileForIn(s *ast.ForInStatement) {
	c.beginScope()
	objReg := c.compileExpression(s.Object)
	keysReg := c.allocReg()
	c.emit(bytecode.OpEnumKeys, keysReg, objReg, 0)
	c.freeReg(objReg)

	idxReg := c.allocReg()
	zero := c.constIndex(value.Number(0))
	c.emitBC(bytecode.OpLoadConst, idxReg, zero)

	lenReg := c.allocReg()
	c.emit(bytecode.OpGetObjectLength, lenReg, keysReg, 0)

	start := len(c.chunk.Code)
	condReg := c.allocReg()
	c.emit(bytecode.OpLessThan, condReg, idxReg, lenReg)
	jf := c.emitJump(bytecode.OpJumpIfFalse, condReg)
	c.freeReg(condReg)

	loop := &loopContext{start: start}
	c.loops = append(c.loops, loop)

	c.beginScope()
	keyReg := c.allocReg()
	c.emit(bytecode.OpGetPropertyDynamic, keyReg, keysReg, idxReg)
	c.bindForTarget(s.Init, keyReg)
	c.compileStatement(s.Body)
	c.freeReg(keyReg)
	c.endScope()

	one := c.constIndex(value.Number(1))
	oneReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, oneReg, one)
	c.emit(bytecode.OpAdd, idxReg, idxReg, oneReg)
	c.freeReg(oneReg)
	c.emitLoop(start)
	c.patchJump(jf)
	c.patchBreaks(loop)
	c.loops = c.loops[:len(c.loops)-1]

	c.freeReg(lenReg)
	c.freeReg(idxReg)
	c.freeReg(keysReg)
	c.endScope()
}

// compileForOf iterates 0..length-1 of an array-like (spec.md §4.2 "for-of").
func (c *Compiler) compileForOf(s *ast.ForOfStatement) {
	c.beginScope()
	arrReg := c.compileExpression(s.Right)

	idxReg := c.allocReg()
	zero := c.constIndex(value.Number(0))
	c.emitBC(bytecode.OpLoadConst, idxReg, zero)

	lenReg := c.allocReg()
	c.emit(bytecode.OpGetObjectLength, lenReg, arrReg, 0)

	start := len(c.chunk.Code)
	condReg := c.allocReg()
	c.emit(bytecode.OpLessThan, condReg, idxReg, lenReg)
	jf := c.emitJump(bytecode.OpJumpIfFalse, condReg)
	c.freeReg(condReg)

	loop := &loopContext{start: start}
	c.loops = append(c.loops, loop)

	c.beginScope()
	valReg := c.allocReg()
	c.emit(bytecode.OpGetPropertyDynamic, valReg, arrReg, idxReg)
	c.bindForTarget(s.Left, valReg)
	c.compileStatement(s.Body)
	c.freeReg(valReg)
	c.endScope()

	one := c.constIndex(value.Number(1))
	oneReg := c.allocReg()
	c.emitBC(bytecode.OpLoadConst, oneReg, one)
	c.emit(bytecode.OpAdd, idxReg, idxReg, oneReg)
	c.freeReg(oneReg)
	c.emitLoop(start)
	c.patchJump(jf)
	c.patchBreaks(loop)
	c.loops = c.loops[:len(c.loops)-1]

	c.freeReg(lenReg)
	c.freeReg(idxReg)
	c.freeReg(arrReg)
	c.endScope()
}

// bindForTarget binds valReg to the for-in/for-of loop variable, which
// must be an identifier or a single-declarator variable statement
// (spec.md §4.2 "Errors surfaced statically").
func (c *Compiler) bindForTarget(init ast.Statement, valReg uint8) {
	switch t := init.(type) {
	case *ast.VariableStatement:
		if len(t.Declarations) != 1 {
			c.addError(newCompileError(t.Line, "for-in/for-of loop variable must be a single declarator"))
			return
		}
		reg := c.declareLocal(t.Declarations[0].Name, t.Kind, t.Line)
		c.emit(bytecode.OpMove, reg, valReg, 0)
		op := bytecode.OpCreateLocalVar
		if t.Kind == ast.KindLet {
			op = bytecode.OpCreateLocalLet
		} else if t.Kind == ast.KindConst {
			op = bytecode.OpCreateLocalConst
		}
		c.emit(op, reg, 0, 0)
	case *ast.ExpressionStatement:
		if id, ok := t.Expression.(*ast.Identifier); ok {
			c.compileAssignTo(id, valReg, t.Line)
			return
		}
		c.addError(newCompileError(t.Line, "for-in/for-of loop variable must be an identifier or a single-declarator variable statement"))
	default:
		c.addError(newCompileError(0, "for-in/for-of loop variable must be an identifier or a single-declarator variable statement"))
	}
}

func (c *Compiler) compileReturn(s *ast.ReturnStatement) {
	var r uint8
	if s.Argument != nil {
		r = c.compileExpression(s.Argument)
	} else {
		r = c.allocReg()
		c.emit(bytecode.OpLoadUndefined, r, 0, 0)
	}
	c.emit(bytecode.OpReturn, r, 0, 0)
	c.freeReg(r)
}

func (c *Compiler) compileBreak(s *ast.BreakStatement) {
	if len(c.loops) == 0 {
		c.addError(newCompileError(s.Line, "'break' outside of a loop or switch"))
		return
	}
	idx := c.emitJump(bytecode.OpJump, 0)
	top := c.loops[len(c.loops)-1]
	top.breaks = append(top.breaks, idx)
}

func (c *Compiler) compileContinue(s *ast.ContinueStatement) {
	loop := c.currentLoop()
	if loop == nil {
		c.addError(newCompileError(s.Line, "'continue' outside of a loop"))
		return
	}
	c.emitLoop(loop.start)
}

// compileTry lowers try/catch/finally to the Try/TryFinally/EndTry/
// Throw/EndFinally protocol (spec.md §4.4 "Exceptions"). Bytecode layout:
//
//	Try catchOffset ; TryFinally finallyOffset
//	<protected body>
//	EndTry                 (with a finally, EndTry itself jumps to finallyLabel)
//	Jump -> end            (without a finally: skip the catch body)
//	catchLabel: <catch body>
//	finallyLabel: <finally body>
//	EndFinally
//	end:
func (c *Compiler) compileTry(s *ast.TryStatement) {
	catchReg := c.allocReg()
	tryIdx := c.emitBC(bytecode.OpTry, catchReg, bytecode.NoJumpTarget)
	tryFinallyIdx := c.emitBC(bytecode.OpTryFinally, 0, bytecode.NoJumpTarget)

	c.beginScope()
	c.compileStatement(s.Block)
	c.endScope()
	c.emit(bytecode.OpEndTry, 0, 0, 0)
	jSkipCatch := c.emitJump(bytecode.OpJump, 0)

	catchStart := len(c.chunk.Code)
	if s.Handler != nil {
		c.beginScope()
		if s.Handler.Param != "" {
			reg := c.declareLocal(s.Handler.Param, ast.KindLet, s.Handler.Line)
			c.emit(bytecode.OpLoadExceptionValue, reg, 0, 0)
			c.emit(bytecode.OpCreateLocalLet, reg, 0, 0)
			c.emit(bytecode.OpMove, reg, catchReg, 0)
		}
		c.compileStatement(s.Handler.Body)
		c.endScope()
	}

	finallyStart := len(c.chunk.Code)
	if s.Finally != nil {
		c.beginScope()
		c.compileStatement(s.Finally)
		c.endScope()
	}
	c.emit(bytecode.OpEndFinally, 0, 0, 0)

	c.patchJump(jSkipCatch)
	if s.Handler != nil {
		c.chunk.PatchBC(tryIdx, uint16(catchStart-(tryFinallyIdx+1)))
	}
	if s.Finally != nil {
		c.chunk.PatchBC(tryFinallyIdx, uint16(finallyStart-(tryFinallyIdx+1)))
	}
	c.freeReg(catchReg)
}

// compileSwitch lowers to a StrictEqual/JumpIfTrue chain against the
// discriminant (spec.md SPEC_FULL.md §C): a matching test jumps to its
// case body, and when none matches control goes to the `default` body (or
// past the switch). Case bodies are laid out back to back in source order,
// so a body without a `break` falls through into the next one.
func (c *Compiler) compileSwitch(s *ast.SwitchStatement) {
	discReg := c.compileExpression(s.Discriminant)
	loop := &loopContext{isSwitch: true}
	c.loops = append(c.loops, loop)

	var caseBodyJumps []int
	var defaultIndex = -1
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIndex = i
			caseBodyJumps = append(caseBodyJumps, -1)
			continue
		}
		testReg := c.compileExpression(cs.Test)
		eqReg := c.allocReg()
		c.emit(bytecode.OpStrictEqual, eqReg, discReg, testReg)
		c.freeReg(testReg)
		jt := c.emitJump(bytecode.OpJumpIfTrue, eqReg)
		c.freeReg(eqReg)
		caseBodyJumps = append(caseBodyJumps, jt)
	}
	jEnd := c.emitJump(bytecode.OpJump, 0)
	_ = defaultIndex

	bodyStarts := make([]int, len(s.Cases))
	for i, cs := range s.Cases {
		bodyStarts[i] = len(c.chunk.Code)
		if cs.Test != nil {
			c.patchJump(caseBodyJumps[i])
		}
		c.beginScope()
		for _, st := range cs.Consequent {
			c.compileStatement(st)
		}
		c.endScope()
	}
	if defaultIndex == -1 {
		c.patchJump(jEnd)
	} else {
		// Fall through to default naturally if nothing matched: patch the
		// unconditional end-jump to the default case's body start.
		offset := bodyStarts[defaultIndex] - (jEnd + 1)
		c.chunk.PatchBC(jEnd, uint16(offset))
	}

	c.patchBreaks(loop)
	c.loops = c.loops[:len(c.loops)-1]
	c.freeReg(discReg)
}
