package compiler

import (
	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/module"
	"github.com/ardan-lang/ardan/pkg/value"
)

// newNested creates the child Compiler used for every function/arrow/
// method body (spec.md §4.2 "Functions": "A nested code generator compiles
// the body into a new chunk").
func (c *Compiler) newNested(name string, isArrow bool, class *classContext) (*Compiler, int) {
	nested := &Compiler{
		mod:     c.mod,
		chunk:   &module.Chunk{Name: name},
		enclosing: c,
		isArrow: isArrow,
		class:   class,
		regNext: 1,
		regMax:  1,
	}
	if !isArrow {
		nested.emit(bytecode.OpLoadThis, 0, 0, 0)
		nested.locals = append(nested.locals, localVar{name: thisPseudoName, reg: 0, kind: ast.KindConst, depth: 0})
	}
	idx := c.mod.AddChunk(nested.chunk)
	return nested, idx
}

// compileParams emits the plain/defaulted/rest parameter prologue
// (spec.md §4.2 "Functions").
func (nested *Compiler) compileParams(params []*ast.Param) (arity int) {
	for i, p := range params {
		reg := nested.declareLocal(p.Name, ast.KindLet, 0)
		switch {
		case p.Rest:
			arrReg := nested.allocReg()
			nested.emit(bytecode.OpLoadArguments, arrReg, 0, 0)
			startReg := nested.allocReg()
			nested.emitBC(bytecode.OpLoadConst, startReg, nested.constIndex(value.Number(float64(i))))
			nested.emit(bytecode.OpSlice, reg, arrReg, startReg)
			nested.freeReg(arrReg)
			nested.freeReg(startReg)
			nested.chunk.HasRest = true
		case p.Default != nil:
			arity++
			argsLenReg := nested.allocReg()
			nested.emit(bytecode.OpLoadArgumentsLength, argsLenReg, 0, 0)
			idxReg := nested.allocReg()
			nested.emitBC(bytecode.OpLoadConst, idxReg, nested.constIndex(value.Number(float64(i))))
			condReg := nested.allocReg()
			nested.emit(bytecode.OpGreaterThan, condReg, argsLenReg, idxReg)
			nested.freeReg(argsLenReg)
			jf := nested.emitJump(bytecode.OpJumpIfFalse, condReg)
			nested.freeReg(condReg)
			nested.emit(bytecode.OpLoadArgument, reg, idxReg, 0)
			nested.freeReg(idxReg)
			jEnd := nested.emitJump(bytecode.OpJump, 0)
			nested.patchJump(jf)
			nested.compileInto(reg, p.Default)
			nested.patchJump(jEnd)
		default:
			arity++
			idxReg := nested.allocReg()
			nested.emitBC(bytecode.OpLoadConst, idxReg, nested.constIndex(value.Number(float64(i))))
			nested.emit(bytecode.OpLoadArgument, reg, idxReg, 0)
			nested.freeReg(idxReg)
		}
	}
	return arity
}

// finishClosure emits CreateClosure + the upvalue-descriptor pairs in the
// OUTER (current) compiler and returns the register holding the new
// closure (spec.md §4.2 "Closures").
func (c *Compiler) finishClosure(nested *Compiler, chunkIdx int, arity int, name string) uint8 {
	nested.emitImplicitReturn()
	nested.chunk.MaxLocals = int(nested.regMax)
	nested.chunk.Arity = arity
	if len(nested.errs) > 0 {
		c.errs = append(c.errs, nested.errs...)
	}

	fr := &value.FunctionRef{
		ChunkIndex:   chunkIdx,
		Arity:        arity,
		Name:         name,
		UpvalueCount: len(nested.upvalues),
		UpvalueDescs: nested.upvalues,
	}
	constIdx := c.mod.AddConstant(value.FromFunctionRef(fr))

	dst := c.allocReg()
	c.emitBC(bytecode.OpCreateClosure, dst, uint16(constIdx))
	for _, up := range nested.upvalues {
		flag := uint8(0)
		if up.IsLocal {
			flag = 1
		}
		c.emit(bytecode.OpSetClosureIsLocal, dst, flag, 0)
		c.emit(bytecode.OpSetClosureIndex, dst, uint8(up.Index), 0)
	}
	return dst
}

func (c *Compiler) compileFunctionExpression(e *ast.FunctionExpression) uint8 {
	nested, idx := c.newNested(e.Name, false, nil)
	arity := nested.compileParams(e.Params)
	for _, st := range e.Body.Body {
		nested.compileStatement(st)
	}
	return c.finishClosure(nested, idx, arity, e.Name)
}

// compileArrowFunction never rebinds `this`; a body with no block compiles
// its single expression as an implicit return (SPEC_FULL.md §C).
func (c *Compiler) compileArrowFunction(e *ast.ArrowFunction) uint8 {
	nested, idx := c.newNested("<arrow>", true, c.class)
	arity := nested.compileParams(e.Params)
	if e.Body != nil {
		for _, st := range e.Body.Body {
			nested.compileStatement(st)
		}
	} else {
		r := nested.compileExpression(e.Expression)
		nested.emit(bytecode.OpReturn, r, 0, 0)
		nested.freeReg(r)
	}
	return c.finishClosure(nested, idx, arity, "<arrow>")
}

func (c *Compiler) compileFunctionDeclaration(s *ast.FunctionDeclaration) {
	if c.isGlobalScope() {
		nested, idx := c.newNested(s.Name, false, nil)
		arity := nested.compileParams(s.Params)
		for _, st := range s.Body.Body {
			nested.compileStatement(st)
		}
		closureReg := c.finishClosure(nested, idx, arity, s.Name)
		nameIdx := c.constIndex(value.String(s.Name))
		c.emitBC(bytecode.OpCreateGlobalVar, closureReg, nameIdx)
		c.freeReg(closureReg)
		return
	}
	reg := c.declareLocal(s.Name, ast.KindVar, s.Line)
	nested, idx := c.newNested(s.Name, false, nil)
	arity := nested.compileParams(s.Params)
	for _, st := range s.Body.Body {
		nested.compileStatement(st)
	}
	closureReg := c.finishClosure(nested, idx, arity, s.Name)
	c.emit(bytecode.OpMove, reg, closureReg, 0)
	c.emit(bytecode.OpCreateLocalVar, reg, 0, 0)
	c.freeReg(closureReg)
}
