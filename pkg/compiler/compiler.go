// Package compiler lowers an ast.Program to a module.Module of bytecode
// chunks (spec.md §4.2 "Code Generator"). It is a direct, single-pass AST
// visitor: no separate optimization pass, register coalescing beyond the
// free-list allocator below, or constant folding (spec.md §1 Non-goals).
package compiler

import (
	"fmt"

	"github.com/ardan-lang/ardan/pkg/ast"
	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/errors"
	"github.com/ardan-lang/ardan/pkg/module"
	"github.com/ardan-lang/ardan/pkg/value"
)

// debugEmit gates instruction-by-instruction tracing during development,
// following the teacher's package-level debug-flag convention (SPEC_FULL.md
// §A "Logging/tracing") rather than pulling in a logging library.
const debugEmit = false

// maxRegisters bounds a frame's live register count (spec.md §4.1
// "Rationale for three-operand register form").
const maxRegisters = 256

// CompileError is a static error surfaced by the generator and reported
// through the pkg/errors.PaseratiError interface (spec.md §7 "Static
// (compile-time)").
func newCompileError(line int, format string, args ...interface{}) *errors.CompileError {
	return &errors.CompileError{
		Position: errors.Position{Line: line},
		Msg:      fmt.Sprintf(format, args...),
	}
}

// localVar is one name bound to a register within the current function.
type localVar struct {
	name  string
	reg   uint8
	kind  ast.Kind
	depth int
}

// loopContext tracks the pending break jumps and the loop-start ip that
// `continue` targets (spec.md §4.2 "Control flow").
type loopContext struct {
	start       int // ip of the loop's test/condition, target for `continue` (via OpLoop)
	breaks      []int
	isSwitch    bool // switch bodies reuse the break patch-list machinery
}

// classContext records what `this`/`super` mean while compiling a method
// or constructor body (spec.md §4.2 "Classes", "Imports" section's sibling
// discussion of super/this resolution).
type classContext struct {
	isConstructor bool
	hasSuper      bool
}

// Compiler generates one Chunk for one function (or the top-level
// program). Nested functions get their own Compiler whose `enclosing`
// points back here, matching spec.md §4.2 "Closures": "a nested code
// generator compiles the body into a new chunk."
type Compiler struct {
	mod   *module.Module
	chunk *module.Chunk

	enclosing *Compiler
	isArrow   bool
	class     *classContext

	locals     []localVar
	scopeDepth int

	regNext uint8
	regFree []uint8
	regMax  uint8

	loops []*loopContext

	upvalues []value.UpvalueDesc

	errs []error
}

// Compile lowers prog into a Module with its entry chunk set (spec.md
// §4.2 "Output").
func Compile(prog *ast.Program) (*module.Module, []error) {
	mod := module.NewModule()
	c := &Compiler{
		mod:     mod,
		chunk:   &module.Chunk{Name: "<main>", Arity: 0},
		regNext: 1, // register 0 is reserved (spec.md §4.1 "Rationale")
	}
	c.regMax = 1
	mod.EntryChunkIndex = mod.AddChunk(c.chunk)
	// Register 0 caches the frame's `this` (undefined at top level) so
	// nested arrows can resolve a free `this` through the ordinary
	// upvalue-resolution path (SPEC_FULL.md §C "Arrow functions").
	c.emit(bytecode.OpLoadThis, 0, 0, 0)
	c.locals = append(c.locals, localVar{name: thisPseudoName, reg: 0, kind: ast.KindConst, depth: 0})

	for _, stmt := range prog.Body {
		c.compileStatement(stmt)
	}
	c.emitImplicitReturn()
	c.chunk.MaxLocals = int(c.regMax)

	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return mod, nil
}

func (c *Compiler) addError(err error) { c.errs = append(c.errs, err) }

// --- register allocation (spec.md §4.2 "Register allocation") ---

func (c *Compiler) allocReg() uint8 {
	if n := len(c.regFree); n > 0 {
		r := c.regFree[n-1]
		c.regFree = c.regFree[:n-1]
		return r
	}
	// The last id, 0xFF, is never handed out: OpNewClass uses it as its
	// "no superclass" sentinel.
	if int(c.regNext) >= maxRegisters-1 {
		c.addError(newCompileError(0, "exceeded maximum of %d registers in function %q", maxRegisters-1, c.chunk.Name))
		return c.regNext
	}
	r := c.regNext
	c.regNext++
	if c.regNext > c.regMax {
		c.regMax = c.regNext
	}
	return r
}

func (c *Compiler) freeReg(r uint8) {
	if r == 0 {
		return
	}
	c.regFree = append(c.regFree, r)
}

// --- scopes (spec.md §4.2 "Scopes") ---

func (c *Compiler) beginScope() { c.scopeDepth++ }

func (c *Compiler) endScope() {
	depth := c.scopeDepth
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth == depth {
		last := c.locals[len(c.locals)-1]
		c.locals = c.locals[:len(c.locals)-1]
		c.freeReg(last.reg)
	}
	c.scopeDepth--
}

func (c *Compiler) isGlobalScope() bool { return c.enclosing == nil && c.scopeDepth == 0 }

// declareLocal binds name to a fresh register at the current scope depth,
// failing on a same-depth redeclaration (spec.md §4.2 "Scopes").
func (c *Compiler) declareLocal(name string, kind ast.Kind, line int) uint8 {
	for i := len(c.locals) - 1; i >= 0; i-- {
		l := c.locals[i]
		if l.depth < c.scopeDepth {
			break
		}
		if l.name == name && l.depth == c.scopeDepth {
			c.addError(newCompileError(line, "identifier %q has already been declared", name))
			return l.reg
		}
	}
	reg := c.allocReg()
	c.locals = append(c.locals, localVar{name: name, reg: reg, kind: kind, depth: c.scopeDepth})
	return reg
}

func (c *Compiler) resolveLocal(name string) (uint8, ast.Kind, bool) {
	for i := len(c.locals) - 1; i >= 0; i-- {
		if c.locals[i].name == name {
			return c.locals[i].reg, c.locals[i].kind, true
		}
	}
	return 0, "", false
}

// resolveUpvalue walks the enclosing-compiler chain, adding an upvalue
// descriptor on every intermediate function that must thread the capture
// through to reach the defining frame (spec.md §4.2 "Closures").
func (c *Compiler) resolveUpvalue(name string) (int, bool) {
	if c.enclosing == nil {
		return 0, false
	}
	if reg, _, ok := c.enclosing.resolveLocal(name); ok {
		return c.addUpvalue(value.UpvalueDesc{IsLocal: true, Index: int(reg)}), true
	}
	if idx, ok := c.enclosing.resolveUpvalue(name); ok {
		return c.addUpvalue(value.UpvalueDesc{IsLocal: false, Index: idx}), true
	}
	return 0, false
}

func (c *Compiler) addUpvalue(desc value.UpvalueDesc) int {
	for i, existing := range c.upvalues {
		if existing == desc {
			return i
		}
	}
	c.upvalues = append(c.upvalues, desc)
	return len(c.upvalues) - 1
}

// --- emit helpers ---

func (c *Compiler) emit(op bytecode.Op, a, b, cc uint8) int {
	idx := c.chunk.Emit(bytecode.Instruction{Op: op, A: a, B: b, C: cc})
	if debugEmit {
		fmt.Printf("%04d %-20s %d %d %d\n", idx, op, a, b, cc)
	}
	return idx
}

func (c *Compiler) emitBC(op bytecode.Op, a uint8, bc uint16) int {
	in := bytecode.Instruction{Op: op, A: a}
	in.SetBC(bc)
	idx := c.chunk.Emit(in)
	if debugEmit {
		fmt.Printf("%04d %-20s %d %d\n", idx, op, a, bc)
	}
	return idx
}

func (c *Compiler) emitJump(op bytecode.Op, a uint8) int {
	return c.emitBC(op, a, bytecode.NoJumpTarget)
}

// patchJump back-patches a forward jump emitted at idx so it lands on the
// next instruction to be emitted (spec.md §8 "Instruction-offset safety").
func (c *Compiler) patchJump(idx int) {
	offset := len(c.chunk.Code) - (idx + 1)
	c.chunk.PatchBC(idx, uint16(offset))
}

// emitLoop emits a backward OpLoop targeting start.
func (c *Compiler) emitLoop(start int) {
	idx := c.emitBC(bytecode.OpLoop, 0, 0)
	offset := (idx + 1) - start
	c.chunk.PatchBC(idx, uint16(offset))
}

func (c *Compiler) constIndex(v value.Value) uint16 {
	return uint16(c.chunk.AddConstant(v))
}

func (c *Compiler) nameIndex(name string) uint8 {
	idx := c.chunk.AddName(name)
	if idx > 255 {
		c.addError(newCompileError(0, "too many distinct names (>255) referenced in function %q", c.chunk.Name))
		return 255
	}
	return uint8(idx)
}

// emitImplicitReturn appends `return undefined` when a function body does
// not terminate every path with an explicit Return (spec.md §4.2
// "Functions").
func (c *Compiler) emitImplicitReturn() {
	if n := len(c.chunk.Code); n > 0 && c.chunk.Code[n-1].Op == bytecode.OpReturn {
		return
	}
	r := c.allocReg()
	c.emit(bytecode.OpLoadUndefined, r, 0, 0)
	c.emit(bytecode.OpReturn, r, 0, 0)
	c.freeReg(r)
}

func (c *Compiler) currentLoop() *loopContext {
	for i := len(c.loops) - 1; i >= 0; i-- {
		if !c.loops[i].isSwitch {
			return c.loops[i]
		}
	}
	return nil
}
