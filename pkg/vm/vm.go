// Package vm implements the register-machine interpreter that executes a
// compiled module.Module (spec.md §4.4 "Virtual machine"). It fetches,
// decodes and dispatches every opcode defined in pkg/bytecode, drives the
// object/class/closure runtime model, and cooperates with pkg/eventloop to
// settle promises.
package vm

import (
	"math"

	"github.com/ardan-lang/ardan/pkg/bytecode"
	"github.com/ardan-lang/ardan/pkg/env"
	"github.com/ardan-lang/ardan/pkg/eventloop"
	"github.com/ardan-lang/ardan/pkg/module"
	"github.com/ardan-lang/ardan/pkg/value"
)

// VM owns the module being executed, the global binding table and the
// cooperative event loop; one VM runs one module top to bottom (spec.md §5
// "Concurrency & Resource Model": "no parallel execution of bytecode").
type VM struct {
	mod     *module.Module
	globals *env.Global
	loop    *eventloop.Loop

	// argStack is the shared PushArg/Call argument channel. Safe as one
	// flat stack because calls never interleave at the bytecode level:
	// a nested call's own Push.../Call sequence always fully drains
	// before the outer call's next PushArg executes (SPEC_FULL.md §C
	// "Call expressions").
	argStack []value.Value
}

func New(mod *module.Module) *VM {
	return &VM{mod: mod, globals: env.NewGlobal(), loop: eventloop.New()}
}

func (vm *VM) Globals() *env.Global   { return vm.globals }
func (vm *VM) Loop() *eventloop.Loop  { return vm.loop }

// LoadModule swaps in a newly compiled module ahead of the next Run,
// keeping this VM's globals and event loop intact. This is what lets a
// REPL session (pkg/repl) recompile each line as its own module while
// accumulating global state across lines (spec.md §6 "REPL").
func (vm *VM) LoadModule(mod *module.Module) { vm.mod = mod }

// Run executes the module's entry chunk as the top-level frame (bound to
// no closure, no this, no arguments) and drains any promise continuations
// left pending once the top level returns (spec.md §4.4 "Event-loop hook").
func (vm *VM) Run() (value.Value, error) {
	chunk := vm.mod.EntryChunk()
	n := chunk.MaxLocals
	if n < 1 {
		n = 1
	}
	frame := &Frame{chunk: chunk, regs: make([]value.Value, n)}
	result, err := vm.runFrame(frame)
	if err != nil {
		return value.Undefined, asThrownError(err)
	}
	vm.loop.Drain()
	return result, nil
}

// Frame is one activation record: its own register file, instruction
// pointer, bound closure (nil at the top level), the argument vector this
// call was invoked with, the open-upvalue table, and the active try/catch
// stack (spec.md §3 "ExecutionContext").
type Frame struct {
	chunk   *module.Chunk
	closure *value.Closure
	regs    []value.Value
	ip      int
	args    []value.Value

	openUpvalues map[uint8]*value.Upvalue
	pendingULocal bool // staged flag between SetClosureIsLocal and SetClosureIndex

	tryStack []tryEntry
	pendingException *value.Value
	pendingRethrow   bool
}

// tryEntry is one active protected region (spec.md §4.4 "Exceptions"). The
// catch/finally offsets land relative to the instruction right after
// OpTryFinally (see pkg/compiler/statements.go compileTry's doc comment);
// OpTryFinally resolves them to absolute ips once both it and the
// preceding OpTry have been decoded.
type tryEntry struct {
	catchReg           uint8
	hasCatch           bool
	catchOffsetPending uint16
	catchIP            int
	hasFinally         bool
	finallyIP          int
}

func (f *Frame) thisValue() value.Value {
	if f.closure != nil && f.closure.This != nil {
		return *f.closure.This
	}
	return value.Undefined
}

func (f *Frame) homeClass() *value.Class {
	if f.closure == nil {
		return nil
	}
	return f.closure.HomeClass
}

// thisObject returns the Object bound as this for the currently executing
// frame, or nil outside any method (spec.md §4.5: private visibility is
// enforced against this exact object, not merely the method's home class).
func (f *Frame) thisObject() *value.Object {
	if v := f.thisValue(); v.Kind == value.OBJECT {
		return v.AsObject()
	}
	return nil
}

// getOrCreateUpvalue returns the single shared Upvalue open over local
// slot idx, creating it the first time any closure captures that slot
// (spec.md §3 "Upvalue").
func (f *Frame) getOrCreateUpvalue(idx uint8) *value.Upvalue {
	if f.openUpvalues == nil {
		f.openUpvalues = make(map[uint8]*value.Upvalue)
	}
	if uv, ok := f.openUpvalues[idx]; ok {
		return uv
	}
	uv := &value.Upvalue{IsLocal: true, Slot: &f.regs[idx]}
	f.openUpvalues[idx] = uv
	return uv
}

func (f *Frame) closeUpvalue(idx uint8) {
	if uv, ok := f.openUpvalues[idx]; ok {
		uv.Close()
		delete(f.openUpvalues, idx)
	}
}

func (f *Frame) closeAllUpvalues() {
	for _, uv := range f.openUpvalues {
		uv.Close()
	}
	f.openUpvalues = nil
}

// callValue dispatches a Call instruction's callee by Value.Kind (spec.md
// §4.4 "Call semantics").
func (vm *VM) callValue(callee value.Value, args []value.Value) (value.Value, error) {
	switch callee.Kind {
	case value.CLOSURE:
		return vm.invokeClosure(callee.AsClosure(), args)
	case value.NATIVE:
		return callee.AsNative().Fn(value.Undefined, args)
	case value.FUNCTION_REF:
		return vm.invokeClosure(&value.Closure{Fn: callee.AsFunctionRef()}, args)
	case value.CLASS:
		cls := callee.AsClass()
		if cls.Native && cls.NativeConstruct != nil {
			return cls.NativeConstruct(args), nil
		}
		return value.Undefined, throwErrorf("TypeError", "%s is not a function", callee.TypeOf())
	default:
		return value.Undefined, throwErrorf("TypeError", "%s is not a function", callee.TypeOf())
	}
}

// invokeClosure runs one bytecode closure body in a fresh Frame (spec.md
// §4.2 "Closures"). Ardan calls recurse through the host Go call stack:
// there is no separate explicit ardan call-stack array, since every
// activation's lifetime already matches a Go stack frame's.
func (vm *VM) invokeClosure(cl *value.Closure, args []value.Value) (value.Value, error) {
	chunk := vm.mod.Chunks[cl.Fn.ChunkIndex]
	n := chunk.MaxLocals
	if n < 1 {
		n = 1
	}
	frame := &Frame{chunk: chunk, closure: cl, regs: make([]value.Value, n), args: args}
	return vm.runFrame(frame)
}

func (vm *VM) drainArgs(argc int) []value.Value {
	n := len(vm.argStack)
	args := make([]value.Value, argc)
	copy(args, vm.argStack[n-argc:])
	vm.argStack = vm.argStack[:n-argc]
	return args
}

// Call is the host-facing entry point builtins use to invoke an ardan
// callable (e.g. a `.then` callback, a Promise executor, or a user
// comparator passed to a native array method) without reaching into
// unexported VM internals. Any ardan-level throw escapes as the internal
// *thrown error, not the host-reporting *errors.ThrownError — converting
// happens only at Run's top-level boundary, never here, so a builtin that
// wants the original thrown Value (e.g. to reject a Promise with it) can
// recover it with ThrownValue, and a builtin that just wants to propagate
// the failure can return err unchanged and let an enclosing try/catch or
// Run's boundary handle it.
func (vm *VM) Call(callee value.Value, args []value.Value) (value.Value, error) {
	return vm.callValue(callee, args)
}

// ThrownValue extracts the original ardan value from an error produced by
// Call, for hosts that need to inspect the exact thrown value rather than
// its stringified form (e.g. Promise rejection).
func ThrownValue(err error) (value.Value, bool) {
	if t, ok := err.(*thrown); ok {
		return t.Val, true
	}
	return value.Undefined, false
}

// runFrame is the fetch-decode-dispatch loop over one activation's
// instructions (spec.md §4.4 "Virtual machine": "executes chunk
// instructions against a per-frame register file").
func (vm *VM) runFrame(frame *Frame) (value.Value, error) {
	for {
		in := frame.chunk.Code[frame.ip]
		frame.ip++

		switch in.Op {
		case bytecode.OpNop:

		case bytecode.OpLoadConst:
			frame.regs[in.A] = frame.chunk.Constants[in.BC()]
		case bytecode.OpLoadNull:
			frame.regs[in.A] = value.Null
		case bytecode.OpLoadUndefined:
			frame.regs[in.A] = value.Undefined
		case bytecode.OpLoadTrue:
			frame.regs[in.A] = value.True
		case bytecode.OpLoadFalse:
			frame.regs[in.A] = value.False
		case bytecode.OpMove:
			frame.regs[in.A] = frame.regs[in.B]

		case bytecode.OpLoadLocalVar:
			frame.regs[in.A] = frame.regs[in.B]
		case bytecode.OpStoreLocalVar:
			frame.regs[in.A] = frame.regs[in.B]
		case bytecode.OpCreateLocalVar, bytecode.OpCreateLocalLet, bytecode.OpCreateLocalConst:
			// Purely declarative: the value is already in place (reg a)
			// by the time this is emitted; const-reassignment is caught
			// statically by the compiler (spec.md §4.2 "Scopes").

		case bytecode.OpLoadGlobalVar:
			v, err := vm.globals.Load(frame.chunk.Constants[in.BC()].Str)
			if err != nil {
				if !vm.handleThrow(frame, refErrToValue(err)) {
					return value.Undefined, throwValue(refErrToValue(err))
				}
				continue
			}
			frame.regs[in.A] = v
		case bytecode.OpStoreGlobalVar:
			if err := vm.globals.Store(frame.chunk.Constants[in.BC()].Str, frame.regs[in.A]); err != nil {
				if !vm.handleThrow(frame, refErrToValue(err)) {
					return value.Undefined, throwValue(refErrToValue(err))
				}
			}
		case bytecode.OpCreateGlobalVar, bytecode.OpCreateGlobalLet, bytecode.OpCreateGlobalConst:
			kind := value.PropVar
			if in.Op == bytecode.OpCreateGlobalLet {
				kind = value.PropLet
			} else if in.Op == bytecode.OpCreateGlobalConst {
				kind = value.PropConst
			}
			if err := vm.globals.Create(frame.chunk.Constants[in.BC()].Str, frame.regs[in.A], kind); err != nil {
				if !vm.handleThrow(frame, refErrToValue(err)) {
					return value.Undefined, throwValue(refErrToValue(err))
				}
			}

		case bytecode.OpAdd:
			l, r := frame.regs[in.B], frame.regs[in.C]
			if l.Kind == value.STRING || r.Kind == value.STRING {
				frame.regs[in.A] = value.String(l.ToString() + r.ToString())
			} else {
				frame.regs[in.A] = value.Number(l.ToNumber() + r.ToNumber())
			}
		case bytecode.OpSub:
			frame.regs[in.A] = value.Number(frame.regs[in.B].ToNumber() - frame.regs[in.C].ToNumber())
		case bytecode.OpMul:
			frame.regs[in.A] = value.Number(frame.regs[in.B].ToNumber() * frame.regs[in.C].ToNumber())
		case bytecode.OpDiv:
			frame.regs[in.A] = value.Number(frame.regs[in.B].ToNumber() / frame.regs[in.C].ToNumber())
		case bytecode.OpMod:
			frame.regs[in.A] = value.Number(math.Mod(frame.regs[in.B].ToNumber(), frame.regs[in.C].ToNumber()))
		case bytecode.OpPow:
			frame.regs[in.A] = value.Number(math.Pow(frame.regs[in.B].ToNumber(), frame.regs[in.C].ToNumber()))
		case bytecode.OpBitAnd:
			frame.regs[in.A] = value.Number(float64(toInt32(frame.regs[in.B]) & toInt32(frame.regs[in.C])))
		case bytecode.OpBitOr:
			frame.regs[in.A] = value.Number(float64(toInt32(frame.regs[in.B]) | toInt32(frame.regs[in.C])))
		case bytecode.OpBitXor:
			frame.regs[in.A] = value.Number(float64(toInt32(frame.regs[in.B]) ^ toInt32(frame.regs[in.C])))
		case bytecode.OpShl:
			frame.regs[in.A] = value.Number(float64(toInt32(frame.regs[in.B]) << (toUint32(frame.regs[in.C]) & 31)))
		case bytecode.OpShr:
			frame.regs[in.A] = value.Number(float64(toInt32(frame.regs[in.B]) >> (toUint32(frame.regs[in.C]) & 31)))
		case bytecode.OpUShr:
			frame.regs[in.A] = value.Number(float64(toUint32(frame.regs[in.B]) >> (toUint32(frame.regs[in.C]) & 31)))

		case bytecode.OpEqual:
			frame.regs[in.A] = value.Boolean(frame.regs[in.B].LooseEquals(frame.regs[in.C]))
		case bytecode.OpNotEqual:
			frame.regs[in.A] = value.Boolean(!frame.regs[in.B].LooseEquals(frame.regs[in.C]))
		case bytecode.OpStrictEqual:
			frame.regs[in.A] = value.Boolean(frame.regs[in.B].StrictEquals(frame.regs[in.C]))
		case bytecode.OpStrictNotEqual:
			frame.regs[in.A] = value.Boolean(!frame.regs[in.B].StrictEquals(frame.regs[in.C]))
		case bytecode.OpLessThan:
			frame.regs[in.A] = value.Boolean(compareNumbers(frame.regs[in.B], frame.regs[in.C]) < 0)
		case bytecode.OpLessEqual:
			frame.regs[in.A] = value.Boolean(compareNumbers(frame.regs[in.B], frame.regs[in.C]) <= 0)
		case bytecode.OpGreaterThan:
			frame.regs[in.A] = value.Boolean(compareNumbers(frame.regs[in.B], frame.regs[in.C]) > 0)
		case bytecode.OpGreaterEqual:
			frame.regs[in.A] = value.Boolean(compareNumbers(frame.regs[in.B], frame.regs[in.C]) >= 0)
		case bytecode.OpStringConcat:
			frame.regs[in.A] = value.String(frame.regs[in.B].ToString() + frame.regs[in.C].ToString())

		case bytecode.OpNegate:
			frame.regs[in.A] = value.Number(-frame.regs[in.B].ToNumber())
		case bytecode.OpNot:
			frame.regs[in.A] = value.Boolean(!frame.regs[in.B].Truthy())
		case bytecode.OpBitNot:
			frame.regs[in.A] = value.Number(float64(^toInt32(frame.regs[in.B])))
		case bytecode.OpTypeOf:
			frame.regs[in.A] = value.String(frame.regs[in.B].TypeOf())
		case bytecode.OpToNumber:
			frame.regs[in.A] = value.Number(frame.regs[in.B].ToNumber())
		case bytecode.OpToString:
			frame.regs[in.A] = value.String(frame.regs[in.B].ToString())

		case bytecode.OpJump:
			frame.ip += int(in.BC())
		case bytecode.OpJumpIfFalse:
			if !frame.regs[in.A].Truthy() {
				frame.ip += int(in.BC())
			}
		case bytecode.OpJumpIfTrue:
			if frame.regs[in.A].Truthy() {
				frame.ip += int(in.BC())
			}
		case bytecode.OpLoop:
			frame.ip -= int(in.BC())

		case bytecode.OpPushArg:
			vm.argStack = append(vm.argStack, frame.regs[in.A])
		case bytecode.OpCall:
			args := vm.drainArgs(int(in.C))
			result, err := vm.callValue(frame.regs[in.B], args)
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = result
		case bytecode.OpReturn:
			frame.closeAllUpvalues()
			return frame.regs[in.A], nil

		case bytecode.OpNewObject:
			frame.regs[in.A] = value.FromObject(value.NewObject())
		case bytecode.OpNewArray:
			frame.regs[in.A] = value.FromArray(value.NewArray(nil))
		case bytecode.OpArrayPush:
			arr := frame.regs[in.A].AsArray()
			arr.Elements = append(arr.Elements, frame.regs[in.B])
		case bytecode.OpSetProperty:
			name := frame.chunk.Names[in.C]
			if err := vm.setProperty(frame.regs[in.A], name, frame.regs[in.B], frame.homeClass(), frame.thisObject()); err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
		case bytecode.OpGetProperty:
			name := frame.chunk.Names[in.C]
			v, err := vm.getProperty(frame.regs[in.B], name, frame.homeClass(), frame.thisObject())
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = v
		case bytecode.OpGetPropertyDynamic:
			v, err := vm.getProperty(frame.regs[in.B], frame.regs[in.C].ToString(), frame.homeClass(), frame.thisObject())
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = v
		case bytecode.OpSetPropertyDynamic:
			if err := vm.setProperty(frame.regs[in.A], frame.regs[in.B].ToString(), frame.regs[in.C], frame.homeClass(), frame.thisObject()); err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
		case bytecode.OpEnumKeys:
			frame.regs[in.A] = value.FromArray(vm.enumKeys(frame.regs[in.B]))
		case bytecode.OpGetObjectLength:
			frame.regs[in.A] = value.Number(vm.objectLength(frame.regs[in.B]))

		case bytecode.OpNewClass:
			var super *value.Class
			if in.B != 0xFF {
				super = frame.regs[in.B].AsClass()
			}
			cls := value.NewClass(frame.chunk.Names[in.C], super)
			frame.regs[in.A] = value.FromClass(cls)

		case bytecode.OpFieldPublicVarInstance, bytecode.OpFieldPublicVarStatic,
			bytecode.OpFieldPublicConstInstance, bytecode.OpFieldPublicConstStatic,
			bytecode.OpFieldProtectedVarInstance, bytecode.OpFieldProtectedVarStatic,
			bytecode.OpFieldProtectedConstInstance, bytecode.OpFieldProtectedConstStatic,
			bytecode.OpFieldPrivateVarInstance, bytecode.OpFieldPrivateVarStatic,
			bytecode.OpFieldPrivateConstInstance, bytecode.OpFieldPrivateConstStatic:
			info := bytecode.FieldOpInfo(in.Op)
			cls := frame.regs[in.A].AsClass()
			name := frame.chunk.Names[in.C]
			vis := value.Visibility(info.Visibility)
			val := frame.regs[in.B]
			if info.Static {
				cls.StaticValues[name] = val
				cls.StaticConst[name] = info.Const
				cls.StaticVisibility[name] = vis
			} else {
				invoke := val.Kind == value.CLOSURE && val.AsClosure().IsFieldThunk
				cls.ProtoFields = append(cls.ProtoFields, &value.FieldTemplate{
					Name: name, Visibility: vis, Const: info.Const, Init: val, Invoke: invoke,
				})
			}

		case bytecode.OpMethodPublicInstance, bytecode.OpMethodPublicStatic,
			bytecode.OpMethodProtectedInstance, bytecode.OpMethodProtectedStatic,
			bytecode.OpMethodPrivateInstance, bytecode.OpMethodPrivateStatic:
			info := bytecode.MethodOpInfo(in.Op)
			cls := frame.regs[in.A].AsClass()
			name := frame.chunk.Names[in.C]
			cl := frame.regs[in.B].AsClosure()
			cl.HomeClass = cls
			kind := "method"
			switch {
			case cl.IsGetter:
				kind = "get"
			case cl.IsSetter:
				kind = "set"
			case name == "constructor":
				kind = "constructor"
			}
			mt := &value.MethodTemplate{Name: name, Visibility: value.Visibility(info.Visibility), Static: info.Static, Kind: kind, Fn: cl}
			if info.Static {
				cls.StaticMethods[name] = mt
			} else {
				cls.Methods[name] = mt
			}

		case bytecode.OpCreateInstance:
			inst, err := vm.createInstance(frame.regs[in.B])
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = inst
		case bytecode.OpInvokeConstructor:
			args := vm.drainArgs(int(in.C))
			result, err := vm.invokeConstructor(frame.regs[in.A], args)
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = result

		case bytecode.OpMarkFieldThunk:
			frame.regs[in.A].AsClosure().IsFieldThunk = true
		case bytecode.OpMarkAccessor:
			cl := frame.regs[in.A].AsClosure()
			if in.B == 0 {
				cl.IsGetter = true
			} else {
				cl.IsSetter = true
			}

		case bytecode.OpCreateClosure:
			fr := vm.mod.Constants[in.BC()].AsFunctionRef()
			frame.regs[in.A] = value.FromClosure(&value.Closure{Fn: fr, HomeClass: frame.homeClass()})
		case bytecode.OpSetClosureIsLocal:
			frame.pendingULocal = in.B == 1
		case bytecode.OpSetClosureIndex:
			cl := frame.regs[in.A].AsClosure()
			var uv *value.Upvalue
			if frame.pendingULocal {
				uv = frame.getOrCreateUpvalue(in.B)
			} else {
				uv = frame.closure.Upvalues[in.B]
			}
			cl.Upvalues = append(cl.Upvalues, uv)
		case bytecode.OpLoadUpvalue:
			frame.regs[in.A] = frame.closure.Upvalues[in.B].Get()
		case bytecode.OpStoreUpvalueVar, bytecode.OpStoreUpvalueLet, bytecode.OpStoreUpvalueConst:
			frame.closure.Upvalues[in.A].Set(frame.regs[in.B])
		case bytecode.OpCloseUpvalue:
			frame.closeUpvalue(in.A)

		case bytecode.OpTry:
			entry := tryEntry{catchReg: in.A}
			if bc := in.BC(); bc != bytecode.NoJumpTarget {
				entry.hasCatch = true
				entry.catchOffsetPending = bc
			}
			frame.tryStack = append(frame.tryStack, entry)
		case bytecode.OpTryFinally:
			top := &frame.tryStack[len(frame.tryStack)-1]
			base := frame.ip
			if top.hasCatch {
				top.catchIP = base + int(top.catchOffsetPending)
			}
			if bc := in.BC(); bc != bytecode.NoJumpTarget {
				top.hasFinally = true
				top.finallyIP = base + int(bc)
			}
		case bytecode.OpEndTry:
			top := frame.tryStack[len(frame.tryStack)-1]
			frame.tryStack = frame.tryStack[:len(frame.tryStack)-1]
			if top.hasFinally {
				frame.ip = top.finallyIP
			}
		case bytecode.OpThrow:
			if !vm.handleThrow(frame, frame.regs[in.A]) {
				return value.Undefined, throwValue(frame.regs[in.A])
			}
		case bytecode.OpLoadExceptionValue:
			if frame.pendingException != nil {
				frame.regs[in.A] = *frame.pendingException
			} else {
				frame.regs[in.A] = value.Undefined
			}
		case bytecode.OpEndFinally:
			if frame.pendingRethrow {
				v := *frame.pendingException
				frame.pendingRethrow = false
				frame.pendingException = nil
				if !vm.handleThrow(frame, v) {
					return value.Undefined, throwValue(v)
				}
			}

		case bytecode.OpLoadArguments:
			frame.regs[in.A] = value.FromArray(value.NewArray(append([]value.Value(nil), frame.args...)))
		case bytecode.OpLoadArgument:
			idx := int(frame.regs[in.B].ToNumber())
			if idx >= 0 && idx < len(frame.args) {
				frame.regs[in.A] = frame.args[idx]
			} else {
				frame.regs[in.A] = value.Undefined
			}
		case bytecode.OpLoadArgumentsLength:
			frame.regs[in.A] = value.Number(float64(len(frame.args)))
		case bytecode.OpSlice:
			frame.regs[in.A] = sliceArray(frame.regs[in.B], int(frame.regs[in.C].ToNumber()))

		case bytecode.OpLoadThis:
			frame.regs[in.A] = frame.thisValue()
		case bytecode.OpGetSuper:
			v, err := vm.getSuperProperty(frame, frame.chunk.Names[in.C])
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = v
		case bytecode.OpCallSuper:
			args := vm.drainArgs(int(in.C))
			if _, err := vm.callSuperConstructor(frame, args); err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}

		case bytecode.OpCreatePromise:
			frame.regs[in.A] = value.FromPromise(&value.Promise{})
		case bytecode.OpAwait:
			v, err := vm.await(frame.regs[in.B])
			if err != nil {
				if t, ok := err.(*thrown); ok && vm.handleThrow(frame, t.Val) {
					continue
				}
				return value.Undefined, err
			}
			frame.regs[in.A] = v

		default:
			return value.Undefined, throwErrorf("InternalError", "unimplemented opcode %s", in.Op)
		}
	}
}

// handleThrow searches frame's try-stack for a handler, mirroring JS
// unwind semantics: a throw from inside a catch body still runs that same
// try's pending finally before propagating further (spec.md §4.4
// "Exceptions").
func (vm *VM) handleThrow(frame *Frame, val value.Value) bool {
	for i := len(frame.tryStack) - 1; i >= 0; i-- {
		top := &frame.tryStack[i]
		if top.hasCatch {
			top.hasCatch = false
			frame.regs[top.catchReg] = val
			frame.pendingException = &val
			frame.ip = top.catchIP
			if !top.hasFinally {
				frame.tryStack = append(frame.tryStack[:i], frame.tryStack[i+1:]...)
			}
			return true
		}
		if top.hasFinally {
			frame.tryStack = append(frame.tryStack[:i], frame.tryStack[i+1:]...)
			frame.pendingException = &val
			frame.pendingRethrow = true
			frame.ip = top.finallyIP
			return true
		}
		frame.tryStack = frame.tryStack[:i]
	}
	return false
}

func toInt32(v value.Value) int32 {
	f := v.ToNumber()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(int64(f))
}

func toUint32(v value.Value) uint32 { return uint32(toInt32(v)) }

// compareNumbers orders two values for </<=/>/>= ; strings compare
// lexicographically, everything else numerically (SPEC_FULL.md §C
// "Relational operators").
func compareNumbers(a, b value.Value) int {
	if a.Kind == value.STRING && b.Kind == value.STRING {
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		default:
			return 0
		}
	}
	x, y := a.ToNumber(), b.ToNumber()
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func refErrToValue(err error) value.Value {
	return newError("ReferenceError", "%s", err.Error())
}
