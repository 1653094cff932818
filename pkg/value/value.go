// Package value implements the tagged runtime value variant described in
// spec.md §3 "Value": numbers, strings, booleans, the two singletons,
// arrays, objects, classes, closures, bare function references, native
// functions and promises all live behind one Value struct so the VM's
// register file can hold any of them uniformly.
package value

import (
	"fmt"
	"math"
	"strconv"
)

type Kind uint8

const (
	NUMBER Kind = iota
	STRING
	BOOLEAN
	NULL
	UNDEFINED
	ARRAY
	OBJECT
	CLASS
	CLOSURE
	FUNCTION_REF
	NATIVE
	PROMISE
)

func (k Kind) String() string {
	switch k {
	case NUMBER:
		return "number"
	case STRING:
		return "string"
	case BOOLEAN:
		return "boolean"
	case NULL:
		return "null"
	case UNDEFINED:
		return "undefined"
	case ARRAY:
		return "array"
	case OBJECT:
		return "object"
	case CLASS:
		return "class"
	case CLOSURE, FUNCTION_REF, NATIVE:
		return "function"
	case PROMISE:
		return "promise"
	}
	return "unknown"
}

// Value is the tagged sum described by spec.md §3. Only one of the payload
// fields is meaningful for a given Kind; Obj carries every reference-shaped
// variant (Array, Object, Class, Closure, FunctionRef, NativeFunction,
// Promise) behind an interface{} to keep the struct small and comparable
// for the scalar kinds.
type Value struct {
	Kind Kind
	Num  float64
	Str  string
	Bool bool
	Obj  interface{}
}

var (
	Null      = Value{Kind: NULL}
	Undefined = Value{Kind: UNDEFINED}
	True      = Value{Kind: BOOLEAN, Bool: true}
	False     = Value{Kind: BOOLEAN, Bool: false}
)

func Number(f float64) Value  { return Value{Kind: NUMBER, Num: f} }
func String(s string) Value  { return Value{Kind: STRING, Str: s} }
func Boolean(b bool) Value {
	if b {
		return True
	}
	return False
}

func FromArray(a *Array) Value      { return Value{Kind: ARRAY, Obj: a} }
func FromObject(o *Object) Value    { return Value{Kind: OBJECT, Obj: o} }
func FromClass(c *Class) Value      { return Value{Kind: CLASS, Obj: c} }
func FromClosure(c *Closure) Value  { return Value{Kind: CLOSURE, Obj: c} }
func FromFunctionRef(f *FunctionRef) Value { return Value{Kind: FUNCTION_REF, Obj: f} }
func FromNative(n *NativeFunction) Value   { return Value{Kind: NATIVE, Obj: n} }
func FromPromise(p *Promise) Value  { return Value{Kind: PROMISE, Obj: p} }

func (v Value) AsArray() *Array           { o, _ := v.Obj.(*Array); return o }
func (v Value) AsObject() *Object         { o, _ := v.Obj.(*Object); return o }
func (v Value) AsClass() *Class           { o, _ := v.Obj.(*Class); return o }
func (v Value) AsClosure() *Closure       { o, _ := v.Obj.(*Closure); return o }
func (v Value) AsFunctionRef() *FunctionRef { o, _ := v.Obj.(*FunctionRef); return o }
func (v Value) AsNative() *NativeFunction { o, _ := v.Obj.(*NativeFunction); return o }
func (v Value) AsPromise() *Promise       { o, _ := v.Obj.(*Promise); return o }

// IsCallable reports whether v can be the callee of a Call instruction
// (spec.md §4.4 "Call semantics").
func (v Value) IsCallable() bool {
	switch v.Kind {
	case CLOSURE, FUNCTION_REF, NATIVE:
		return true
	case CLASS:
		return v.AsClass().Native
	}
	return false
}

// Truthy implements the coercion rules used by JumpIfFalse/JumpIfTrue and
// the `!` operator.
func (v Value) Truthy() bool {
	switch v.Kind {
	case UNDEFINED, NULL:
		return false
	case BOOLEAN:
		return v.Bool
	case NUMBER:
		return v.Num != 0 && !math.IsNaN(v.Num)
	case STRING:
		return v.Str != ""
	default:
		return true
	}
}

// IsNullish implements the `??` operator's test.
func (v Value) IsNullish() bool { return v.Kind == NULL || v.Kind == UNDEFINED }

// ToNumber implements the `+x`/arithmetic coercion.
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case NUMBER:
		return v.Num
	case BOOLEAN:
		if v.Bool {
			return 1
		}
		return 0
	case NULL:
		return 0
	case STRING:
		if v.Str == "" {
			return 0
		}
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// ToString implements the string coercion used by template literals,
// `+` on a string operand, and console.log formatting.
func (v Value) ToString() string {
	switch v.Kind {
	case STRING:
		return v.Str
	case NUMBER:
		return formatNumber(v.Num)
	case BOOLEAN:
		if v.Bool {
			return "true"
		}
		return "false"
	case NULL:
		return "null"
	case UNDEFINED:
		return "undefined"
	case ARRAY:
		elems := v.AsArray().Elements
		parts := make([]string, len(elems))
		for i, e := range elems {
			if e.Kind == NULL || e.Kind == UNDEFINED {
				parts[i] = ""
			} else {
				parts[i] = e.ToString()
			}
		}
		out := ""
		for i, p := range parts {
			if i > 0 {
				out += ","
			}
			out += p
		}
		return out
	case OBJECT:
		return "[object Object]"
	case CLASS:
		return "[class " + v.AsClass().Name + "]"
	case CLOSURE:
		return "[function " + v.AsClosure().Fn.Name + "]"
	case FUNCTION_REF:
		return "[function " + v.AsFunctionRef().Name + "]"
	case NATIVE:
		return "[native function " + v.AsNative().Name + "]"
	case PROMISE:
		return "[object Promise]"
	}
	return ""
}

func formatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// TypeOf implements the `typeof` unary operator.
func (v Value) TypeOf() string {
	switch v.Kind {
	case UNDEFINED:
		return "undefined"
	case NULL:
		return "object"
	case BOOLEAN:
		return "boolean"
	case NUMBER:
		return "number"
	case STRING:
		return "string"
	case CLOSURE, FUNCTION_REF, NATIVE:
		return "function"
	case CLASS:
		if v.AsClass().Native {
			return "function"
		}
		return "function"
	default:
		return "object"
	}
}

// StrictEquals implements `===`.
func (v Value) StrictEquals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case NUMBER:
		return v.Num == other.Num
	case STRING:
		return v.Str == other.Str
	case BOOLEAN:
		return v.Bool == other.Bool
	case NULL, UNDEFINED:
		return true
	default:
		return v.Obj == other.Obj
	}
}

// LooseEquals implements `==`, with the coercions spec.md §4.1 needs for
// Equal/NotEqual: numeric comparison when either side is a number, and
// null/undefined treated as mutually (but not otherwise) equal.
func (v Value) LooseEquals(other Value) bool {
	if v.Kind == other.Kind {
		return v.StrictEquals(other)
	}
	if v.IsNullish() && other.IsNullish() {
		return true
	}
	if v.IsNullish() || other.IsNullish() {
		return false
	}
	if v.Kind == BOOLEAN || other.Kind == BOOLEAN {
		return v.ToNumber() == other.ToNumber()
	}
	if v.Kind == NUMBER || other.Kind == NUMBER {
		return v.ToNumber() == other.ToNumber()
	}
	return false
}

func (v Value) GoString() string { return fmt.Sprintf("Value{%s %q}", v.Kind, v.ToString()) }
