package builtins

import (
	"math"
	"strconv"

	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerBoolean installs the `Boolean` constructor as a native Class
// (spec.md §6), coercing via the same truthiness rules the VM uses for
// `if`/`while`/the `!` operator (value.Value.Truthy).
func registerBoolean(v *vm.VM) {
	cls := value.NewClass("Boolean", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		return value.Boolean(argAt(args, 0).Truthy())
	}
	v.Globals().Create("Boolean", value.FromClass(cls), value.PropConst)
}

// registerNumber installs the `Number` constructor as a native Class
// (spec.md §6), plus the handful of static constants/predicates scripts
// commonly rely on (isInteger, isFinite, isNaN, parseFloat, parseInt).
func registerNumber(v *vm.VM) {
	cls := value.NewClass("Number", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		if len(args) == 0 {
			return value.Number(0)
		}
		return value.Number(args[0].ToNumber())
	}
	cls.StaticValues["MAX_SAFE_INTEGER"] = value.Number(9007199254740991)
	cls.StaticValues["MIN_SAFE_INTEGER"] = value.Number(-9007199254740991)
	cls.StaticValues["EPSILON"] = value.Number(2.220446049250313e-16)
	cls.StaticValues["POSITIVE_INFINITY"] = value.Number(math.Inf(1))
	cls.StaticValues["NEGATIVE_INFINITY"] = value.Number(math.Inf(-1))
	cls.StaticValues["NaN"] = value.Number(math.NaN())
	cls.StaticValues["isInteger"] = value.FromNative(&value.NativeFunction{Name: "isInteger", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		a := argAt(args, 0)
		if a.Kind != value.NUMBER {
			return value.Boolean(false), nil
		}
		return value.Boolean(a.Num == math.Trunc(a.Num) && !math.IsInf(a.Num, 0)), nil
	}})
	cls.StaticValues["isFinite"] = value.FromNative(&value.NativeFunction{Name: "isFinite", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		a := argAt(args, 0)
		return value.Boolean(a.Kind == value.NUMBER && !math.IsInf(a.Num, 0) && !math.IsNaN(a.Num)), nil
	}})
	cls.StaticValues["isNaN"] = value.FromNative(&value.NativeFunction{Name: "isNaN", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		a := argAt(args, 0)
		return value.Boolean(a.Kind == value.NUMBER && math.IsNaN(a.Num)), nil
	}})
	cls.StaticValues["parseFloat"] = value.FromNative(&value.NativeFunction{Name: "parseFloat", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		f, err := strconv.ParseFloat(argAt(args, 0).ToString(), 64)
		if err != nil {
			return value.Number(math.NaN()), nil
		}
		return value.Number(f), nil
	}})
	cls.StaticValues["parseInt"] = value.FromNative(&value.NativeFunction{Name: "parseInt", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		n, err := strconv.ParseInt(argAt(args, 0).ToString(), 10, 64)
		if err != nil {
			return value.Number(math.NaN()), nil
		}
		return value.Number(float64(n)), nil
	}})
	for name := range cls.StaticValues {
		cls.StaticConst[name] = true
	}
	v.Globals().Create("Number", value.FromClass(cls), value.PropConst)
}
