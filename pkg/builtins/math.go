package builtins

import (
	"math"
	"math/rand"

	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerMath installs the `Math` object with the fields and methods
// spec.md §6 names as a minimum (abs, pow, PI), rounded out with the rest
// of the ECMAScript-flavored Math surface SPEC_FULL.md §E carries forward
// unchanged from spec.md's scope.
func registerMath(v *vm.VM) {
	m := value.NewObject()
	m.SetOwn("PI", constProp(value.Number(math.Pi)))
	m.SetOwn("E", constProp(value.Number(math.E)))
	m.SetOwn("abs", unaryMath("abs", math.Abs))
	m.SetOwn("floor", unaryMath("floor", math.Floor))
	m.SetOwn("ceil", unaryMath("ceil", math.Ceil))
	m.SetOwn("round", unaryMath("round", math.Round))
	m.SetOwn("trunc", unaryMath("trunc", math.Trunc))
	m.SetOwn("sqrt", unaryMath("sqrt", math.Sqrt))
	m.SetOwn("sign", unaryMath("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		default:
			return f
		}
	}))
	m.SetOwn("pow", nativeProp("pow", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Number(math.Pow(argAt(args, 0).ToNumber(), argAt(args, 1).ToNumber())), nil
	}))
	m.SetOwn("max", nativeProp("max", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Number(foldNumbers(args, math.Inf(-1), math.Max)), nil
	}))
	m.SetOwn("min", nativeProp("min", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Number(foldNumbers(args, math.Inf(1), math.Min)), nil
	}))
	m.SetOwn("random", nativeProp("random", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Number(rand.Float64()), nil
	}))
	v.Globals().Create("Math", value.FromObject(m), value.PropConst)
}

func unaryMath(name string, fn func(float64) float64) *value.Property {
	return nativeProp(name, func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Number(fn(argAt(args, 0).ToNumber())), nil
	})
}

func constProp(v value.Value) *value.Property {
	return &value.Property{Value: v, Kind: value.PropConst, Visibility: value.Public, Enumerable: true}
}

func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

func foldNumbers(args []value.Value, seed float64, fold func(a, b float64) float64) float64 {
	acc := seed
	for _, a := range args {
		acc = fold(acc, a.ToNumber())
	}
	return acc
}
