package builtins

import (
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerArray installs the `Array` constructor as a native Class
// (spec.md §6 "Array ... callable constructor"): `new Array(n)` builds an
// array of length n filled with undefined, `new Array(a, b, c)` builds an
// array holding those elements verbatim, matching the single-numeric-arg
// special case ECMAScript's Array constructor is known for.
func registerArray(v *vm.VM) {
	cls := value.NewClass("Array", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		if len(args) == 1 && args[0].Kind == value.NUMBER {
			n := int(args[0].ToNumber())
			elems := make([]value.Value, n)
			for i := range elems {
				elems[i] = value.Undefined
			}
			return value.FromArray(value.NewArray(elems))
		}
		elems := make([]value.Value, len(args))
		copy(elems, args)
		return value.FromArray(value.NewArray(elems))
	}
	cls.StaticValues["isArray"] = value.FromNative(&value.NativeFunction{Name: "isArray", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.Boolean(argAt(args, 0).Kind == value.ARRAY), nil
	}})
	cls.StaticConst["isArray"] = true
	v.Globals().Create("Array", value.FromClass(cls), value.PropConst)
}
