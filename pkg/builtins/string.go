package builtins

import (
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerString installs the `String` constructor as a native Class
// (spec.md §6): `String(x)` coerces x to its string form the way the rest
// of ardan's value model stringifies (value.Value.ToString).
func registerString(v *vm.VM) {
	cls := value.NewClass("String", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		return value.String(argAt(args, 0).ToString())
	}
	cls.StaticValues["fromCharCode"] = value.FromNative(&value.NativeFunction{Name: "fromCharCode", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		rs := make([]rune, len(args))
		for i, a := range args {
			rs[i] = rune(int(a.ToNumber()))
		}
		return value.String(string(rs)), nil
	}})
	cls.StaticConst["fromCharCode"] = true
	v.Globals().Create("String", value.FromClass(cls), value.PropConst)
}
