package builtins

import (
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerObjectGlobal installs a minimal `Object` global: a native
// constructor plus the keys/values/entries/assign statics scripts commonly
// reach for when working with plain object literals. Not named by spec.md
// §6, but object literals (spec.md §3 "Object") have no way to enumerate
// themselves without it, so it rounds out the Array/String/Boolean/Number
// family rather than leaving object introspection spec-unreachable.
func registerObjectGlobal(v *vm.VM) {
	cls := value.NewClass("Object", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		if len(args) == 1 && args[0].Kind == value.OBJECT {
			return args[0]
		}
		return value.FromObject(value.NewObject())
	}
	cls.StaticValues["keys"] = value.FromNative(&value.NativeFunction{Name: "keys", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		return objectKeysValues(argAt(args, 0), false, false), nil
	}})
	cls.StaticValues["values"] = value.FromNative(&value.NativeFunction{Name: "values", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		return objectKeysValues(argAt(args, 0), true, false), nil
	}})
	cls.StaticValues["entries"] = value.FromNative(&value.NativeFunction{Name: "entries", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		return objectKeysValues(argAt(args, 0), false, true), nil
	}})
	cls.StaticValues["assign"] = value.FromNative(&value.NativeFunction{Name: "assign", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		if len(args) == 0 || args[0].Kind != value.OBJECT {
			return value.Undefined, nil
		}
		target := args[0].AsObject()
		for _, src := range args[1:] {
			if src.Kind != value.OBJECT {
				continue
			}
			so := src.AsObject()
			for _, k := range so.EnumerableKeys() {
				p, _ := so.GetOwn(k)
				target.SetOwn(k, &value.Property{Value: p.Value, Kind: value.PropVar, Visibility: value.Public, Enumerable: true})
			}
		}
		return args[0], nil
	}})
	for name := range cls.StaticValues {
		cls.StaticConst[name] = true
	}
	v.Globals().Create("Object", value.FromClass(cls), value.PropConst)
}

func objectKeysValues(v value.Value, wantValues, wantEntries bool) value.Value {
	if v.Kind != value.OBJECT {
		return value.FromArray(value.NewArray(nil))
	}
	o := v.AsObject()
	keys := o.EnumerableKeys()
	out := make([]value.Value, len(keys))
	for i, k := range keys {
		p, _ := o.GetOwn(k)
		switch {
		case wantEntries:
			out[i] = value.FromArray(value.NewArray([]value.Value{value.String(k), p.Value}))
		case wantValues:
			out[i] = p.Value
		default:
			out[i] = value.String(k)
		}
	}
	return value.FromArray(value.NewArray(out))
}
