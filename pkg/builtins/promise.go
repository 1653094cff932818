package builtins

import (
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerPromise installs `Promise` as a native Class whose constructor
// calls the executor synchronously with resolve/reject callbacks, plus the
// static `resolve`/`reject` helpers (spec.md §6: "Promise (with a
// constructor(executor) and a static resolve(value))").
func registerPromise(v *vm.VM) {
	cls := value.NewClass("Promise", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		p := &value.Promise{State: value.Pending}
		executor := argAt(args, 0)
		if executor.IsCallable() {
			resolve := value.FromNative(&value.NativeFunction{Name: "resolve", Fn: func(_ value.Value, a []value.Value) (value.Value, error) {
				v.Settle(p, argAt(a, 0), false)
				return value.Undefined, nil
			}})
			reject := value.FromNative(&value.NativeFunction{Name: "reject", Fn: func(_ value.Value, a []value.Value) (value.Value, error) {
				v.Settle(p, argAt(a, 0), true)
				return value.Undefined, nil
			}})
			if _, err := v.Call(executor, []value.Value{resolve, reject}); err != nil {
				v.Settle(p, errValue(err), true)
			}
		}
		return value.FromPromise(p)
	}
	cls.StaticValues["resolve"] = value.FromNative(&value.NativeFunction{Name: "resolve", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		a := argAt(args, 0)
		if a.Kind == value.PROMISE {
			return a, nil
		}
		p := &value.Promise{State: value.Fulfilled, Value: a}
		return value.FromPromise(p), nil
	}})
	cls.StaticValues["reject"] = value.FromNative(&value.NativeFunction{Name: "reject", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		p := &value.Promise{State: value.Rejected, Value: argAt(args, 0)}
		return value.FromPromise(p), nil
	}})
	for name := range cls.StaticValues {
		cls.StaticConst[name] = true
	}
	v.Globals().Create("Promise", value.FromClass(cls), value.PropConst)
}

func errValue(err error) value.Value {
	if v, ok := vm.ThrownValue(err); ok {
		return v
	}
	return value.String(err.Error())
}
