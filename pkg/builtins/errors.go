package builtins

import (
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerErrors installs the Error/TypeError/RangeError/ReferenceError/
// SyntaxError globals as callable constructors producing the same
// {name, message} shape the VM's own internal faults throw (spec.md §7
// "Runtime (dynamic)"), so `new TypeError("...")` and an internally-raised
// TypeError are indistinguishable to a catch block.
func registerErrors(v *vm.VM) {
	for _, name := range []string{"Error", "TypeError", "RangeError", "ReferenceError", "SyntaxError", "FileSystemError", "InternalError"} {
		name := name
		cls := value.NewClass(name, nil)
		cls.Native = true
		cls.NativeConstruct = func(args []value.Value) value.Value {
			return newErrorObject(name, argAt(args, 0).ToString())
		}
		v.Globals().Create(name, value.FromClass(cls), value.PropConst)
	}
}

func newErrorObject(name, message string) value.Value {
	obj := value.NewObject()
	obj.SetOwn("name", &value.Property{Value: value.String(name), Kind: value.PropVar, Visibility: value.Public, Enumerable: true})
	obj.SetOwn("message", &value.Property{Value: value.String(message), Kind: value.PropVar, Visibility: value.Public, Enumerable: true})
	return value.FromObject(obj)
}

func throwNamed(name, message string) error {
	return vm.ThrowValue(newErrorObject(name, message))
}
