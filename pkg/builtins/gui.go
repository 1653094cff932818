package builtins

import (
	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerGUI installs no-op Window/View/Button constructors so host
// scripts written against the peripheral GUI surface don't crash for lack
// of the global, without actually implementing any rendering
// (SPEC_FULL.md §C "GUI/File shims").
func registerGUI(v *vm.VM) {
	for _, name := range []string{"Window", "View", "Button"} {
		name := name
		cls := value.NewClass(name, nil)
		cls.Native = true
		cls.NativeConstruct = func(args []value.Value) value.Value {
			obj := value.NewObject()
			obj.Class = cls
			obj.SetOwn("show", nativeProp("show", func(_ value.Value, _ []value.Value) (value.Value, error) {
				return value.Undefined, nil
			}))
			return value.FromObject(obj)
		}
		v.Globals().Create(name, value.FromClass(cls), value.PropConst)
	}
}
