// Package builtins installs the host-provided globals spec.md §6 requires
// to be bound in the root environment before a module runs: console/print,
// Math, the Array/String/Boolean/Number constructors, Promise, fs, RegExp
// and the peripheral GUI stub.
package builtins

import "github.com/ardan-lang/ardan/pkg/vm"

// Register installs every host global into v's root environment. Call
// once, before vm.Run (spec.md §6 "Host-provided globals").
func Register(v *vm.VM) {
	registerConsole(v)
	registerMath(v)
	registerArray(v)
	registerString(v)
	registerBoolean(v)
	registerNumber(v)
	registerObjectGlobal(v)
	registerPromise(v)
	registerFS(v)
	registerRegExp(v)
	registerGUI(v)
	registerErrors(v)
}
