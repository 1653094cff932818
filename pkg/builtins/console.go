package builtins

import (
	"fmt"
	"os"
	"strings"

	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerConsole installs `console.{log,error,warn,info}` and a bare
// `print`, both variadic and space-joining their arguments the way
// Node's console does (spec.md §6: "console.log / print (variadic,
// returns undefined)").
func registerConsole(v *vm.VM) {
	console := value.NewObject()
	console.SetOwn("log", nativeProp("log", consoleWrite(os.Stdout)))
	console.SetOwn("info", nativeProp("info", consoleWrite(os.Stdout)))
	console.SetOwn("error", nativeProp("error", consoleWrite(os.Stderr)))
	console.SetOwn("warn", nativeProp("warn", consoleWrite(os.Stderr)))
	v.Globals().Create("console", value.FromObject(console), value.PropConst)
	v.Globals().Create("print", value.FromNative(&value.NativeFunction{Name: "print", Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
		fmt.Fprintln(os.Stdout, joinArgs(args))
		return value.Undefined, nil
	}}), value.PropConst)
}

func consoleWrite(w *os.File) func(value.Value, []value.Value) (value.Value, error) {
	return func(_ value.Value, args []value.Value) (value.Value, error) {
		fmt.Fprintln(w, joinArgs(args))
		return value.Undefined, nil
	}
}

func joinArgs(args []value.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.ToString()
	}
	return strings.Join(parts, " ")
}

func nativeProp(name string, fn func(value.Value, []value.Value) (value.Value, error)) *value.Property {
	return &value.Property{
		Value:      value.FromNative(&value.NativeFunction{Name: name, Fn: fn}),
		Kind:       value.PropConst,
		Visibility: value.Public,
		Enumerable: true,
	}
}
