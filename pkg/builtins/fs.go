package builtins

import (
	"os"

	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// registerFS installs the `fs` object with readFileSync/writeFileSync
// (spec.md §6 "file I/O via fs.readFileSync / fs.writeFileSync"), throwing
// an ardan-catchable Error on failure rather than returning a Go-style
// (value, err) pair, matching how every other native call in this VM
// surfaces failure.
func registerFS(v *vm.VM) {
	fs := value.NewObject()
	fs.SetOwn("readFileSync", nativeProp("readFileSync", func(_ value.Value, args []value.Value) (value.Value, error) {
		path := argAt(args, 0).ToString()
		data, err := os.ReadFile(path)
		if err != nil {
			return value.Undefined, fsError(path, err)
		}
		return value.String(string(data)), nil
	}))
	fs.SetOwn("writeFileSync", nativeProp("writeFileSync", func(_ value.Value, args []value.Value) (value.Value, error) {
		path := argAt(args, 0).ToString()
		content := argAt(args, 1).ToString()
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return value.Undefined, fsError(path, err)
		}
		return value.Undefined, nil
	}))
	fs.SetOwn("existsSync", nativeProp("existsSync", func(_ value.Value, args []value.Value) (value.Value, error) {
		_, err := os.Stat(argAt(args, 0).ToString())
		return value.Boolean(err == nil), nil
	}))
	v.Globals().Create("fs", value.FromObject(fs), value.PropConst)
}

func fsError(path string, err error) error {
	return throwNamed("FileSystemError", path+": "+err.Error())
}
