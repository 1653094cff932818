package vm

import (
	"fmt"

	"github.com/ardan-lang/ardan/pkg/errors"
	"github.com/ardan-lang/ardan/pkg/value"
)

// thrown wraps an ardan-level Value escaping the current frame as a Go
// error so it can ride the ordinary error-return path up through nested
// callClosure/callValue calls until some enclosing try/catch claims it
// (spec.md §4.4 "Exceptions": "unwinds frames until a handler claims it or
// the program terminates").
type thrown struct{ Val value.Value }

func (t *thrown) Error() string { return t.Val.ToString() }

func throwValue(v value.Value) error { return &thrown{Val: v} }

// ThrowValue is the exported form of throwValue, for builtins (outside
// this package) that need to raise an ardan-catchable exception from a
// NativeFunction body the same way an internal runtime fault does.
func ThrowValue(v value.Value) error { return throwValue(v) }

// newError builds a plain {name, message} object, the shape every
// internally-raised runtime fault takes so user code can catch and inspect
// it like any other thrown value (spec.md §7 "Runtime (dynamic)").
func newError(name, format string, args ...interface{}) value.Value {
	obj := value.NewObject()
	obj.SetOwn("name", &value.Property{Value: value.String(name), Kind: value.PropVar, Visibility: value.Public, Enumerable: true})
	obj.SetOwn("message", &value.Property{Value: value.String(fmt.Sprintf(format, args...)), Kind: value.PropVar, Visibility: value.Public, Enumerable: true})
	return value.FromObject(obj)
}

func throwErrorf(name, format string, args ...interface{}) error {
	return throwValue(newError(name, format, args...))
}

// asThrownError converts an escaped thrown value into the
// pkg/errors.PaseratiError the CLI/REPL host reports (spec.md §7 "Thrown
// by program").
func asThrownError(err error) error {
	if t, ok := err.(*thrown); ok {
		return &errors.ThrownError{Msg: t.Val.ToString()}
	}
	return err
}
