package builtins

import (
	"github.com/dlclark/regexp2"

	"github.com/ardan-lang/ardan/pkg/value"
	"github.com/ardan-lang/ardan/pkg/vm"
)

// regexpOptions maps ECMAScript-style flags (i/m/s) to regexp2 options; g
// only sets the instance's `global` property and y is ignored. regexp2, not stdlib
// regexp, backs RegExp here because it targets ECMAScript regex semantics
// (lookaround, backreferences) the way nooga-paserati's own regex engine
// does (SPEC_FULL.md §B dependency-wiring table).
func regexpOptions(flags string) regexp2.RegexOptions {
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		}
	}
	return opts
}

// regexpObject holds the compiled regexp2.Regexp that a RegExp instance's
// methods close over, rather than re-parsing source/flags on every call;
// the instance's Object.Class is regexpClass.
type regexpObject struct {
	re     *regexp2.Regexp
	source string
	flags  string
}

var regexpClass = value.NewClass("RegExp", nil)

// newRegExpValue compiles source/flags and wraps the result as an ardan
// Object exposing test/exec/toString (plus replaceWith), the shape
// String.prototype.match/replace recognize as "a RegExp host object"
// (SPEC_FULL.md §B).
func newRegExpValue(source, flags string) (value.Value, error) {
	re, err := regexp2.Compile(source, regexpOptions(flags))
	if err != nil {
		return value.Undefined, throwNamed("SyntaxError", "invalid regular expression: "+err.Error())
	}
	r := &regexpObject{re: re, source: source, flags: flags}

	obj := value.NewObject()
	obj.Class = regexpClass
	obj.SetOwn("source", constProp(value.String(source)))
	obj.SetOwn("flags", constProp(value.String(flags)))
	obj.SetOwn("global", constProp(value.Boolean(containsByte(flags, 'g'))))
	obj.SetOwn("test", nativeProp("test", func(_ value.Value, args []value.Value) (value.Value, error) {
		ok, err := r.re.MatchString(argAt(args, 0).ToString())
		return value.Boolean(err == nil && ok), nil
	}))
	obj.SetOwn("exec", nativeProp("exec", func(_ value.Value, args []value.Value) (value.Value, error) {
		m, err := r.re.FindStringMatch(argAt(args, 0).ToString())
		if err != nil || m == nil {
			return value.Null, nil
		}
		return matchToArray(m), nil
	}))
	obj.SetOwn("toString", nativeProp("toString", func(_ value.Value, args []value.Value) (value.Value, error) {
		return value.String("/" + source + "/" + flags), nil
	}))
	// replaceWith backs String.prototype.replace/replaceAll's regex path
	// (pkg/vm/prototypes.go duck-types this name to avoid a vm<->builtins
	// import cycle): args are (subject, replacement, all bool).
	obj.SetOwn("replaceWith", nativeProp("replaceWith", func(_ value.Value, args []value.Value) (value.Value, error) {
		subject := argAt(args, 0).ToString()
		repl := argAt(args, 1).ToString()
		count := 1
		if len(args) > 2 && args[2].Truthy() {
			count = -1
		}
		out, err := r.re.Replace(subject, repl, -1, count)
		if err != nil {
			return value.String(subject), nil
		}
		return value.String(out), nil
	}))
	return value.FromObject(obj), nil
}

func containsByte(s string, b byte) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return true
		}
	}
	return false
}

// matchToArray renders a regexp2 Match as [fullMatch, group1, group2, ...],
// the array shape RegExp.prototype.exec returns.
func matchToArray(m *regexp2.Match) value.Value {
	groups := m.Groups()
	elems := make([]value.Value, len(groups))
	for i, g := range groups {
		if len(g.Captures) == 0 {
			elems[i] = value.Undefined
			continue
		}
		elems[i] = value.String(g.String())
	}
	return value.FromArray(value.NewArray(elems))
}

// registerRegExp installs the `RegExp` constructor (spec.md/SPEC_FULL.md
// §B: regexp2-backed pattern matching exposed to ardan scripts).
func registerRegExp(v *vm.VM) {
	cls := value.NewClass("RegExp", nil)
	cls.Native = true
	cls.NativeConstruct = func(args []value.Value) value.Value {
		source := argAt(args, 0).ToString()
		flags := ""
		if len(args) > 1 {
			flags = args[1].ToString()
		}
		obj, err := newRegExpValue(source, flags)
		if err != nil {
			return value.Undefined
		}
		return obj
	}
	v.Globals().Create("RegExp", value.FromClass(cls), value.PropConst)
}
