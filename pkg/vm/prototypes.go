package vm

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ardan-lang/ardan/pkg/value"
)

// arrayMethod and stringMethod bind a receiver once the property is read,
// so `a.push` yields a callable NativeFunction closed over `a` the same
// way a bound method on a user object would be (spec.md §4.5 "Array" /
// "String": "standard ECMAScript-flavored prototype methods").
type arrayMethod func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error)

var arrayMethods = map[string]arrayMethod{
	"push": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		arr.Elements = append(arr.Elements, args...)
		return value.Number(float64(len(arr.Elements))), nil
	},
	"pop": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		if len(arr.Elements) == 0 {
			return value.Undefined, nil
		}
		last := arr.Elements[len(arr.Elements)-1]
		arr.Elements = arr.Elements[:len(arr.Elements)-1]
		return last, nil
	},
	"shift": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		if len(arr.Elements) == 0 {
			return value.Undefined, nil
		}
		first := arr.Elements[0]
		arr.Elements = arr.Elements[1:]
		return first, nil
	},
	"unshift": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		arr.Elements = append(append([]value.Value{}, args...), arr.Elements...)
		return value.Number(float64(len(arr.Elements))), nil
	},
	"slice": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		start, end := sliceBounds(len(arr.Elements), args)
		out := make([]value.Value, 0, end-start)
		if start < end {
			out = append(out, arr.Elements[start:end]...)
		}
		return value.FromArray(value.NewArray(out)), nil
	},
	"splice": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		start := clampIndex(argAt(args, 0).ToNumber(), len(arr.Elements))
		count := len(arr.Elements) - start
		if len(args) > 1 {
			count = int(args[1].ToNumber())
		}
		if count < 0 {
			count = 0
		}
		if start+count > len(arr.Elements) {
			count = len(arr.Elements) - start
		}
		removed := append([]value.Value{}, arr.Elements[start:start+count]...)
		inserted := args
		if len(args) > 2 {
			inserted = args[2:]
		} else {
			inserted = nil
		}
		tail := append([]value.Value{}, arr.Elements[start+count:]...)
		arr.Elements = append(append(arr.Elements[:start], inserted...), tail...)
		return value.FromArray(value.NewArray(removed)), nil
	},
	"concat": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		out := append([]value.Value{}, arr.Elements...)
		for _, a := range args {
			if a.Kind == value.ARRAY {
				out = append(out, a.AsArray().Elements...)
			} else {
				out = append(out, a)
			}
		}
		return value.FromArray(value.NewArray(out)), nil
	},
	"join": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		sep := ","
		if len(args) > 0 && args[0].Kind != value.UNDEFINED {
			sep = args[0].ToString()
		}
		parts := make([]string, len(arr.Elements))
		for i, e := range arr.Elements {
			if e.IsNullish() {
				parts[i] = ""
			} else {
				parts[i] = e.ToString()
			}
		}
		return value.String(strings.Join(parts, sep)), nil
	},
	"reverse": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		for i, j := 0, len(arr.Elements)-1; i < j; i, j = i+1, j-1 {
			arr.Elements[i], arr.Elements[j] = arr.Elements[j], arr.Elements[i]
		}
		return value.FromArray(arr), nil
	},
	"indexOf": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		target := argAt(args, 0)
		for i, e := range arr.Elements {
			if e.StrictEquals(target) {
				return value.Number(float64(i)), nil
			}
		}
		return value.Number(-1), nil
	},
	"includes": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		target := argAt(args, 0)
		for _, e := range arr.Elements {
			if e.StrictEquals(target) {
				return value.True, nil
			}
		}
		return value.False, nil
	},
	"map": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		out := make([]value.Value, len(arr.Elements))
		for i, e := range arr.Elements {
			r, err := vm.callValue(fn, []value.Value{e, value.Number(float64(i))})
			if err != nil {
				return value.Undefined, err
			}
			out[i] = r
		}
		return value.FromArray(value.NewArray(out)), nil
	},
	"filter": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		var out []value.Value
		for i, e := range arr.Elements {
			r, err := vm.callValue(fn, []value.Value{e, value.Number(float64(i))})
			if err != nil {
				return value.Undefined, err
			}
			if r.Truthy() {
				out = append(out, e)
			}
		}
		return value.FromArray(value.NewArray(out)), nil
	},
	"forEach": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		for i, e := range arr.Elements {
			if _, err := vm.callValue(fn, []value.Value{e, value.Number(float64(i))}); err != nil {
				return value.Undefined, err
			}
		}
		return value.Undefined, nil
	},
	"reduce": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		i := 0
		var acc value.Value
		if len(args) > 1 {
			acc = args[1]
		} else {
			if len(arr.Elements) == 0 {
				return value.Undefined, throwErrorf("TypeError", "Reduce of empty array with no initial value")
			}
			acc = arr.Elements[0]
			i = 1
		}
		for ; i < len(arr.Elements); i++ {
			r, err := vm.callValue(fn, []value.Value{acc, arr.Elements[i], value.Number(float64(i))})
			if err != nil {
				return value.Undefined, err
			}
			acc = r
		}
		return acc, nil
	},
	"find": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		for i, e := range arr.Elements {
			r, err := vm.callValue(fn, []value.Value{e, value.Number(float64(i))})
			if err != nil {
				return value.Undefined, err
			}
			if r.Truthy() {
				return e, nil
			}
		}
		return value.Undefined, nil
	},
	"some": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		for i, e := range arr.Elements {
			r, err := vm.callValue(fn, []value.Value{e, value.Number(float64(i))})
			if err != nil {
				return value.Undefined, err
			}
			if r.Truthy() {
				return value.True, nil
			}
		}
		return value.False, nil
	},
	"every": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		fn := argAt(args, 0)
		for i, e := range arr.Elements {
			r, err := vm.callValue(fn, []value.Value{e, value.Number(float64(i))})
			if err != nil {
				return value.Undefined, err
			}
			if !r.Truthy() {
				return value.False, nil
			}
		}
		return value.True, nil
	},
	"sort": func(vm *VM, arr *value.Array, args []value.Value) (value.Value, error) {
		cmp := argAt(args, 0)
		var sortErr error
		sort.SliceStable(arr.Elements, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			if cmp.Kind == value.UNDEFINED {
				return arr.Elements[i].ToString() < arr.Elements[j].ToString()
			}
			r, err := vm.callValue(cmp, []value.Value{arr.Elements[i], arr.Elements[j]})
			if err != nil {
				sortErr = err
				return false
			}
			return r.ToNumber() < 0
		})
		if sortErr != nil {
			return value.Undefined, sortErr
		}
		return value.FromArray(arr), nil
	},
}

func (vm *VM) getArrayProperty(arr *value.Array, name string) (value.Value, error) {
	if name == "length" {
		return value.Number(float64(len(arr.Elements))), nil
	}
	if idx, ok := arrayIndex(name); ok {
		if idx >= 0 && idx < len(arr.Elements) {
			return arr.Elements[idx], nil
		}
		return value.Undefined, nil
	}
	if arr.Props != nil {
		if p, ok := arr.Props[name]; ok {
			return p.Value, nil
		}
	}
	if m, ok := arrayMethods[name]; ok {
		return value.FromNative(&value.NativeFunction{Name: name, Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
			v, err := m(vm, arr, args)
			return v, err
		}}), nil
	}
	return value.Undefined, nil
}

type stringMethod func(vm *VM, s string, args []value.Value) (value.Value, error)

var stringMethods = map[string]stringMethod{
	"toUpperCase": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.String(strings.ToUpper(s)), nil
	},
	"toLowerCase": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.String(strings.ToLower(s)), nil
	},
	"trim": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.String(strings.TrimSpace(s)), nil
	},
	"charAt": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		r := []rune(s)
		i := int(argAt(args, 0).ToNumber())
		if i < 0 || i >= len(r) {
			return value.String(""), nil
		}
		return value.String(string(r[i])), nil
	},
	"indexOf": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.Number(float64(strings.Index(s, argAt(args, 0).ToString()))), nil
	},
	"includes": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.Boolean(strings.Contains(s, argAt(args, 0).ToString())), nil
	},
	"startsWith": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.Boolean(strings.HasPrefix(s, argAt(args, 0).ToString())), nil
	},
	"endsWith": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.Boolean(strings.HasSuffix(s, argAt(args, 0).ToString())), nil
	},
	"slice": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		r := []rune(s)
		start, end := sliceBounds(len(r), args)
		if start >= end {
			return value.String(""), nil
		}
		return value.String(string(r[start:end])), nil
	},
	"split": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		if len(args) == 0 || args[0].Kind == value.UNDEFINED {
			return value.FromArray(value.NewArray([]value.Value{value.String(s)})), nil
		}
		parts := strings.Split(s, args[0].ToString())
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.FromArray(value.NewArray(out)), nil
	},
	"repeat": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		n := int(argAt(args, 0).ToNumber())
		if n < 0 {
			return value.Undefined, throwErrorf("RangeError", "Invalid count value: %d", n)
		}
		return value.String(strings.Repeat(s, n)), nil
	},
	"replace": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		if repl, ok := regexReplacer(argAt(args, 0)); ok {
			return vm.callValue(repl, []value.Value{value.String(s), argAt(args, 1), value.Boolean(false)})
		}
		return value.String(strings.Replace(s, argAt(args, 0).ToString(), argAt(args, 1).ToString(), 1)), nil
	},
	"replaceAll": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		if repl, ok := regexReplacer(argAt(args, 0)); ok {
			return vm.callValue(repl, []value.Value{value.String(s), argAt(args, 1), value.Boolean(true)})
		}
		return value.String(strings.ReplaceAll(s, argAt(args, 0).ToString(), argAt(args, 1).ToString())), nil
	},
	"match": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		exec, ok := regexExecutor(argAt(args, 0))
		if !ok {
			if idx := strings.Index(s, argAt(args, 0).ToString()); idx >= 0 {
				return value.FromArray(value.NewArray([]value.Value{value.String(argAt(args, 0).ToString())})), nil
			}
			return value.Null, nil
		}
		return vm.callValue(exec, []value.Value{value.String(s)})
	},
	"concat": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		for _, a := range args {
			s += a.ToString()
		}
		return value.String(s), nil
	},
	"padStart": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.String(pad(s, args, true)), nil
	},
	"padEnd": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		return value.String(pad(s, args, false)), nil
	},
	"normalize": func(vm *VM, s string, args []value.Value) (value.Value, error) {
		form := norm.NFC
		switch argAt(args, 0).ToString() {
		case "NFD":
			form = norm.NFD
		case "NFKC":
			form = norm.NFKC
		case "NFKD":
			form = norm.NFKD
		}
		return value.String(form.String(s)), nil
	},
}

// regexExecutor/regexReplacer duck-type a RegExp host object (built by
// pkg/builtins, which this package can't import without a cycle) by its
// `exec`/`replaceWith` own properties, so String.prototype.match/replace
// can dispatch to it without either package naming the other's type
// (SPEC_FULL.md §B: String.prototype.match/replace accept a RegExp).
func regexExecutor(v value.Value) (value.Value, bool) {
	if v.Kind != value.OBJECT {
		return value.Undefined, false
	}
	prop, ok := v.AsObject().GetOwn("exec")
	if !ok || !prop.Value.IsCallable() {
		return value.Undefined, false
	}
	return prop.Value, true
}

func regexReplacer(v value.Value) (value.Value, bool) {
	if v.Kind != value.OBJECT {
		return value.Undefined, false
	}
	prop, ok := v.AsObject().GetOwn("replaceWith")
	if !ok || !prop.Value.IsCallable() {
		return value.Undefined, false
	}
	return prop.Value, true
}

func pad(s string, args []value.Value, start bool) string {
	target := int(argAt(args, 0).ToNumber())
	fill := " "
	if len(args) > 1 && args[1].Kind != value.UNDEFINED {
		fill = args[1].ToString()
	}
	r := []rune(s)
	if fill == "" || len(r) >= target {
		return s
	}
	need := target - len(r)
	fillRunes := []rune(strings.Repeat(fill, need/len([]rune(fill))+1))[:need]
	if start {
		return string(fillRunes) + s
	}
	return s + string(fillRunes)
}

func (vm *VM) getStringProperty(s string, name string) (value.Value, error) {
	if name == "length" {
		return value.Number(float64(len([]rune(s)))), nil
	}
	if idx, ok := arrayIndex(name); ok {
		r := []rune(s)
		if idx >= 0 && idx < len(r) {
			return value.String(string(r[idx])), nil
		}
		return value.Undefined, nil
	}
	if m, ok := stringMethods[name]; ok {
		return value.FromNative(&value.NativeFunction{Name: name, Fn: func(_ value.Value, args []value.Value) (value.Value, error) {
			v, err := m(vm, s, args)
			return v, err
		}}), nil
	}
	return value.Undefined, nil
}

func argAt(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}

func clampIndex(f float64, length int) int {
	i := int(f)
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

func sliceBounds(length int, args []value.Value) (int, int) {
	start := 0
	if len(args) > 0 && args[0].Kind != value.UNDEFINED {
		start = clampIndex(args[0].ToNumber(), length)
	}
	end := length
	if len(args) > 1 && args[1].Kind != value.UNDEFINED {
		end = clampIndex(args[1].ToNumber(), length)
	}
	return start, end
}
