package vm

import (
	"strconv"

	"github.com/ardan-lang/ardan/pkg/value"
)

// createInstance builds one Object "shadow" per class level in the
// superclass chain, most-derived first, linked via Parent (spec.md §3
// "Object": "Parent ... superclass instance shadow"). Each shadow's Class
// field records which class level owns its properties, which is what lets
// getProperty/setProperty enforce visibility against the right owner
// (spec.md §4.5).
func (vm *VM) createInstance(classVal value.Value) (value.Value, error) {
	cls := classVal.AsClass()
	if cls == nil {
		return value.Undefined, throwErrorf("TypeError", "%s is not a constructor", classVal.TypeOf())
	}
	if cls.Native {
		// Native construction needs the call arguments, which are only
		// available once InvokeConstructor runs; stash the class itself in
		// the instance register as a marker for that step to recognize.
		return classVal, nil
	}

	var top, prev *value.Object
	for cur := cls; cur != nil; cur = cur.Super {
		shadow := value.NewObject()
		shadow.Class = cur
		for _, ft := range cur.ProtoFields {
			v, err := vm.instantiateField(ft, shadow)
			if err != nil {
				return value.Undefined, err
			}
			shadow.SetOwn(ft.Name, &value.Property{
				Value: v, Kind: propKindOf(ft.Const), Visibility: ft.Visibility, Enumerable: ft.Visibility == value.Public,
			})
		}
		for name, mt := range cur.Methods {
			shadow.SetOwn(name, methodProperty(mt, shadow))
		}
		if prev == nil {
			top = shadow
		} else {
			prev.Parent = shadow
		}
		prev = shadow
	}
	return value.FromObject(top), nil
}

// instantiateField realizes one FieldTemplate's value for this particular
// instance (see value.FieldTemplate doc for the three strategies).
func (vm *VM) instantiateField(ft *value.FieldTemplate, instance *value.Object) (value.Value, error) {
	if ft.Init.Kind != value.CLOSURE {
		return ft.Init, nil
	}
	cl := ft.Init.AsClosure()
	if ft.Invoke {
		return vm.invokeClosure(cl, nil)
	}
	clone := *cl
	this := value.FromObject(instance)
	clone.This = &this
	return value.FromClosure(&clone), nil
}

func propKindOf(isConst bool) value.PropertyKind {
	if isConst {
		return value.PropConst
	}
	return value.PropVar
}

// methodProperty binds mt.Fn to `instance` (spec.md §4.2 "Methods ...
// installed as closures whose this is rebound on instance construction"),
// wiring accessor kind from the closure's OpMarkAccessor tag.
func methodProperty(mt *value.MethodTemplate, instance *value.Object) *value.Property {
	clone := *mt.Fn
	this := value.FromObject(instance)
	clone.This = &this
	clone.HomeClass = mt.Fn.HomeClass
	prop := &value.Property{Kind: value.PropVar, Visibility: mt.Visibility, Enumerable: mt.Visibility == value.Public}
	switch {
	case clone.IsGetter:
		prop.Getter = &clone
	case clone.IsSetter:
		prop.Setter = &clone
	default:
		prop.Value = value.FromClosure(&clone)
	}
	return prop
}

// invokeConstructor runs the class's own "constructor" method (if any)
// bound to instVal, discarding its return value (the result of `new` is
// always the instance, never whatever the constructor body returns), or
// dispatches a native class's NativeConstruct (spec.md §4.4 "Native-class
// invocation"). Its own return value replaces the instance register, which
// is how a native constructor's built value reaches the `new` expression
// despite CreateInstance having nothing to build yet at that point.
func (vm *VM) invokeConstructor(instVal value.Value, args []value.Value) (value.Value, error) {
	switch instVal.Kind {
	case value.CLASS:
		cls := instVal.AsClass()
		if cls.NativeConstruct == nil {
			return value.Undefined, nil
		}
		return cls.NativeConstruct(args), nil
	case value.OBJECT:
		obj := instVal.AsObject()
		if ctor, ok := obj.GetOwn("constructor"); ok && ctor.Value.Kind == value.CLOSURE {
			if _, err := vm.invokeClosure(ctor.Value.AsClosure(), args); err != nil {
				return value.Undefined, err
			}
		}
		return instVal, nil
	default:
		return instVal, nil
	}
}

// checkVisibility enforces spec.md §4.5's visibility rule for an instance
// property access. ownerObj is the specific shadow Object GetOwn found the
// property on; accessorObj is the Object bound as `this` in the frame
// currently executing (nil outside any method). Private requires exact
// object identity, not merely same-class membership: the ground-truth
// original (ObjectModel.cpp:177-182) compares accessor.get() != obj.get(),
// so one instance of a class cannot reach into a private field of a
// different instance of the same class through a method.
func checkVisibility(name string, vis value.Visibility, owner *value.Class, ownerObj *value.Object, accessorClass *value.Class, accessorObj *value.Object) error {
	switch vis {
	case value.Protected:
		// ObjectModel.cpp:184-196 / spec.md §4.5: only the owner class or a
		// descendant of it may reach a protected member, never the reverse.
		if accessorClass != nil && accessorClass.IsDescendantOf(owner) {
			return nil
		}
		return throwErrorf("TypeError", "'%s' is protected and only accessible within class '%s' and its subclasses", name, owner.Name)
	case value.Private:
		if accessorObj != nil && accessorObj == ownerObj {
			return nil
		}
		return throwErrorf("TypeError", "'%s' is private and only accessible within class '%s'", name, owner.Name)
	default:
		return nil
	}
}

// checkStaticVisibility is checkVisibility's class-level counterpart: a
// static member has no owning instance, so private is enforced by class
// identity (the currently executing method's home class) rather than
// object identity.
func checkStaticVisibility(name string, vis value.Visibility, owner *value.Class, accessorClass *value.Class) error {
	switch vis {
	case value.Protected:
		if accessorClass != nil && accessorClass.IsDescendantOf(owner) {
			return nil
		}
		return throwErrorf("TypeError", "'%s' is protected and only accessible within class '%s' and its subclasses", name, owner.Name)
	case value.Private:
		if accessorClass == owner {
			return nil
		}
		return throwErrorf("TypeError", "'%s' is private and only accessible within class '%s'", name, owner.Name)
	default:
		return nil
	}
}

// getProperty resolves `obj.name` for an instance (OBJECT) or a class's own
// static table (CLASS), walking the superclass chain and enforcing
// visibility against accessorClass (the method currently executing, or nil
// at the top level) (spec.md §4.5).
func (vm *VM) getProperty(obj value.Value, name string, accessorClass *value.Class, accessorObj *value.Object) (value.Value, error) {
	switch obj.Kind {
	case value.OBJECT:
		for cur := obj.AsObject(); cur != nil; cur = cur.Parent {
			if prop, ok := cur.GetOwn(name); ok {
				if err := checkVisibility(name, prop.Visibility, cur.Class, cur, accessorClass, accessorObj); err != nil {
					return value.Undefined, err
				}
				if prop.Getter != nil {
					return vm.invokeClosure(prop.Getter, nil)
				}
				return prop.Value, nil
			}
		}
		return value.Undefined, nil
	case value.CLASS:
		for cur := obj.AsClass(); cur != nil; cur = cur.Super {
			if v, ok := cur.StaticValues[name]; ok {
				if err := checkStaticVisibility(name, cur.StaticVisibility[name], cur, accessorClass); err != nil {
					return value.Undefined, err
				}
				return v, nil
			}
			if mt, ok := cur.StaticMethods[name]; ok {
				if err := checkStaticVisibility(name, mt.Visibility, cur, accessorClass); err != nil {
					return value.Undefined, err
				}
				return value.FromClosure(mt.Fn), nil
			}
		}
		return value.Undefined, nil
	case value.ARRAY:
		return vm.getArrayProperty(obj.AsArray(), name)
	case value.STRING:
		return vm.getStringProperty(obj.Str, name)
	default:
		return value.Undefined, nil
	}
}

// getArrayProperty and getStringProperty live in prototypes.go, alongside
// the Array.prototype/String.prototype method tables they share a name
// with.

func arrayIndex(name string) (int, bool) {
	n, err := strconv.Atoi(name)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// setProperty writes `obj.name = val`, refusing to rewrite a const field
// once constructed and creating a new public/var property when none of the
// chain already owns name (spec.md §3 Object invariant "const cannot be
// rebound").
func (vm *VM) setProperty(obj value.Value, name string, val value.Value, accessorClass *value.Class, accessorObj *value.Object) error {
	switch obj.Kind {
	case value.OBJECT:
		o := obj.AsObject()
		for cur := o; cur != nil; cur = cur.Parent {
			if prop, ok := cur.GetOwn(name); ok {
				if err := checkVisibility(name, prop.Visibility, cur.Class, cur, accessorClass, accessorObj); err != nil {
					return err
				}
				if prop.Setter != nil {
					_, err := vm.invokeClosure(prop.Setter, []value.Value{val})
					return err
				}
				if prop.Kind == value.PropConst {
					return throwErrorf("TypeError", "Assignment to constant field '%s'", name)
				}
				prop.Value = val
				return nil
			}
		}
		o.SetOwn(name, &value.Property{Value: val, Kind: value.PropVar, Visibility: value.Public, Enumerable: true})
		return nil
	case value.CLASS:
		cls := obj.AsClass()
		if cls.StaticConst[name] {
			return throwErrorf("TypeError", "Assignment to constant field '%s'", name)
		}
		if vis, ok := cls.StaticVisibility[name]; ok {
			if err := checkStaticVisibility(name, vis, cls, accessorClass); err != nil {
				return err
			}
		}
		cls.StaticValues[name] = val
		return nil
	case value.ARRAY:
		arr := obj.AsArray()
		if name == "length" {
			resizeArray(arr, int(val.ToNumber()))
			return nil
		}
		if idx, ok := arrayIndex(name); ok {
			growArray(arr, idx)
			arr.Elements[idx] = val
			return nil
		}
		if arr.Props == nil {
			arr.Props = make(map[string]*value.Property)
		}
		arr.Props[name] = &value.Property{Value: val, Kind: value.PropVar, Visibility: value.Public, Enumerable: true}
		return nil
	default:
		return throwErrorf("TypeError", "cannot set property '%s' on a %s", name, obj.TypeOf())
	}
}

func growArray(arr *value.Array, idx int) {
	for len(arr.Elements) <= idx {
		arr.Elements = append(arr.Elements, value.Undefined)
	}
}

func resizeArray(arr *value.Array, n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(arr.Elements) {
		arr.Elements = arr.Elements[:n]
		return
	}
	growArray(arr, n-1)
}

// enumKeys returns own enumerable keys as an Array of strings, backing
// for-in and the EnumKeys opcode (spec.md §4.2 "for-in").
func (vm *VM) enumKeys(obj value.Value) *value.Array {
	var names []string
	switch obj.Kind {
	case value.OBJECT:
		for cur := obj.AsObject(); cur != nil; cur = cur.Parent {
			names = append(names, cur.EnumerableKeys()...)
		}
	case value.ARRAY:
		for i := range obj.AsArray().Elements {
			names = append(names, strconv.Itoa(i))
		}
	}
	elems := make([]value.Value, len(names))
	for i, n := range names {
		elems[i] = value.String(n)
	}
	return value.NewArray(elems)
}

// objectLength implements GetObjectLength, used generically by for-of and
// spread over arrays, the Arguments pseudo-array, and strings.
func (vm *VM) objectLength(v value.Value) float64 {
	switch v.Kind {
	case value.ARRAY:
		return float64(len(v.AsArray().Elements))
	case value.STRING:
		return float64(len([]rune(v.Str)))
	default:
		return 0
	}
}

// sliceArray implements the rest-parameter Slice opcode: arr[start:].
func sliceArray(arr value.Value, start int) value.Value {
	a := arr.AsArray()
	if start < 0 {
		start = 0
	}
	if start >= len(a.Elements) {
		return value.FromArray(value.NewArray(nil))
	}
	out := make([]value.Value, len(a.Elements)-start)
	copy(out, a.Elements[start:])
	return value.FromArray(value.NewArray(out))
}
