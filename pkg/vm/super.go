package vm

import "github.com/ardan-lang/ardan/pkg/value"

// superShadow locates, within instance's Parent chain, the shadow Object
// one level above the class that owns the currently executing method
// (spec.md §4.5 "super"): methods are installed per class level, so
// `this.Class == home` identifies the level super.x must skip past.
func superShadow(instance *value.Object, home *value.Class) *value.Object {
	for cur := instance; cur != nil; cur = cur.Parent {
		if cur.Class == home {
			return cur.Parent
		}
	}
	return nil
}

// getSuperProperty resolves `super.name` from inside a method, searching
// from the superclass shadow onward and rebinding any found method
// closure's `this` back to the original, most-derived instance (spec.md
// §4.5: "super ... the method found is rebound to the current this, not
// the shadow it was found on").
func (vm *VM) getSuperProperty(frame *Frame, name string) (value.Value, error) {
	this := frame.thisValue()
	if this.Kind != value.OBJECT {
		return value.Undefined, throwErrorf("SyntaxError", "'super' used outside a method")
	}
	start := superShadow(this.AsObject(), frame.homeClass())
	for cur := start; cur != nil; cur = cur.Parent {
		if prop, ok := cur.GetOwn(name); ok {
			if prop.Getter != nil {
				g := *prop.Getter
				g.This = &this
				return vm.invokeClosure(&g, nil)
			}
			if prop.Value.Kind == value.CLOSURE {
				clone := *prop.Value.AsClosure()
				clone.This = &this
				return value.FromClosure(&clone), nil
			}
			return prop.Value, nil
		}
	}
	return value.Undefined, nil
}

// callSuperConstructor invokes the superclass's own constructor (if any)
// bound to the current this (spec.md §4.2 "Classes": bare `super(...)`
// calls the immediate superclass's constructor).
func (vm *VM) callSuperConstructor(frame *Frame, args []value.Value) (value.Value, error) {
	this := frame.thisValue()
	if this.Kind != value.OBJECT {
		return value.Undefined, throwErrorf("SyntaxError", "'super' used outside a constructor")
	}
	start := superShadow(this.AsObject(), frame.homeClass())
	for cur := start; cur != nil; cur = cur.Parent {
		if prop, ok := cur.GetOwn("constructor"); ok && prop.Value.Kind == value.CLOSURE {
			clone := *prop.Value.AsClosure()
			clone.This = &this
			return vm.invokeClosure(&clone, args)
		}
	}
	return value.Undefined, nil
}
