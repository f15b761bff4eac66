package rtti

import "reflect"

// GenericObject is an owning box around a value of runtime type. It backs
// OperationSequence parameters and the scratch intermediates conversion
// functions materialize when a StandardFn needs a fresh object of the
// intermediate type to write into.
type GenericObject struct {
	typ   Type
	value reflect.Value // addressable, owns its storage
}

// EmplaceGenericObject allocates a fresh zero value of typ and returns an
// owning GenericObject wrapping it. The original design places this value
// into caller-provided scratch bytes on the stack; Go has no portable
// stack-VLA equivalent, so the allocation is a normal (GC-managed) one-shot
// heap value instead — the observable contract (no retained ownership
// beyond the object's own lifetime) is unaffected.
func EmplaceGenericObject(typ Type) *GenericObject {
	v := reflect.New(typ.ReflectType()).Elem()
	return &GenericObject{typ: typ, value: v}
}

// NewGenericObject boxes an existing Go value, copying it into owned
// storage.
func NewGenericObject(v any) *GenericObject {
	rv := reflect.ValueOf(v)
	owned := reflect.New(rv.Type()).Elem()
	deepCopyInto(owned, rv)
	return &GenericObject{typ: TypeFromReflect(rv.Type()), value: owned}
}

func (g *GenericObject) Type() Type { return g.typ }

// Ptr returns a mutable TypedPtr aliasing the boxed storage.
func (g *GenericObject) Ptr() TypedPtr { return PointerTo(g.value) }

// ConstPtr returns a read-only TypedConstPtr aliasing the boxed storage.
func (g *GenericObject) ConstPtr() TypedConstPtr { return ConstPointerTo(g.value) }

// Interface returns the boxed value as an any, copying nothing extra
// (reflect.Value.Interface already copies for non-pointer kinds).
func (g *GenericObject) Interface() any { return g.value.Interface() }

// DeepCopyFrom overwrites the box with a deep copy of another GenericObject
// of the same type.
func (g *GenericObject) DeepCopyFrom(src *GenericObject) {
	if !g.typ.Equal(src.typ) {
		panic("rtti: GenericObject.DeepCopyFrom type mismatch")
	}
	deepCopyInto(g.value, src.value)
}

// Clone returns a fresh, independently-owned deep copy of g.
func (g *GenericObject) Clone() *GenericObject {
	clone := EmplaceGenericObject(g.typ)
	clone.DeepCopyFrom(g)
	return clone
}

// Equals reports deep equality between two boxed values of the same type.
func (g *GenericObject) Equals(o *GenericObject) bool {
	if o == nil || !g.typ.Equal(o.typ) {
		return false
	}
	return reflect.DeepEqual(g.value.Interface(), o.value.Interface())
}
