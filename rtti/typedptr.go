package rtti

import (
	"fmt"
	"reflect"
	"unsafe"
)

// TypedConstPtr is a (raw address, Type) pair: an opaque, read-only view of
// a value whose type is known only at runtime. It never copies the pointee.
type TypedConstPtr struct {
	addr unsafe.Pointer
	typ  Type
}

// NewTypedConstPtr wraps an existing address under the given type. Callers
// are responsible for addr's lifetime outliving any use of the result.
func NewTypedConstPtr(addr unsafe.Pointer, typ Type) TypedConstPtr {
	return TypedConstPtr{addr: addr, typ: typ}
}

// ConstPointerTo returns a TypedConstPtr aliasing v's storage. v must be
// addressable (typically obtained via reflect.ValueOf(&x).Elem()).
func ConstPointerTo(v reflect.Value) TypedConstPtr {
	if !v.CanAddr() {
		panic("rtti: value is not addressable")
	}
	return TypedConstPtr{addr: unsafe.Pointer(v.UnsafeAddr()), typ: TypeFromReflect(v.Type())}
}

func (p TypedConstPtr) Addr() unsafe.Pointer { return p.addr }
func (p TypedConstPtr) Type() Type           { return p.typ }
func (p TypedConstPtr) IsNil() bool          { return p.addr == nil }

// Offset returns a new TypedConstPtr n bytes further into the same backing
// storage, retyped as newType.
func (p TypedConstPtr) Offset(n uintptr, newType Type) TypedConstPtr {
	return TypedConstPtr{addr: unsafe.Add(p.addr, n), typ: newType}
}

// Reflect returns a reflect.Value viewing the pointee without copying it.
func (p TypedConstPtr) Reflect() reflect.Value {
	return reflect.NewAt(p.typ.ReflectType(), p.addr).Elem()
}

// AsConst returns p unchanged; it exists so mutable pointers can be passed
// wherever a const pointer is expected without an explicit conversion at
// every call site.
func (p TypedConstPtr) AsConst() TypedConstPtr { return p }

// TypedPtr is the mutable counterpart of TypedConstPtr.
type TypedPtr struct {
	TypedConstPtr
}

// NewTypedPtr wraps an existing address under the given type for writing.
func NewTypedPtr(addr unsafe.Pointer, typ Type) TypedPtr {
	return TypedPtr{TypedConstPtr{addr: addr, typ: typ}}
}

// PointerTo returns a TypedPtr aliasing v's storage. v must be addressable
// and settable.
func PointerTo(v reflect.Value) TypedPtr {
	if !v.CanAddr() {
		panic("rtti: value is not addressable")
	}
	return TypedPtr{TypedConstPtr{addr: unsafe.Pointer(v.UnsafeAddr()), typ: TypeFromReflect(v.Type())}}
}

// DeepCopyFrom overwrites the pointee with a deep copy of src's value. The
// two types must be equal (the caller, typically CompiledOperation, is
// responsible for having established that already).
func (p TypedPtr) DeepCopyFrom(src TypedConstPtr) {
	if !p.typ.Equal(src.typ) {
		panic(fmt.Sprintf("rtti: DeepCopyFrom type mismatch: %s != %s", p.typ, src.typ))
	}
	dst := p.Reflect()
	source := src.Reflect()
	deepCopyInto(dst, source)
}

func deepCopyInto(dst, src reflect.Value) {
	switch src.Kind() {
	case reflect.Slice:
		if src.IsNil() {
			dst.Set(reflect.Zero(src.Type()))
			return
		}
		cp := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			deepCopyInto(cp.Index(i), src.Index(i))
		}
		dst.Set(cp)
	case reflect.Array:
		for i := 0; i < src.Len(); i++ {
			deepCopyInto(dst.Index(i), src.Index(i))
		}
	case reflect.Struct:
		// reflect cannot set unexported fields one by one, so the whole
		// struct is copied first (unexported fields stay shallow) and the
		// exported fields are then deep-copied over it.
		dst.Set(src)
		for i := 0; i < src.NumField(); i++ {
			if src.Type().Field(i).PkgPath != "" {
				continue
			}
			deepCopyInto(dst.Field(i), src.Field(i))
		}
	case reflect.Pointer:
		if src.IsNil() {
			dst.Set(reflect.Zero(src.Type()))
			return
		}
		np := reflect.New(src.Type().Elem())
		deepCopyInto(np.Elem(), src.Elem())
		dst.Set(np)
	default:
		dst.Set(src)
	}
}

// Equals reports whether the two pointees are deeply equal. Types must
// match.
func (p TypedConstPtr) Equals(o TypedConstPtr) bool {
	if !p.typ.Equal(o.typ) {
		return false
	}
	return reflect.DeepEqual(p.Reflect().Interface(), o.Reflect().Interface())
}

// ListLen returns the length of a list-type pointee.
func (p TypedConstPtr) ListLen() int {
	return p.Reflect().Len()
}

// ListElement returns a TypedConstPtr aliasing the i-th element of a
// list/array-type pointee, or the zero value (IsNil() == true) if i is out
// of bounds.
func (p TypedConstPtr) ListElement(i int) TypedConstPtr {
	v := p.Reflect()
	if i < 0 || i >= v.Len() {
		return TypedConstPtr{}
	}
	elem := v.Index(i)
	return ConstPointerTo(elem)
}

// ResizeList resizes a mutable list-type pointee to n elements, preserving
// existing elements up to min(oldLen, n) and zero-filling the rest.
func (p TypedPtr) ResizeList(n int) {
	v := p.Reflect()
	if v.Kind() != reflect.Slice {
		panic("rtti: ResizeList on non-slice type")
	}
	if v.Len() == n {
		return
	}
	newSlice := reflect.MakeSlice(v.Type(), n, n)
	reflect.Copy(newSlice, v)
	v.Set(newSlice)
}

// MutableListElement returns a TypedPtr aliasing the i-th element of a
// mutable list/array-type pointee.
func (p TypedPtr) MutableListElement(i int) TypedPtr {
	v := p.Reflect()
	if i < 0 || i >= v.Len() {
		return TypedPtr{}
	}
	return PointerTo(v.Index(i))
}
