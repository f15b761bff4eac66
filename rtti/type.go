// Package rtti is the thin runtime-type-information surface the conversion
// engine builds on: a Type descriptor, typed pointers, an owning generic
// object box, and a parameter descriptor. It plays the role external RTTI
// facilities play in systems that separate "how to convert" from "what the
// bytes mean".
package rtti

import (
	"fmt"
	"reflect"
	"sync"
)

// TupleField describes one element of a tuple-layout type: its byte offset
// within the tuple and its element Type.
type TupleField struct {
	Offset uintptr
	Type   Type
}

// Type is an opaque, comparable handle to a runtime type. Two Types compare
// equal iff they describe the same underlying reflect.Type; comparison is a
// cheap pointer/interned-value comparison, never structural.
type Type struct {
	rt *typeRecord
}

type typeRecord struct {
	reflectType reflect.Type
	name        string
	traits      TraitFlags
	underlying  *typeRecord // nil means "itself"
	element     *typeRecord // for lists/arrays
	arrayLen    int
	tuple       []TupleField
}

var (
	registryMu sync.RWMutex
	registry   = map[reflect.Type]*typeRecord{}
	byName     = map[string]*typeRecord{}
)

// LookupTypeByName resolves a Type previously registered (explicitly or by
// being passed to TypeOf/TypeFromReflect) under the given name. Used by
// the wire decoder to resolve a deserialized intermediate-type name back
// to a Type.
func LookupTypeByName(name string) (Type, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	rec, ok := byName[name]
	if !ok {
		return Type{}, false
	}
	return Type{rec}, true
}

// TypeOf returns the (auto-registering) Type descriptor for the concrete Go
// type of v. Traits for types that were never explicitly registered are
// inferred once and cached: BinarySerializable/StringSerializable follow
// interface satisfaction, IsList/IsArray follow reflect.Kind.
func TypeOf(v any) Type {
	return TypeFromReflect(reflect.TypeOf(v))
}

// TypeFromReflect resolves (and lazily registers) the Type descriptor for a
// reflect.Type.
func TypeFromReflect(rt reflect.Type) Type {
	registryMu.RLock()
	rec, ok := registry[rt]
	registryMu.RUnlock()
	if ok {
		return Type{rec}
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if rec, ok = registry[rt]; ok {
		return Type{rec}
	}
	rec = buildRecord(rt)
	internLocked(rt, rec)
	return Type{rec}
}

// internLocked records rec under both the reflect.Type and name indices.
// Callers must hold registryMu for writing.
func internLocked(rt reflect.Type, rec *typeRecord) {
	registry[rt] = rec
	byName[rec.name] = rec
}

func buildRecord(rt reflect.Type) *typeRecord {
	rec := &typeRecord{reflectType: rt, name: rt.String()}
	rec.traits = inferTraits(rt)
	switch rt.Kind() {
	case reflect.Slice:
		rec.traits |= TraitIsList
		rec.element = buildOrGetRecord(rt.Elem())
	case reflect.Array:
		rec.traits |= TraitIsArray
		rec.arrayLen = rt.Len()
		rec.element = buildOrGetRecord(rt.Elem())
	case reflect.Struct:
		rec.tuple = buildTupleLayout(rt)
		if rec.tuple != nil {
			rec.traits |= TraitIsTuple
		}
	}
	return rec
}

// buildOrGetRecord is buildRecord's helper for element types, consulting
// (and populating) the same registry so that repeated element types share
// one record.
func buildOrGetRecord(rt reflect.Type) *typeRecord {
	if rec, ok := registry[rt]; ok {
		return rec
	}
	rec := buildRecord(rt)
	internLocked(rt, rec)
	return rec
}

func buildTupleLayout(rt reflect.Type) []TupleField {
	if rt.NumField() == 0 {
		return nil
	}
	fields := make([]TupleField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		fields = append(fields, TupleField{
			Offset: sf.Offset,
			Type:   Type{buildOrGetRecord(sf.Type)},
		})
	}
	return fields
}

var (
	binarySerializableIface = reflect.TypeOf((*BinarySerializable)(nil)).Elem()
	stringSerializableIface = reflect.TypeOf((*StringSerializable)(nil)).Elem()
)

func inferTraits(rt reflect.Type) TraitFlags {
	var f TraitFlags
	ptr := reflect.PointerTo(rt)
	if rt.Implements(binarySerializableIface) || ptr.Implements(binarySerializableIface) {
		f |= TraitBinarySerializable
	}
	if rt.Implements(stringSerializableIface) || ptr.Implements(stringSerializableIface) {
		f |= TraitStringSerializable
	}
	if isFixedKind(rt.Kind()) {
		// Fixed-width scalars are both binary- and string-serializable
		// via the built-in stream codecs.
		f |= TraitBinarySerializable | TraitStringSerializable
	}
	if rt.Kind() == reflect.Int || rt.Kind() == reflect.Uint {
		// Platform-width integers have no fixed binary width, but the
		// built-in string codecs read and write them like any integer.
		f |= TraitStringSerializable
	}
	if rt.Kind() == reflect.String {
		f |= TraitBinarySerializable | TraitStringSerializable
	}
	if rt.Kind() == reflect.Struct && !f.Has(TraitBinarySerializable) && canAutoBinaryEncode(rt) {
		f |= TraitBinarySerializable
	}
	return f
}

// canAutoBinaryEncode reports whether every exported field of rt is
// something the reflection-driven struct codec (package structcodec) knows
// how to write: fixed-width scalars, strings, byte slices, or slices of
// those. Structs that qualify get TraitBinarySerializable without needing
// to implement BinarySerializable by hand.
func canAutoBinaryEncode(rt reflect.Type) bool {
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		if !fieldKindAutoEncodable(sf.Type) {
			return false
		}
	}
	return true
}

func fieldKindAutoEncodable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.String:
		return true
	case reflect.Slice:
		elem := t.Elem()
		if elem.Kind() == reflect.Uint8 {
			return true
		}
		return isFixedKind(elem.Kind()) || elem.Kind() == reflect.String
	default:
		return isFixedKind(t.Kind())
	}
}

// RegisterUnderlyingType declares that named type T "wraps" storage of type
// U: T.UnderlyingType() will report U, enabling the reinterpret/const-offset
// shortcuts in static-cast dispatch. Call before any conversion involving T
// is compiled; the registry is append-only like everything else here.
func RegisterUnderlyingType(t, underlying reflect.Type, toImplicit, fromImplicit, reinterpretValid bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	rec := buildOrGetRecordLocked(t)
	rec.underlying = buildOrGetRecordLocked(underlying)
	if toImplicit {
		rec.traits |= TraitCastToUnderlyingImplicit
	}
	if fromImplicit {
		rec.traits |= TraitCastFromUnderlyingImplicit
	}
	if reinterpretValid {
		rec.traits |= TraitReinterpretFromUnderlyingValid
	}
	internLocked(t, rec)
}

func buildOrGetRecordLocked(rt reflect.Type) *typeRecord {
	if rec, ok := registry[rt]; ok {
		return rec
	}
	rec := buildRecord(rt)
	internLocked(rt, rec)
	return rec
}

// Equal reports whether two Types describe the same runtime type. This is a
// pointer comparison against the interned record, never a structural walk.
func (t Type) Equal(o Type) bool { return t.rt == o.rt }

// IsValid reports whether t was ever populated (the zero Type is invalid).
func (t Type) IsValid() bool { return t.rt != nil }

// Name returns a human-readable name for the type.
func (t Type) Name() string { return t.rt.name }

func (t Type) String() string { return t.Name() }

// ReflectType exposes the underlying reflect.Type for callers that need to
// allocate or introspect further; the conversion engine itself never
// branches on it directly outside rtti and structcodec.
func (t Type) ReflectType() reflect.Type { return t.rt.reflectType }

// Size returns the in-memory size of the type in bytes. includingPadding
// mirrors the "including alignment padding" variant used when the caller
// intends to placement-construct a value into scratch memory.
func (t Type) Size(includingPadding bool) uintptr {
	sz := t.rt.reflectType.Size()
	if !includingPadding {
		return sz
	}
	align := uintptr(t.rt.reflectType.Align())
	if align <= 1 {
		return sz
	}
	return (sz + align - 1) &^ (align - 1)
}

// Traits returns the trait-flag bitset for the type.
func (t Type) Traits() TraitFlags { return t.rt.traits }

// UnderlyingType returns the type this type wraps, or t itself if it wraps
// nothing (the common case).
func (t Type) UnderlyingType() Type {
	if t.rt.underlying == nil {
		return t
	}
	return Type{t.rt.underlying}
}

// IsListType reports whether the type behaves like a resizable sequence.
func (t Type) IsListType() bool { return t.rt.traits.Has(TraitIsList) }

// IsArrayType reports whether the type behaves like a fixed-size sequence.
func (t Type) IsArrayType() bool { return t.rt.traits.Has(TraitIsArray) }

// ElementType returns the element type of a list or array type. It panics
// if called on a type that is neither.
func (t Type) ElementType() Type {
	if t.rt.element == nil {
		panic(fmt.Sprintf("rtti: %s has no element type", t.Name()))
	}
	return Type{t.rt.element}
}

// ArrayLen returns the fixed length of an array type. It panics if called
// on a non-array type.
func (t Type) ArrayLen() int {
	if !t.IsArrayType() {
		panic(fmt.Sprintf("rtti: %s is not an array type", t.Name()))
	}
	return t.rt.arrayLen
}

// IsTupleType reports whether the type has a known ordered field layout.
func (t Type) IsTupleType() bool { return t.rt.traits.Has(TraitIsTuple) }

// TupleLayout returns the ordered (offset, type) pairs of a tuple type. It
// panics if the type has no tuple layout.
func (t Type) TupleLayout() []TupleField {
	if !t.IsTupleType() {
		panic(fmt.Sprintf("rtti: %s is not a tuple type", t.Name()))
	}
	return t.rt.tuple
}

// IsFixedKind reports whether a reflect.Kind has a statically known,
// self-contained wire width (no length prefix needed). Exported for
// callers outside rtti (e.g. the conversion package's built-in binary
// serialization fallback for scalar types).
func IsFixedKind(k reflect.Kind) bool { return isFixedKind(k) }

func isFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32,
		reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// FixedSize returns the wire width in bytes of a fixed-kind scalar. It
// panics for kinds that are not fixed.
func FixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	}
	panic("rtti: not a fixed kind")
}
