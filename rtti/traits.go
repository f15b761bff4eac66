package rtti

// TraitFlags is a bitset describing properties of a registered Type that the
// conversion engine consults without needing to know the concrete Go type.
type TraitFlags uint32

const (
	// TraitBinarySerializable marks a type whose values can round-trip
	// through a BinaryOutputStream/BinaryInputStream pair.
	TraitBinarySerializable TraitFlags = 1 << iota
	// TraitStringSerializable marks a type whose values can round-trip
	// through a StringOutputStream/StringInputStream pair.
	TraitStringSerializable
	// TraitIsList marks a type whose values behave like a resizable
	// sequence (Go slice).
	TraitIsList
	// TraitIsArray marks a type whose values behave like a fixed-size
	// sequence (Go array).
	TraitIsArray
	// TraitCastToUnderlyingImplicit permits an implicit static cast from
	// this type to its underlying type.
	TraitCastToUnderlyingImplicit
	// TraitCastFromUnderlyingImplicit permits an implicit static cast
	// from this type's underlying type to this type.
	TraitCastFromUnderlyingImplicit
	// TraitReinterpretFromUnderlyingValid permits a zero-cost
	// reinterpretation between two types that share an underlying type.
	TraitReinterpretFromUnderlyingValid
	// TraitIsTuple marks a fixed-layout heterogeneous tuple type
	// (a Go struct with a known ordered field list).
	TraitIsTuple
)

func (f TraitFlags) Has(bit TraitFlags) bool {
	return f&bit != 0
}
