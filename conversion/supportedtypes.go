package conversion

import "github.com/rawbytedev/rttic/rtti"

// SupportedTypeFilter classifies which types a RegisteredOperation accepts
// on one side of the conversion, for external tooling. The operation's own
// GetConversionOption still makes the final acceptance decision.
type SupportedTypeFilter uint8

const (
	FilterSingle SupportedTypeFilter = iota
	FilterBinarySerializable
	FilterStringSerializable
	FilterLists
	FilterAll
	FilterStaticCast
	FilterForEach
	FilterGetListElement
	FilterArrayToVector
	FilterGetTupleElement
	FilterGenericArrayCast
	FilterGenericVectorCast
)

// SupportedTypes is either a single fixed type (FilterSingle) or a named
// filter drawn from the closed set above.
type SupportedTypes struct {
	Filter     SupportedTypeFilter
	SingleType rtti.Type
}

// Single returns a SupportedTypes that fixes the operation's source or
// destination to exactly t.
func Single(t rtti.Type) SupportedTypes {
	return SupportedTypes{Filter: FilterSingle, SingleType: t}
}

// Filtered returns a SupportedTypes carrying a non-single filter.
func Filtered(f SupportedTypeFilter) SupportedTypes {
	return SupportedTypes{Filter: f}
}

// IsSingle reports whether the operation's type on this side is fixed.
func (s SupportedTypes) IsSingle() bool { return s.Filter == FilterSingle }
