package conversion

import (
	"reflect"

	"github.com/rawbytedev/rttic/rtti"
)

// ConversionOptionKind tags which of the four execution strategies (or
// none) a ConversionOption carries.
type ConversionOptionKind uint8

const (
	KindNone ConversionOptionKind = iota
	KindStandardFn
	KindConstOffset
	KindVariableOffset
	KindResultAliasesSource
)

// CurrentOperation is handed to every ConversionFunction and
// GetDestinationReferenceFunction so it can fetch the sequence's parameter
// for the current step and continue execution into the next one.
type CurrentOperation struct {
	compiled *CompiledOperation
	index    uint
}

// ConversionFunction writes a converted value from intermediate into
// destination, optionally calling current.Continue to hand off to the next
// step.
type ConversionFunction func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error

// GetDestinationReferenceFunction returns a TypedConstPtr aliasing source's
// storage, reinterpreted as a different (destination or intermediate)
// type. Used by VariableOffset and the alias-preserving fusion paths.
type GetDestinationReferenceFunction func(current CurrentOperation, source rtti.TypedConstPtr) (rtti.TypedConstPtr, error)

// newScratch allocates a fresh, addressable zero value of t and returns a
// TypedPtr to it. Used to give a chained first_fn somewhere of its own
// destination type to write into, since the sequence's real destination
// (fused CompiledOperation.destinationType) is only correctly typed for
// whichever step runs last.
func newScratch(t rtti.Type) rtti.TypedPtr {
	return rtti.PointerTo(reflect.New(t.ReflectType()).Elem())
}

// chainedFirstFn adapts a final_fn — one that writes its result directly
// into the destination it is given — into a first_fn usable as the leading
// half of a fused two-step conversion. It writes final_fn's result into a
// scratch value of dstType (final_fn's own destination type) instead of the
// caller's destination, then continues with that scratch standing in for
// the intermediate value and the original destination passed through
// unchanged for whichever step runs next.
func chainedFirstFn(finalFn ConversionFunction, dstType rtti.Type) ConversionFunction {
	return func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		scratch := newScratch(dstType)
		if err := finalFn(current, intermediate, scratch); err != nil {
			return err
		}
		return current.Continue(scratch.AsConst(), destination)
	}
}

// ConversionOption describes one legal (source_type -> destination_type)
// recipe, tagged by execution strategy. Values are immutable once
// constructed.
type ConversionOption struct {
	Kind        ConversionOptionKind
	SourceType  rtti.Type
	DestType    rtti.Type
	FirstFn     ConversionFunction
	FinalFn     ConversionFunction
	Offset      uintptr
	GetRefFn    GetDestinationReferenceFunction
}

// NoneOption returns the empty ("no such conversion") option.
func NoneOption() ConversionOption { return ConversionOption{} }

// NewStandardFnOption constructs a StandardFn option. firstFn writes into a
// caller-supplied intermediate and calls Continue; finalFn writes directly
// into the destination.
func NewStandardFnOption(src, dst rtti.Type, firstFn, finalFn ConversionFunction) ConversionOption {
	return ConversionOption{Kind: KindStandardFn, SourceType: src, DestType: dst, FirstFn: firstFn, FinalFn: finalFn}
}

// NewConstOffsetOption constructs a ConstOffset option: the destination
// value lives at source_addr + offset. Panics if the invariant
// offset+sizeof(dst) <= sizeof(src) is violated, since that can only
// happen due to a programming error in the registering code.
func NewConstOffsetOption(src, dst rtti.Type, offset uintptr) ConversionOption {
	if offset+dst.Size(false) > src.Size(false) {
		panic("conversion: const offset option would read past source object")
	}
	return ConversionOption{Kind: KindConstOffset, SourceType: src, DestType: dst, Offset: offset}
}

// NewVariableOffsetOption constructs a VariableOffset option: firstFn is
// used when this option is the first step of a fused pair; getRefFn
// returns a TypedConstPtr aliasing the source at a call-time-determined
// offset.
func NewVariableOffsetOption(src, dst rtti.Type, firstFn ConversionFunction, getRefFn GetDestinationReferenceFunction) ConversionOption {
	return ConversionOption{Kind: KindVariableOffset, SourceType: src, DestType: dst, FirstFn: firstFn, GetRefFn: getRefFn}
}

// NewResultAliasesSourceOption constructs a ResultAliasesSource option:
// StandardFn-shaped, but the destination's storage depends on the source
// staying alive.
func NewResultAliasesSourceOption(src, dst rtti.Type, firstFn, finalFn ConversionFunction) ConversionOption {
	return ConversionOption{Kind: KindResultAliasesSource, SourceType: src, DestType: dst, FirstFn: firstFn, FinalFn: finalFn}
}

// IsNone reports whether the option represents "no conversion available".
func (c ConversionOption) IsNone() bool { return c.Kind == KindNone }

// MaxConstOffset is the largest legal ConstOffset value; the upper half of
// the offset space is reserved (see spec §3, ConstOffset invariant).
const MaxConstOffset = ^uintptr(0) / 2

// Continue is invoked by a first_fn to hand execution to the next step
// (implemented on CompiledOperation to break the cyclic dependency between
// CurrentOperation and CompiledOperation).
func (c CurrentOperation) Continue(intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
	return c.compiled.continueFrom(c.index, intermediate, destination)
}

// GetParameterValue returns the sequence's parameter for the current step,
// or the zero TypedConstPtr (IsNil() == true) if none was supplied.
func (c CurrentOperation) GetParameterValue() rtti.TypedConstPtr {
	return c.compiled.parameterValueFor(c.index)
}
