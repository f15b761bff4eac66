package conversion

import "github.com/rawbytedev/rttic/rtti"

// Flag is the compiled-operation bit set. Bits 0 and 1 double as the
// numeric index of "the next step" (operation_index ∈ {0,1}), which is why
// continueFrom below can test them with a single bitwise AND against the
// next index instead of a switch.
type Flag uint32

const (
	FlagFinalDeepCopyAfterFirstFn  Flag = 1 << 0
	FlagFinalDeepCopyAfterSecondFn Flag = 1 << 1
	FlagDeepCopyOnly               Flag = 1 << 2
	FlagFirstOperationOptimizedAway Flag = 1 << 3

	FlagResultIndependent            Flag = 1 << 29
	FlagResultAliasesSourceInternally Flag = 1 << 30
	FlagResultAliasesSourceDirectly   Flag = 1 << 31
)

func (f Flag) Has(bit Flag) bool { return f&bit != 0 }

type stepFnKind uint8

const (
	stepFnNone stepFnKind = iota
	stepFnConversion
	stepFnReference
)

type stepFn struct {
	kind    stepFnKind
	convert ConversionFunction
	getRef  GetDestinationReferenceFunction
}

func convStep(fn ConversionFunction) stepFn { return stepFn{kind: stepFnConversion, convert: fn} }
func refStep(fn GetDestinationReferenceFunction) stepFn {
	return stepFn{kind: stepFnReference, getRef: fn}
}

// CompiledOperation is the immutable, executable result of compiling an
// OperationSequence against concrete source and destination types. It is
// safe to share and invoke concurrently: it owns only its parameters and
// borrows references to registered operations, both of which outlive it.
type CompiledOperation struct {
	sourceType, typeAfterFirstOffset, intermediateType, destinationType rtti.Type

	first, final stepFn

	fixedOffsetFirst, fixedOffsetFinal uintptr

	flags Flag

	seq *OperationSequence
}

// Flags returns the compiled operation's flag bitset (exported chiefly for
// tests asserting the invariants of spec §8).
func (co *CompiledOperation) Flags() Flag { return co.flags }

func (co *CompiledOperation) SourceType() rtti.Type      { return co.sourceType }
func (co *CompiledOperation) IntermediateType() rtti.Type { return co.intermediateType }
func (co *CompiledOperation) DestinationType() rtti.Type  { return co.destinationType }

// Convert executes the compiled operation, writing the converted value of
// source into destination. Both pointers' types must equal the compiled
// source/destination types.
func (co *CompiledOperation) Convert(source rtti.TypedConstPtr, destination rtti.TypedPtr) error {
	intermediate := source.Offset(co.fixedOffsetFirst, co.typeAfterFirstOffset)
	if co.flags.Has(FlagDeepCopyOnly) {
		destination.DeepCopyFrom(intermediate)
		return nil
	}
	if co.first.kind == stepFnReference {
		ref, err := co.resolveReference(source)
		if err != nil {
			return err
		}
		destination.DeepCopyFrom(ref)
		return nil
	}
	current := CurrentOperation{compiled: co, index: 0}
	if co.first.kind != stepFnConversion {
		panic("conversion: compiled operation's first step is not callable as Convert's entry point")
	}
	return co.first.convert(current, intermediate, destination)
}

// continueFrom implements CurrentOperation.Continue: it is called from
// within a first_fn with the intermediate result and the ultimate
// destination, and either finishes with a DeepCopyFrom or hands off to the
// second step's function.
func (co *CompiledOperation) continueFrom(index uint, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
	next := index + 1
	if uint(co.flags)&next != 0 {
		shifted := intermediate.Offset(co.fixedOffsetFinal, co.destinationType)
		destination.DeepCopyFrom(shifted)
		return nil
	}
	current := CurrentOperation{compiled: co, index: next}
	if co.final.kind != stepFnConversion {
		panic("conversion: compiled operation's second step is not callable via Continue")
	}
	return co.final.convert(current, intermediate, destination)
}

// parameterValueFor returns the sequence's parameter for the given step
// index, adjusting for FirstOperationOptimizedAway (slot 0 maps to
// sequence slot 1 when the leading const-offset step was folded away).
func (co *CompiledOperation) parameterValueFor(index uint) rtti.TypedConstPtr {
	idx := index
	if co.flags.Has(FlagFirstOperationOptimizedAway) && idx == 0 {
		idx = 1
	}
	if co.seq == nil || int(idx) >= len(co.seq.slots) {
		return rtti.TypedConstPtr{}
	}
	p := co.seq.slots[idx].parameter
	if p == nil {
		return rtti.TypedConstPtr{}
	}
	return p.ConstPtr()
}

// CanConvertToReference reports whether the alias form of Convert is
// available.
func (co *CompiledOperation) CanConvertToReference() bool {
	return co.flags.Has(FlagResultAliasesSourceDirectly)
}

// ConvertToReference returns a TypedConstPtr aliasing source's storage,
// reinterpreted (and possibly offset) as the destination type. It is only
// legal to call when CanConvertToReference() is true.
func (co *CompiledOperation) ConvertToReference(source rtti.TypedConstPtr) (rtti.TypedConstPtr, error) {
	if !co.CanConvertToReference() {
		panic("conversion: ConvertToReference called on a compiled operation that materializes its result")
	}
	return co.resolveReference(source)
}

// resolveReference walks the ref-typed step(s) (if any) that alias into
// source's own storage and applies the fixed offsets around them.
func (co *CompiledOperation) resolveReference(source rtti.TypedConstPtr) (rtti.TypedConstPtr, error) {
	result := source.Offset(co.fixedOffsetFirst, co.typeAfterFirstOffset)
	var err error
	if co.first.kind == stepFnReference {
		result, err = co.first.getRef(CurrentOperation{compiled: co, index: 0}, result)
		if err != nil {
			return rtti.TypedConstPtr{}, err
		}
		if co.final.kind == stepFnReference {
			result, err = co.final.getRef(CurrentOperation{compiled: co, index: 1}, result)
			if err != nil {
				return rtti.TypedConstPtr{}, err
			}
		}
	}
	return result.Offset(co.fixedOffsetFinal, co.destinationType), nil
}
