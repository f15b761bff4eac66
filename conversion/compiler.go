package conversion

import "github.com/rawbytedev/rttic/rtti"

// Compile is the sequence compiler's entry point: sequence + source type +
// destination type -> compiled operation. It runs the four phases of
// spec §4.F in order: ambiguity resolution, type inference, conversion
// option acquisition, and fusion. src and/or dst may be the zero rtti.Type
// (IsValid() == false) when they are meant to be inferred from the
// sequence's operations.
func Compile(seq *OperationSequence, allowAlias bool, src, dst rtti.Type) (*CompiledOperation, error) {
	if err := resolveAmbiguity(seq, src, dst); err != nil {
		return nil, err
	}
	src, dst, intermediate, err := inferTypes(seq, src, dst)
	if err != nil {
		return nil, err
	}
	c1, c2, err := acquireOptions(seq, src, dst, intermediate)
	if err != nil {
		return nil, err
	}
	co, err := fuse(seq, allowAlias, src, dst, c1, c2)
	if err != nil {
		return nil, err
	}
	if err := materializeParameters(seq, co); err != nil {
		return nil, err
	}
	return co, nil
}

// resolveAmbiguity is phase 1: slots whose name lookup found more than one
// candidate are re-resolved now that (partial) type information is
// available.
func resolveAmbiguity(seq *OperationSequence, src, dst rtti.Type) error {
	for i := 0; i < seq.size; i++ {
		slot := &seq.slots[i]
		if !slot.ambiguous {
			continue
		}
		var stepDst rtti.Type
		if i == 0 {
			if seq.size == 2 {
				stepDst = seq.intermediateType
			} else {
				stepDst = dst
			}
		} else {
			stepDst = dst
		}
		var stepSrc rtti.Type
		if i == 0 {
			stepSrc = src
		} else {
			stepSrc = seq.intermediateType
		}
		op, err := FindForTypes(slot.name, stepSrc, stepDst)
		if err != nil {
			return err
		}
		slot.op = op
		slot.ambiguous = false
	}
	return nil
}

// inferTypes is phase 2.
func inferTypes(seq *OperationSequence, src, dst rtti.Type) (rtti.Type, rtti.Type, rtti.Type, error) {
	intermediate := seq.intermediateType

	if !src.IsValid() && seq.size >= 1 && seq.slots[0].op != nil {
		if t := seq.slots[0].op.SupportedSource(); t.IsSingle() {
			src = t.SingleType
		}
	}
	if !dst.IsValid() && seq.size >= 1 {
		last := seq.slots[0].op
		if seq.size == 2 {
			last = seq.slots[1].op
		}
		if last != nil {
			if t := last.SupportedDestination(); t.IsSingle() {
				dst = t.SingleType
			}
		}
	}
	if !intermediate.IsValid() && seq.size == 2 {
		if seq.slots[0].op != nil {
			if t := seq.slots[0].op.SupportedDestination(); t.IsSingle() {
				intermediate = t.SingleType
			}
		}
		if !intermediate.IsValid() && seq.slots[1].op != nil {
			if t := seq.slots[1].op.SupportedSource(); t.IsSingle() {
				intermediate = t.SingleType
			}
		}
	}

	if !src.IsValid() {
		return src, dst, intermediate, newError(KindTypeUnspecified, "source type must be specified")
	}
	if !dst.IsValid() {
		return src, dst, intermediate, newError(KindTypeUnspecified, "destination type must be specified")
	}
	if seq.size == 2 && !intermediate.IsValid() {
		return src, dst, intermediate, newError(KindTypeUnspecified, "intermediate type must be specified")
	}
	return src, dst, intermediate, nil
}

// acquireOptions is phase 3.
func acquireOptions(seq *OperationSequence, src, dst, intermediate rtti.Type) (ConversionOption, ConversionOption, error) {
	switch seq.size {
	case 0:
		if src.Equal(dst) {
			return NewConstOffsetOption(src, dst, 0), NoneOption(), nil
		}
		c1, c2 := GetImplicitConversionOptions(src, dst)
		if c1.IsNone() {
			return c1, c2, newError(KindIncompatible, "no implicit conversion chain from %s to %s", src, dst)
		}
		return c1, c2, nil

	case 1:
		op0 := seq.slots[0].op
		if op0 == forEachOperation {
			return acquireForEach(seq, src, dst)
		}
		if c1 := op0.GetConversionOption(src, dst); !c1.IsNone() {
			return c1, NoneOption(), nil
		}
		return acquireBracketed(op0, src, dst, intermediate)

	case 2:
		op0, op1 := seq.slots[0].op, seq.slots[1].op
		if op0 == forEachOperation {
			return acquireForEach(seq, src, dst)
		}
		c1 := op0.GetConversionOption(src, intermediate)
		if c1.IsNone() {
			return c1, NoneOption(), newError(KindIncompatible, "%s cannot convert %s to %s", op0.Name(), src, intermediate)
		}
		c2 := op1.GetConversionOption(intermediate, dst)
		if c2.IsNone() {
			return c1, c2, newError(KindIncompatible, "%s cannot convert %s to %s", op1.Name(), intermediate, dst)
		}
		return c1, c2, nil
	}
	panic("conversion: sequence size out of range")
}

func acquireBracketed(op0 Operation, src, dst, intermediate rtti.Type) (ConversionOption, ConversionOption, error) {
	srcFixed := op0.SupportedSource()
	dstFixed := op0.SupportedDestination()

	if srcFixed.IsSingle() && srcFixed.SingleType.Equal(src) {
		mid := dst
		if dstFixed.IsSingle() {
			mid = dstFixed.SingleType
		} else if intermediate.IsValid() {
			mid = intermediate
		}
		if c1 := op0.GetConversionOption(src, mid); !c1.IsNone() {
			if mid.Equal(dst) {
				return c1, NoneOption(), nil
			}
			if c2 := GetImplicitConversionOption(mid, dst); !c2.IsNone() {
				return c1, c2, nil
			}
		}
	}
	if dstFixed.IsSingle() && dstFixed.SingleType.Equal(dst) {
		mid := src
		if srcFixed.IsSingle() {
			mid = srcFixed.SingleType
		} else if intermediate.IsValid() {
			mid = intermediate
		}
		if c2 := op0.GetConversionOption(mid, dst); !c2.IsNone() {
			if mid.Equal(src) {
				return c2, NoneOption(), nil
			}
			if c1 := GetImplicitConversionOption(src, mid); !c1.IsNone() {
				return c1, c2, nil
			}
		}
	}
	return NoneOption(), NoneOption(), newError(KindIncompatible, "%s cannot bridge %s to %s even with an implicit cast", op0.Name(), src, dst)
}

func acquireForEach(seq *OperationSequence, src, dst rtti.Type) (ConversionOption, ConversionOption, error) {
	if !(src.IsListType() || src.IsArrayType()) || !(dst.IsListType() || dst.IsArrayType()) {
		return NoneOption(), NoneOption(), newError(KindIncompatible, "For Each requires list or array types, got %s -> %s", src, dst)
	}
	if src.IsArrayType() && dst.IsArrayType() && src.ArrayLen() != dst.ArrayLen() {
		return NoneOption(), NoneOption(), newError(KindSizeMismatch, "For Each on arrays of different size (%d != %d)", src.ArrayLen(), dst.ArrayLen())
	}
	c1 := forEachOperation.GetConversionOption(src, dst)
	if c1.IsNone() {
		return c1, NoneOption(), newError(KindIncompatible, "For Each cannot convert %s to %s", src, dst)
	}
	elemSrc, elemDst := src.ElementType(), dst.ElementType()
	var c2 ConversionOption
	if seq.size == 2 && seq.slots[1].op != nil {
		c2 = seq.slots[1].op.GetConversionOption(elemSrc, elemDst)
	} else {
		c2 = GetImplicitConversionOption(elemSrc, elemDst)
	}
	if c2.IsNone() {
		return c1, c2, newError(KindIncompatible, "For Each cannot bridge element types %s to %s", elemSrc, elemDst)
	}
	return c1, c2, nil
}

// fuse is phase 4: fold c1 (and optional c2) into one CompiledOperation.
func fuse(seq *OperationSequence, allowAlias bool, src, dst rtti.Type, c1, c2 ConversionOption) (*CompiledOperation, error) {
	if err := validateOffset(c1); err != nil {
		return nil, err
	}
	if err := validateOffset(c2); err != nil {
		return nil, err
	}

	co := &CompiledOperation{sourceType: src, destinationType: dst, seq: seq}

	// Pure-copy short circuit: c1 is ConstOffset and c2 is either absent
	// or also ConstOffset. Covers both spec §4.F's "both ConstOffset"
	// special case and the single-ConstOffset-operation reduction.
	if c1.Kind == KindConstOffset && (c2.IsNone() || c2.Kind == KindConstOffset) {
		off := c1.Offset
		if !c2.IsNone() {
			off += c2.Offset
		}
		co.fixedOffsetFirst = off
		co.typeAfterFirstOffset = dst
		co.intermediateType = dst
		co.flags = FlagResultIndependent | FlagResultAliasesSourceDirectly | FlagDeepCopyOnly
		return co, nil
	}

	co.typeAfterFirstOffset = src
	if c1.Kind == KindConstOffset {
		co.fixedOffsetFirst = c1.Offset
		co.typeAfterFirstOffset = c1.DestType
		co.flags |= FlagFirstOperationOptimizedAway
		c1, c2 = c2, NoneOption()
	}
	co.intermediateType = c1.SourceType
	if !c2.IsNone() {
		co.intermediateType = c1.DestType
	}

	switch {
	case c1.Kind == KindResultAliasesSource && c2.IsNone():
		if allowAlias {
			co.first = convStep(c1.FinalFn)
			co.flags |= FlagResultAliasesSourceInternally
		} else {
			co.first = convStep(c1.FirstFn)
			co.flags |= FlagResultIndependent | FlagFinalDeepCopyAfterFirstFn
		}
		co.intermediateType = dst

	case c1.Kind == KindStandardFn || (c1.Kind == KindResultAliasesSource && !c2.IsNone()):
		if !c2.IsNone() {
			co.first = convStep(c1.FirstFn)
		} else {
			co.first = convStep(c1.FinalFn)
		}
		co.flags |= FlagResultIndependent
		if !c2.IsNone() {
			if err := fuseSecondStep(co, c1, c2, dst); err != nil {
				return nil, err
			}
		}

	case c1.Kind == KindVariableOffset:
		// Aliasing is safe whenever allow_alias holds and c2 (if present)
		// isn't StandardFn: a StandardFn second step always computes an
		// independent result, but ResultAliasesSource as a second step
		// still shares the source's storage, just via its own function
		// pair rather than a bare reference lookup.
		aliasSafe := allowAlias && !(!c2.IsNone() && c2.Kind == KindStandardFn)
		if aliasSafe {
			switch {
			case c2.IsNone():
				co.first = refStep(c1.GetRefFn)
				co.flags |= FlagResultAliasesSourceDirectly
				co.intermediateType = dst
			case c2.Kind == KindResultAliasesSource:
				co.first = convStep(c1.FirstFn)
				co.final = convStep(c2.FirstFn)
				co.flags |= FlagResultAliasesSourceInternally | FlagFinalDeepCopyAfterSecondFn
				co.intermediateType = dst
			case c2.Kind == KindConstOffset:
				co.first = refStep(c1.GetRefFn)
				co.fixedOffsetFinal = c2.Offset
				co.flags |= FlagResultAliasesSourceDirectly
				co.intermediateType = dst
			case c2.Kind == KindVariableOffset:
				co.first = refStep(c1.GetRefFn)
				co.final = refStep(c2.GetRefFn)
				co.flags |= FlagResultAliasesSourceDirectly
				co.intermediateType = dst
			}
		} else {
			co.first = convStep(c1.FirstFn)
			co.flags |= FlagResultIndependent
			if c2.IsNone() {
				co.flags |= FlagFinalDeepCopyAfterFirstFn
				co.intermediateType = dst
			} else if err := fuseSecondStep(co, c1, c2, dst); err != nil {
				return nil, err
			}
		}
	default:
		return nil, newError(KindIncompatible, "no fusion rule for conversion option kind %d", c1.Kind)
	}
	return co, nil
}

// fuseSecondStep handles the shared "what do we do with c2" table used by
// both the StandardFn/ResultAliasesSource-with-c2 branch and the
// materializing VariableOffset branch.
func fuseSecondStep(co *CompiledOperation, c1, c2 ConversionOption, dst rtti.Type) error {
	switch c2.Kind {
	case KindStandardFn:
		co.final = convStep(c2.FinalFn)
	case KindConstOffset:
		if c2.Offset == 0 && c2.SourceType.Equal(c2.DestType) {
			co.intermediateType = dst
			co.first = convStep(c1.FinalFn)
			if c1.Kind == KindResultAliasesSource {
				co.flags = co.flags&^FlagResultIndependent | FlagResultAliasesSourceInternally
			}
		} else {
			co.fixedOffsetFinal = c2.Offset
			co.flags |= FlagFinalDeepCopyAfterFirstFn
		}
	case KindVariableOffset, KindResultAliasesSource:
		co.final = convStep(c2.FirstFn)
		co.flags |= FlagFinalDeepCopyAfterSecondFn
	default:
		return newError(KindIncompatible, "unexpected second-step option kind %d", c2.Kind)
	}
	return nil
}

func validateOffset(c ConversionOption) error {
	if c.Kind == KindConstOffset && c.Offset > MaxConstOffset {
		return newError(KindInvalidOffset, "const offset %d exceeds the maximum of %d", c.Offset, MaxConstOffset)
	}
	return nil
}

// materializeParameters resolves each slot's parameter against its
// operation's declared ParameterDefinition (spec §4.F, "Parameter
// materialization").
func materializeParameters(seq *OperationSequence, co *CompiledOperation) error {
	for i := 0; i < seq.size; i++ {
		op := seq.slots[i].op
		if op == nil {
			continue
		}
		obj, err := materializeParameter(seq.slots[i], op.Parameter())
		if err != nil {
			return err
		}
		seq.slots[i].parameter = obj
	}
	return nil
}
