package conversion

import (
	"sync"

	"github.com/rawbytedev/rttic/rtti"
)

// staticCast is one entry of the static-cast table: a ConversionOption plus
// whether it may be chosen implicitly (i.e. without the caller naming
// "static_cast" explicitly).
type staticCast struct {
	option   ConversionOption
	implicit bool
}

type staticCastOperation struct {
	BaseOperation
	mu    sync.RWMutex
	casts []*staticCast
}

// staticCastSingleton is the process-wide static-cast registry, exposed
// under the reserved name "static_cast".
var staticCastSingleton = &staticCastOperation{
	BaseOperation: BaseOperation{
		name:        cStaticCastName,
		source:      Filtered(FilterStaticCast),
		destination: Filtered(FilterStaticCast),
	},
}

// GetConversionOption implements the three-tier lookup of spec §4.D:
// identity, underlying-type equivalence, then the first exactly-matching
// registered cast.
func (s *staticCastOperation) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if src.Equal(dst) {
		return NewConstOffsetOption(src, dst, 0)
	}
	if src.UnderlyingType().Equal(dst) {
		return NewConstOffsetOption(src, dst, 0)
	}
	if src.UnderlyingType().Equal(dst.UnderlyingType()) && dst.Traits().Has(rtti.TraitReinterpretFromUnderlyingValid) {
		return NewConstOffsetOption(src, dst, 0)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.casts {
		if c.option.SourceType.Equal(src) && c.option.DestType.Equal(dst) {
			return c.option
		}
	}
	return NoneOption()
}

// GetImplicitConversionOption applies the stricter rule of spec §4.D: only
// identity, trait-gated underlying-type equivalence, or a cast explicitly
// flagged implicit.
func GetImplicitConversionOption(src, dst rtti.Type) ConversionOption {
	if src.Equal(dst) {
		return NewConstOffsetOption(src, dst, 0)
	}
	toImplicit := src.UnderlyingType().Equal(dst) && src.Traits().Has(rtti.TraitCastToUnderlyingImplicit)
	fromImplicit := src.Equal(dst.UnderlyingType()) && dst.Traits().Has(rtti.TraitCastFromUnderlyingImplicit)
	bothImplicit := src.UnderlyingType().Equal(dst.UnderlyingType()) &&
		src.Traits().Has(rtti.TraitCastToUnderlyingImplicit) && dst.Traits().Has(rtti.TraitCastFromUnderlyingImplicit)
	if toImplicit || fromImplicit || bothImplicit {
		return NewConstOffsetOption(src, dst, 0)
	}
	staticCastSingleton.mu.RLock()
	defer staticCastSingleton.mu.RUnlock()
	for _, c := range staticCastSingleton.casts {
		if c.implicit && c.option.SourceType.Equal(src) && c.option.DestType.Equal(dst) {
			return c.option
		}
	}
	return NoneOption()
}

// GetImplicitConversionOptions returns a chain of at most two implicit
// casts bridging src to dst (spec §4.D). If a single hop exists it is
// returned alone; otherwise the first registration-order match that
// bridges through one intermediate type wins. Returns (None, None) if no
// chain exists.
func GetImplicitConversionOptions(src, dst rtti.Type) (ConversionOption, ConversionOption) {
	if single := GetImplicitConversionOption(src, dst); !single.IsNone() {
		return single, NoneOption()
	}
	staticCastSingleton.mu.RLock()
	casts := make([]*staticCast, len(staticCastSingleton.casts))
	copy(casts, staticCastSingleton.casts)
	staticCastSingleton.mu.RUnlock()

	for _, c := range casts {
		if !c.implicit {
			continue
		}
		if src.Equal(c.option.SourceType) {
			if second := GetImplicitConversionOption(c.option.DestType, dst); !second.IsNone() {
				return c.option, second
			}
		}
		if dst.Equal(c.option.DestType) {
			if first := GetImplicitConversionOption(src, c.option.SourceType); !first.IsNone() {
				return first, c.option
			}
		}
	}
	return NoneOption(), NoneOption()
}

// IsImplicitlyConvertibleTo reports whether a single- or double-hop
// implicit chain exists from src to dst.
func IsImplicitlyConvertibleTo(src, dst rtti.Type) bool {
	c1, _ := GetImplicitConversionOptions(src, dst)
	return !c1.IsNone()
}

func addStaticCast(opt ConversionOption, implicit bool) {
	staticCastSingleton.mu.Lock()
	defer staticCastSingleton.mu.Unlock()
	staticCastSingleton.casts = append(staticCastSingleton.casts, &staticCast{option: opt, implicit: implicit})
}

// RegisterStaticCast registers a S->D static cast built from convert
// (mirrors static_cast<D>(*src)). implicit controls whether this direction
// may be chosen without the caller naming "static_cast" explicitly. If
// dedicatedVector is true, an element-wise []S->[]D cast is additionally
// registered (marked non-implicit, since chaining through a vector element
// cast is not a scalar identity operation). Register the reverse D->S
// direction, if wanted, with a second call.
func RegisterStaticCast[S, D any](convert func(S) D, implicit, dedicatedVector bool) {
	var s S
	var d D
	srcType := rtti.TypeOf(s)
	dstType := rtti.TypeOf(d)

	if srcType.UnderlyingType().Equal(dstType) || srcType.Equal(dstType.UnderlyingType()) {
		// Same underlying storage: no function needed, ConstOffset(0)
		// is synthesized on demand by GetConversionOption.
		return
	}

	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		srcVal := intermediate.Reflect().Interface().(S)
		out := convert(srcVal)
		destination.Reflect().Set(reflectValueOf(out))
		return nil
	}
	addStaticCast(NewStandardFnOption(srcType, dstType, chainedFirstFn(finalFn, dstType), finalFn), implicit)

	if dedicatedVector {
		registerVectorCast[S, D](convert, srcType, dstType)
	}
}

// RegisterBidirectionalStaticCast registers both S->D and D->S in one
// call, mirroring the teacher-family's register<S,D,reverse=true>()
// convenience form.
func RegisterBidirectionalStaticCast[S, D any](toDst func(S) D, toSrc func(D) S, forwardImplicit, backwardImplicit, dedicatedVector bool) {
	RegisterStaticCast[S, D](toDst, forwardImplicit, dedicatedVector)
	RegisterStaticCast[D, S](toSrc, backwardImplicit, dedicatedVector)
}

func registerVectorCast[S, D any](convert func(S) D, srcType, dstType rtti.Type) {
	vecSrcType := rtti.TypeFromReflect(reflectSliceOf[S]())
	vecDstType := rtti.TypeFromReflect(reflectSliceOf[D]())
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		n := intermediate.ListLen()
		destination.ResizeList(n)
		for i := 0; i < n; i++ {
			srcElem := intermediate.ListElement(i).Reflect().Interface().(S)
			destination.MutableListElement(i).Reflect().Set(reflectValueOf(convert(srcElem)))
		}
		return nil
	}
	addStaticCast(NewStandardFnOption(vecSrcType, vecDstType, chainedFirstFn(finalFn, vecDstType), finalFn), false)
}
