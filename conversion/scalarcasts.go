package conversion

import (
	"reflect"

	"github.com/rawbytedev/rttic/rtti"
)

// scalarCastKinds enumerates every scalar kind the static-cast table covers
// pairwise: the eight fixed-width integers, both floats, and bool. Every
// unordered pair among them is registered in both directions, mirroring
// the full built-in conversion matrix registered for the eleven scalar
// kinds in the teacher family's defined_conversions translation unit.
var scalarCastKinds = []reflect.Kind{
	reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
	reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
	reflect.Float32, reflect.Float64, reflect.Bool,
}

func scalarKindType(k reflect.Kind) reflect.Type {
	switch k {
	case reflect.Int8:
		return reflect.TypeOf(int8(0))
	case reflect.Int16:
		return reflect.TypeOf(int16(0))
	case reflect.Int32:
		return reflect.TypeOf(int32(0))
	case reflect.Int64:
		return reflect.TypeOf(int64(0))
	case reflect.Uint8:
		return reflect.TypeOf(uint8(0))
	case reflect.Uint16:
		return reflect.TypeOf(uint16(0))
	case reflect.Uint32:
		return reflect.TypeOf(uint32(0))
	case reflect.Uint64:
		return reflect.TypeOf(uint64(0))
	case reflect.Float32:
		return reflect.TypeOf(float32(0))
	case reflect.Float64:
		return reflect.TypeOf(float64(0))
	case reflect.Bool:
		return reflect.TypeOf(false)
	default:
		panic("conversion: unsupported scalar cast kind")
	}
}

// scalarKindInfo describes a numeric kind's width and domain, used to
// decide whether a cast between two kinds is lossless (spec §4.D's
// "implicit" gate: a cast may be chosen without the caller naming
// static_cast only if converting back would not be needed to recover the
// value in the general case).
func scalarKindInfo(k reflect.Kind) (bits int, signed, isFloat bool) {
	switch k {
	case reflect.Int8:
		return 8, true, false
	case reflect.Int16:
		return 16, true, false
	case reflect.Int32:
		return 32, true, false
	case reflect.Int64:
		return 64, true, false
	case reflect.Uint8:
		return 8, false, false
	case reflect.Uint16:
		return 16, false, false
	case reflect.Uint32:
		return 32, false, false
	case reflect.Uint64:
		return 64, false, false
	case reflect.Float32:
		return 32, true, true
	case reflect.Float64:
		return 64, true, true
	default:
		return 0, false, false
	}
}

// scalarCastIsLossless reports whether every value of srcKind survives a
// round trip through dstKind without losing information: same-domain
// widening, integer-to-float widening that fits the destination's
// significand, and bool-to-anything (0/1 always round-trips). Everything
// else - narrowing, float-to-int, cross-sign narrowing, anything-to-bool -
// is a potentially lossy cast and is registered non-implicit: reachable
// only by naming "static_cast" explicitly, never picked silently by an
// empty-sequence Compile.
func scalarCastIsLossless(srcKind, dstKind reflect.Kind) bool {
	if srcKind == reflect.Bool {
		return true
	}
	if dstKind == reflect.Bool {
		return false
	}
	sBits, sSigned, sFloat := scalarKindInfo(srcKind)
	dBits, dSigned, dFloat := scalarKindInfo(dstKind)
	switch {
	case sFloat && !dFloat:
		return false
	case !sFloat && dFloat:
		mantissaBits := 24
		if dBits == 64 {
			mantissaBits = 53
		}
		return sBits <= mantissaBits
	case sFloat && dFloat:
		return dBits >= sBits
	case sSigned == dSigned:
		return dBits >= sBits
	case sSigned && !dSigned:
		return false
	default: // unsigned -> signed: needs a spare bit for the sign
		return dBits > sBits
	}
}

// scalarConvertFunc returns a function that copies src's value into dst
// (already addressed at the correct destination kind), applying the same
// truncating/widening/rounding rules a static_cast would. Go's
// reflect.Value.Convert already implements those rules for every
// int/uint/float combination; bool needs its own 0/1 and nonzero mapping
// since Go's conversion rules don't extend to bool.
func scalarConvertFunc(srcKind, dstKind reflect.Kind, dstRT reflect.Type) func(src, dst reflect.Value) {
	switch {
	case dstKind == reflect.Bool:
		return func(src, dst reflect.Value) { dst.SetBool(!isScalarZero(src)) }
	case srcKind == reflect.Bool:
		zero, one := reflect.ValueOf(0).Convert(dstRT), reflect.ValueOf(1).Convert(dstRT)
		return func(src, dst reflect.Value) {
			if src.Bool() {
				dst.Set(one)
			} else {
				dst.Set(zero)
			}
		}
	default:
		return func(src, dst reflect.Value) { dst.Set(src.Convert(dstRT)) }
	}
}

func isScalarZero(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	default:
		return false
	}
}

// registerScalarCastMatrix registers every ordered pair among
// scalarCastKinds (55 unordered pairs, both directions, each with a
// dedicated element-wise vector cast) via a single reflect-driven code
// path instead of one hand-written closure per pair.
func registerScalarCastMatrix() {
	for i := 0; i < len(scalarCastKinds); i++ {
		for j := i + 1; j < len(scalarCastKinds); j++ {
			registerScalarCastDirection(scalarCastKinds[i], scalarCastKinds[j])
			registerScalarCastDirection(scalarCastKinds[j], scalarCastKinds[i])
		}
	}
}

func registerScalarCastDirection(srcKind, dstKind reflect.Kind) {
	srcRT, dstRT := scalarKindType(srcKind), scalarKindType(dstKind)
	srcType, dstType := rtti.TypeFromReflect(srcRT), rtti.TypeFromReflect(dstRT)
	if srcType.UnderlyingType().Equal(dstType) || srcType.Equal(dstType.UnderlyingType()) {
		return
	}

	convertOne := scalarConvertFunc(srcKind, dstKind, dstRT)
	implicit := scalarCastIsLossless(srcKind, dstKind)

	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		convertOne(intermediate.Reflect(), destination.Reflect())
		return nil
	}
	addStaticCast(NewStandardFnOption(srcType, dstType, chainedFirstFn(finalFn, dstType), finalFn), implicit)

	vecSrcType := rtti.TypeFromReflect(reflect.SliceOf(srcRT))
	vecDstType := rtti.TypeFromReflect(reflect.SliceOf(dstRT))
	vecFinalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		n := intermediate.ListLen()
		destination.ResizeList(n)
		for i := 0; i < n; i++ {
			convertOne(intermediate.ListElement(i).Reflect(), destination.MutableListElement(i).Reflect())
		}
		return nil
	}
	addStaticCast(NewStandardFnOption(vecSrcType, vecDstType, chainedFirstFn(vecFinalFn, vecDstType), vecFinalFn), false)
}
