package conversion

import (
	"reflect"
	"testing"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/rawbytedev/rttic/rtti/stream"
	"github.com/stretchr/testify/require"
)

func convertScalar[S, D any](t *testing.T, co *CompiledOperation, src S) D {
	t.Helper()
	var dst D
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	return dst
}

func TestCompileEmptySequenceIdentity(t *testing.T) {
	int32Type := rtti.TypeOf(int32(0))
	co, err := Compile(NewEmptySequence(), false, int32Type, int32Type)
	require.NoError(t, err)
	require.Equal(t, int32(42), convertScalar[int32, int32](t, co, 42))
}

func TestCompileEmptySequenceSingleHopImplicitCast(t *testing.T) {
	co, err := Compile(NewEmptySequence(), false, rtti.TypeOf(int32(0)), rtti.TypeOf(float64(0)))
	require.NoError(t, err)
	require.Equal(t, float64(7), convertScalar[int32, float64](t, co, 7))
}

func TestCompileEmptySequenceWideningImplicitCast(t *testing.T) {
	co, err := Compile(NewEmptySequence(), false, rtti.TypeOf(uint8(0)), rtti.TypeOf(uint32(0)))
	require.NoError(t, err)
	require.Equal(t, uint32(200), convertScalar[uint8, uint32](t, co, 200))
}

func TestCompileEmptySequenceIncompatibleTypesFails(t *testing.T) {
	_, err := Compile(NewEmptySequence(), false, rtti.TypeOf(int16(0)), rtti.TypeOf(uint64(0)))
	require.Error(t, err)
	require.ErrorIs(t, err, ErrIncompatible)
}

func TestCompileOneOpSequenceToString(t *testing.T) {
	toString, _ := Find("ToString")
	co, err := Compile(NewOneOpSequence(toString), false, rtti.TypeOf(int32(0)), rtti.TypeOf(""))
	require.NoError(t, err)
	require.Equal(t, "99", convertScalar[int32, string](t, co, 99))
}

func TestCompileTwoOpSequenceStringRoundTripInfersIntermediate(t *testing.T) {
	toString, _ := Find("ToString")
	stringDeser, _ := Find("String Deserialization")
	seq := NewTwoOpSequence(toString, stringDeser, rtti.Type{})
	co, err := Compile(seq, false, rtti.TypeOf(int32(0)), rtti.TypeOf(int32(0)))
	require.NoError(t, err)
	require.Equal(t, int32(123), convertScalar[int32, int32](t, co, 123))
}

func TestCompileTypeUnspecifiedWhenNeitherEndpointIsFixed(t *testing.T) {
	seq := NewOneOpSequence(forEachOperation)
	_, err := Compile(seq, false, rtti.Type{}, rtti.Type{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTypeUnspecified)
}

func TestCompileAmbiguousNameResolvedByType(t *testing.T) {
	listType := rtti.TypeOf([]int32(nil))
	arrType := rtti.TypeOf([3]int32{})
	elemType := rtti.TypeOf(int32(0))

	listSeq := NewSequenceByName(rtti.Type{}, "[]")
	listSeq.SetParameter(0, uint(1))
	co, err := Compile(listSeq, false, listType, elemType)
	require.NoError(t, err)

	src := []int32{10, 20, 30}
	srcVal := reflect.ValueOf(&src).Elem()
	var dst int32
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, int32(20), dst)

	arrSeq := NewSequenceByName(rtti.Type{}, "[]")
	arrSeq.SetParameter(0, uint(2))
	arrCo, err := Compile(arrSeq, false, arrType, elemType)
	require.NoError(t, err)
	arrSrc := [3]int32{7, 8, 9}
	arrVal := reflect.ValueOf(&arrSrc).Elem()
	var arrDst int32
	arrDstVal := reflect.ValueOf(&arrDst).Elem()
	require.NoError(t, arrCo.Convert(rtti.ConstPointerTo(arrVal), rtti.PointerTo(arrDstVal)))
	require.Equal(t, int32(9), arrDst)
}

func TestCompileForEachConvertsEveryElement(t *testing.T) {
	forEach, _ := Find("For Each")
	seq := NewOneOpSequence(forEach)
	co, err := Compile(seq, false, rtti.TypeOf([]int32(nil)), rtti.TypeOf([]float64(nil)))
	require.NoError(t, err)

	src := []int32{1, 2, 3}
	var dst []float64
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, []float64{1, 2, 3}, dst)
}

func TestCompileWrapIsZeroCopyAlias(t *testing.T) {
	wrap, _ := Find("Wrap")
	co, err := Compile(NewOneOpSequence(wrap), true, rtti.TypeOf([]byte(nil)), rtti.TypeOf(stream.MemoryBuffer{}))
	require.NoError(t, err)
	require.True(t, co.Flags().Has(FlagResultAliasesSourceInternally))
	// Wrap constructs a new MemoryBuffer value rather than reinterpreting
	// source's own address, so it never supports the raw-pointer alias path.
	require.False(t, co.CanConvertToReference())

	src := []byte{1, 2, 3}
	srcVal := reflect.ValueOf(&src).Elem()
	var dst stream.MemoryBuffer
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, src, dst.Bytes())
}

// TestCompileWrapThenIdentityStaticCastStillAliasesSource chains Wrap with
// a same-type static_cast second step that fuseSecondStep collapses away
// (ConstOffset(0) between equal types folds into just c1.FinalFn). The
// collapsed step must still be reported as aliasing the source internally,
// not as independent, since c1 itself was ResultAliasesSource.
func TestCompileWrapThenIdentityStaticCastStillAliasesSource(t *testing.T) {
	wrap, _ := Find("Wrap")
	staticCast, _ := Find("static_cast")
	seq := NewTwoOpSequence(wrap, staticCast, rtti.TypeOf(stream.MemoryBuffer{}))
	co, err := Compile(seq, true, rtti.TypeOf([]byte(nil)), rtti.TypeOf(stream.MemoryBuffer{}))
	require.NoError(t, err)
	require.True(t, co.Flags().Has(FlagResultAliasesSourceInternally))
	require.False(t, co.Flags().Has(FlagResultIndependent))

	src := []byte{4, 5, 6}
	srcVal := reflect.ValueOf(&src).Elem()
	var dst stream.MemoryBuffer
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, src, dst.Bytes())
}

// TestCompileGetListElementThenWrapAliasesSource chains a VariableOffset
// first step ("[]") with a ResultAliasesSource second step (Wrap). With
// aliasing allowed, the destination still shares the selected element's
// storage, so the compiled operation must report
// FlagResultAliasesSourceInternally rather than treating Wrap as an
// independent materializing second step.
func TestCompileGetListElementThenWrapAliasesSource(t *testing.T) {
	getElem, _ := Find("[]")
	wrap, _ := Find("Wrap")
	seq := NewTwoOpSequence(getElem, wrap, rtti.TypeOf([]byte(nil)))
	seq.SetParameter(0, uint(1))
	co, err := Compile(seq, true, rtti.TypeOf([][]byte(nil)), rtti.TypeOf(stream.MemoryBuffer{}))
	require.NoError(t, err)
	require.True(t, co.Flags().Has(FlagResultAliasesSourceInternally))
	require.False(t, co.Flags().Has(FlagResultIndependent))

	src := [][]byte{{1, 2}, {3, 4, 5}, {6}}
	srcVal := reflect.ValueOf(&src).Elem()
	var dst stream.MemoryBuffer
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, src[1], dst.Bytes())
}
