package conversion

import (
	"reflect"
	"testing"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/rawbytedev/rttic/rtti/stream"
	"github.com/stretchr/testify/require"
)

type coordinates struct {
	X int32
	Y int32
	Label string
}

type sensorReading struct {
	Sensor string
	Value  float64
	Tags   []string
}

func TestGetTupleElementConstOffset(t *testing.T) {
	get, _ := Find("get")
	co, err := Compile(NewOneOpSequence(get), false, rtti.TypeOf(coordinates{}), rtti.TypeOf(""))
	require.NoError(t, err)

	src := coordinates{X: 3, Y: 4, Label: "here"}
	var dst string
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, "here", dst)
}

// When more than one field shares dst's type, GetConversionOption resolves
// to the first tuple-layout match (X before Y here) rather than rejecting
// the sequence: field selection by type alone is inherently a "first
// match wins" rule once fields share a type.
func TestGetTupleElementPicksFirstMatchingFieldByType(t *testing.T) {
	get, _ := Find("get")
	co, err := Compile(NewOneOpSequence(get), false, rtti.TypeOf(coordinates{}), rtti.TypeOf(int32(0)))
	require.NoError(t, err)

	src := coordinates{X: 11, Y: 22, Label: "pt"}
	var dst int32
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, int32(11), dst)
}

func TestToVectorStringToByteSlice(t *testing.T) {
	toVector, _ := Find("To Vector")
	co, err := Compile(NewOneOpSequence(toVector), false, rtti.TypeOf(""), rtti.TypeOf([]byte(nil)))
	require.NoError(t, err)

	src := "hello"
	var dst []byte
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, []byte("hello"), dst)
}

func TestToVectorArrayToList(t *testing.T) {
	toVector, _ := Find("To Vector")
	co, err := Compile(NewOneOpSequence(toVector), false, rtti.TypeOf([3]int32{}), rtti.TypeOf([]int32(nil)))
	require.NoError(t, err)

	src := [3]int32{5, 6, 7}
	var dst []int32
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, []int32{5, 6, 7}, dst)
}

func TestMakeStringFromByteSlice(t *testing.T) {
	makeString, _ := Find("Make String")
	co, err := Compile(NewOneOpSequence(makeString), false, rtti.TypeOf([]byte(nil)), rtti.TypeOf(""))
	require.NoError(t, err)

	src := []byte("world")
	var dst string
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, "world", dst)
}

func TestSizeOfList(t *testing.T) {
	size, _ := Find("size()")
	co, err := Compile(NewOneOpSequence(size), false, rtti.TypeOf([]int32(nil)), rtti.TypeOf(uint64(0)))
	require.NoError(t, err)

	src := []int32{1, 2, 3, 4}
	var dst uint64
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, uint64(4), dst)
}

func TestSizeOfArray(t *testing.T) {
	size, _ := Find("size()")
	co, err := Compile(NewOneOpSequence(size), false, rtti.TypeOf([3]int32{}), rtti.TypeOf(uint64(0)))
	require.NoError(t, err)

	src := [3]int32{9, 9, 9}
	var dst uint64
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, uint64(3), dst)
}

func TestBinarySerializationRoundTripScalar(t *testing.T) {
	binSer, _ := Find("Binary Serialization")
	binDeser, _ := Find("Binary Deserialization")
	serOp, err := Compile(NewOneOpSequence(binSer), false, rtti.TypeOf(int32(0)), rtti.TypeOf(stream.MemoryBuffer{}))
	require.NoError(t, err)
	deserOp, err := Compile(NewOneOpSequence(binDeser), false, rtti.TypeOf(stream.MemoryBuffer{}), rtti.TypeOf(int32(0)))
	require.NoError(t, err)

	src := int32(-42)
	var buf stream.MemoryBuffer
	srcVal := reflect.ValueOf(&src).Elem()
	bufVal := reflect.ValueOf(&buf).Elem()
	require.NoError(t, serOp.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(bufVal)))

	var dst int32
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, deserOp.Convert(rtti.ConstPointerTo(bufVal), rtti.PointerTo(dstVal)))
	require.Equal(t, src, dst)
}

// TestBinarySerializationRoundTripAutoStruct exercises the fallback path
// (rtti.canAutoBinaryEncode / structcodec.Marshal-Unmarshal) for a struct
// that implements no BinarySerializable method of its own.
func TestBinarySerializationRoundTripAutoStruct(t *testing.T) {
	readingType := rtti.TypeOf(sensorReading{})
	require.True(t, readingType.Traits().Has(rtti.TraitBinarySerializable))

	binSer, _ := Find("Binary Serialization")
	binDeser, _ := Find("Binary Deserialization")
	serOp, err := Compile(NewOneOpSequence(binSer), false, readingType, rtti.TypeOf(stream.MemoryBuffer{}))
	require.NoError(t, err)
	deserOp, err := Compile(NewOneOpSequence(binDeser), false, rtti.TypeOf(stream.MemoryBuffer{}), readingType)
	require.NoError(t, err)

	src := sensorReading{Sensor: "temp-3", Value: 21.5, Tags: []string{"lab", "east"}}
	var buf stream.MemoryBuffer
	srcVal := reflect.ValueOf(&src).Elem()
	bufVal := reflect.ValueOf(&buf).Elem()
	require.NoError(t, serOp.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(bufVal)))
	require.Greater(t, buf.Len(), 0)

	var dst sensorReading
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, deserOp.Convert(rtti.ConstPointerTo(bufVal), rtti.PointerTo(dstVal)))
	require.Equal(t, src, dst)
}

// TestToStringChainedIntoStringDeserialization forces ToString's "chained
// first_fn" path (see chainedFirstFn in option.go) end to end via a
// two-operation sequence compiled in one call: int32 -> ToString -> String
// Deserialization -> uint64, going through an intermediate string.
func TestToStringChainedIntoStringDeserialization(t *testing.T) {
	toString, _ := Find("ToString")
	stringDeser, _ := Find("String Deserialization")
	seq := NewTwoOpSequence(toString, stringDeser, rtti.Type{})
	co, err := Compile(seq, false, rtti.TypeOf(int32(0)), rtti.TypeOf(uint64(0)))
	require.NoError(t, err)

	src := int32(777)
	var dst uint64
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, uint64(777), dst)
}

// TestToStringHexFlag exercises ToString's Flags parameter with the Hex
// manipulator bit set and ShowBase left off: a positive value is rendered
// as bare lowercase hex digits, with no "0x" prefix.
func TestToStringHexFlag(t *testing.T) {
	toString, _ := Find("ToString")
	seq := NewOneOpSequence(toString)
	seq.SetParameter(0, uint(toStringHex))
	co, err := Compile(seq, false, rtti.TypeOf(int32(0)), rtti.TypeOf(""))
	require.NoError(t, err)

	src := int32(255)
	var dst string
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, "ff", dst)
}

// TestToStringHexShowBaseUpperCase layers ShowBase and UpperCase onto Hex,
// confirming the two manipulators compose the way the bit table implies.
func TestToStringHexShowBaseUpperCase(t *testing.T) {
	toString, _ := Find("ToString")
	seq := NewOneOpSequence(toString)
	seq.SetParameter(0, uint(toStringHex|toStringShowBase|toStringUpperCase))
	co, err := Compile(seq, false, rtti.TypeOf(int32(0)), rtti.TypeOf(""))
	require.NoError(t, err)

	src := int32(255)
	var dst string
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, "0XFF", dst)
}

// TestToStringDefaultFlagsUnchanged confirms leaving Flags unset preserves
// the plain decimal formatting ToString had before the parameter existed.
func TestToStringDefaultFlagsUnchanged(t *testing.T) {
	toString, _ := Find("ToString")
	co, err := Compile(NewOneOpSequence(toString), false, rtti.TypeOf(int32(0)), rtti.TypeOf(""))
	require.NoError(t, err)

	src := int32(-42)
	var dst string
	srcVal := reflect.ValueOf(&src).Elem()
	dstVal := reflect.ValueOf(&dst).Elem()
	require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
	require.Equal(t, "-42", dst)
}
