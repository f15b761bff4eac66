package rtti

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Name string
	Age  int32
}

type withNested struct {
	Sample sample
}

func TestTypeFromReflectIsInterned(t *testing.T) {
	a := TypeOf(int32(0))
	b := TypeOf(int32(1))
	require.True(t, a.Equal(b))
}

func TestTypeEqualDistinguishesTypes(t *testing.T) {
	require.False(t, TypeOf(int32(0)).Equal(TypeOf(int64(0))))
}

func TestListAndArrayTraits(t *testing.T) {
	listType := TypeOf([]int32(nil))
	require.True(t, listType.IsListType())
	require.False(t, listType.IsArrayType())
	require.True(t, listType.ElementType().Equal(TypeOf(int32(0))))

	arrType := TypeOf([3]int32{})
	require.True(t, arrType.IsArrayType())
	require.Equal(t, 3, arrType.ArrayLen())
}

func TestTupleLayoutMatchesFieldOffsets(t *testing.T) {
	typ := TypeOf(sample{})
	require.True(t, typ.IsTupleType())
	layout := typ.TupleLayout()
	require.Len(t, layout, 2)
	require.True(t, layout[0].Type.Equal(TypeOf("")))
	require.True(t, layout[1].Type.Equal(TypeOf(int32(0))))
	rt := reflect.TypeOf(sample{})
	require.Equal(t, rt.Field(0).Offset, layout[0].Offset)
	require.Equal(t, rt.Field(1).Offset, layout[1].Offset)
}

func TestSizeIncludingPadding(t *testing.T) {
	typ := TypeOf(struct {
		A int8
		B int64
	}{})
	require.GreaterOrEqual(t, typ.Size(true), typ.Size(false))
}

func TestScalarTraitsAreBinaryAndStringSerializable(t *testing.T) {
	typ := TypeOf(int32(0))
	require.True(t, typ.Traits().Has(TraitBinarySerializable))
	require.True(t, typ.Traits().Has(TraitStringSerializable))
}

func TestStructOfPlainFieldsIsAutoBinarySerializable(t *testing.T) {
	typ := TypeOf(sample{})
	require.True(t, typ.Traits().Has(TraitBinarySerializable))
}

func TestStructWithNestedStructIsNotAutoBinarySerializable(t *testing.T) {
	typ := TypeOf(withNested{})
	require.False(t, typ.Traits().Has(TraitBinarySerializable))
}

func TestRegisterUnderlyingTypeCastTraits(t *testing.T) {
	type celsius float64
	RegisterUnderlyingType(TypeOf(celsius(0)).ReflectType(), TypeOf(float64(0)).ReflectType(), true, true, true)
	typ := TypeOf(celsius(0))
	require.True(t, typ.Traits().Has(TraitCastToUnderlyingImplicit))
	require.True(t, typ.Traits().Has(TraitCastFromUnderlyingImplicit))
	require.True(t, typ.UnderlyingType().Equal(TypeOf(float64(0))))
}

func TestFixedSizePanicsOnNonFixedKind(t *testing.T) {
	require.Panics(t, func() { FixedSize(TypeOf("").ReflectType().Kind()) })
}
