package conversion

import (
	"testing"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/stretchr/testify/require"
)

func TestGetImplicitConversionOptionSingleHop(t *testing.T) {
	opt := GetImplicitConversionOption(rtti.TypeOf(int32(0)), rtti.TypeOf(float64(0)))
	require.False(t, opt.IsNone())
	require.Equal(t, KindStandardFn, opt.Kind)
}

func TestGetImplicitConversionOptionsTwoHopChain(t *testing.T) {
	// hops wraps uint8 with an implicit cast to its underlying type. No
	// cast is registered from hops to uint32, so the chain goes
	// hops -> uint8 (ConstOffset) and then uint8 -> uint32.
	type hops uint8
	rtti.RegisterUnderlyingType(rtti.TypeOf(hops(0)).ReflectType(), rtti.TypeOf(uint8(0)).ReflectType(), true, false, false)
	c1, c2 := GetImplicitConversionOptions(rtti.TypeOf(hops(0)), rtti.TypeOf(uint32(0)))
	require.False(t, c1.IsNone())
	require.False(t, c2.IsNone())
	require.True(t, c1.DestType.Equal(c2.SourceType))
}

func TestIsImplicitlyConvertibleToRejectsNonImplicitPair(t *testing.T) {
	// int8 -> uint8 is registered non-implicit (both directions false).
	require.False(t, IsImplicitlyConvertibleTo(rtti.TypeOf(int8(0)), rtti.TypeOf(uint8(0))))
}

func TestStaticCastIdentityIsConstOffsetZero(t *testing.T) {
	opt := staticCastSingleton.GetConversionOption(rtti.TypeOf(int32(0)), rtti.TypeOf(int32(0)))
	require.Equal(t, KindConstOffset, opt.Kind)
	require.Zero(t, opt.Offset)
}

func TestStaticCastExplicitFindsNonImplicitRegistration(t *testing.T) {
	opt := staticCastSingleton.GetConversionOption(rtti.TypeOf(int8(0)), rtti.TypeOf(uint8(0)))
	require.False(t, opt.IsNone())
}

func TestRegisterBidirectionalStaticCastRoundTrip(t *testing.T) {
	type widget int32
	rtti.RegisterUnderlyingType(rtti.TypeOf(widget(0)).ReflectType(), rtti.TypeOf(int32(0)).ReflectType(), false, false, false)
	RegisterBidirectionalStaticCast(
		func(v widget) string { return "" },
		func(v string) widget { return 0 },
		false, false, false,
	)
	opt := staticCastSingleton.GetConversionOption(rtti.TypeOf(widget(0)), rtti.TypeOf(""))
	require.False(t, opt.IsNone())
	reverse := staticCastSingleton.GetConversionOption(rtti.TypeOf(""), rtti.TypeOf(widget(0)))
	require.False(t, reverse.IsNone())
}
