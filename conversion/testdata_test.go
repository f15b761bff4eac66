package conversion

import (
	"reflect"
	"testing"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const toStringFixturesYAML = `
- input: 0
  expected: "0"
- input: 99
  expected: "99"
- input: -17
  expected: "-17"
`

type toStringFixture struct {
	Input    int32  `yaml:"input"`
	Expected string `yaml:"expected"`
}

func TestToStringFixturesFromYAML(t *testing.T) {
	var cases []toStringFixture
	require.NoError(t, yaml.Unmarshal([]byte(toStringFixturesYAML), &cases))
	require.NotEmpty(t, cases)

	toString, _ := Find("ToString")
	co, err := Compile(NewOneOpSequence(toString), false, rtti.TypeOf(int32(0)), rtti.TypeOf(""))
	require.NoError(t, err)

	for _, c := range cases {
		var dst string
		srcVal := reflect.ValueOf(&c.Input).Elem()
		dstVal := reflect.ValueOf(&dst).Elem()
		require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
		require.Equal(t, c.Expected, dst)
	}
}

const widenFixturesYAML = `
- input: 0
  expected: 0
- input: 200
  expected: 200
- input: 255
  expected: 255
`

type widenFixture struct {
	Input    uint8  `yaml:"input"`
	Expected uint32 `yaml:"expected"`
}

// TestUint8ToUint32StaticCastFixturesFromYAML exercises the implicit
// widening path (empty-sequence Compile falling back to
// GetImplicitConversionOptions) across a small externally-defined table
// instead of a single hardcoded case.
func TestUint8ToUint32StaticCastFixturesFromYAML(t *testing.T) {
	var cases []widenFixture
	require.NoError(t, yaml.Unmarshal([]byte(widenFixturesYAML), &cases))
	require.NotEmpty(t, cases)

	co, err := Compile(NewEmptySequence(), false, rtti.TypeOf(uint8(0)), rtti.TypeOf(uint32(0)))
	require.NoError(t, err)

	for _, c := range cases {
		var dst uint32
		srcVal := reflect.ValueOf(&c.Input).Elem()
		dstVal := reflect.ValueOf(&dst).Elem()
		require.NoError(t, co.Convert(rtti.ConstPointerTo(srcVal), rtti.PointerTo(dstVal)))
		require.Equal(t, c.Expected, dst)
	}
}
