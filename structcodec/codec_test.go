package structcodec

import (
	"reflect"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	type record struct {
		Name    string
		Age     int32
		Score   float64
		Active  bool
		Tags    []string
		Weights []float32
	}
	in := record{
		Name:    "ada",
		Age:     36,
		Score:   9.5,
		Active:  true,
		Tags:    []string{"pioneer", "mathematician"},
		Weights: []float32{1.5, 2.5, 3.5},
	}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out record
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, in, out)
}

func TestMarshalUnmarshalScalarsQuick(t *testing.T) {
	type scalars struct {
		A uint8
		B int8
		C uint16
		D int16
		E uint32
		F int32
		G uint64
		H int64
		I bool
		J float32
		K float64
	}
	condition := func(z scalars) bool {
		data, err := Marshal(z)
		require.NoError(t, err)
		var got scalars
		require.NoError(t, Unmarshal(data, &got))
		return assert.ObjectsAreEqual(z, got)
	}
	require.NoError(t, quick.Check(condition, &quick.Config{}))
}

func TestMarshalRejectsNonStruct(t *testing.T) {
	_, err := Marshal(42)
	require.ErrorIs(t, err, ErrNotStruct)
}

func TestUnmarshalRejectsNonPointer(t *testing.T) {
	type s struct{ X int32 }
	err := Unmarshal([]byte{0}, s{})
	require.ErrorIs(t, err, ErrNotStructPtr)
}

func TestCanEncode(t *testing.T) {
	type ok struct {
		A string
		B []byte
		C int64
		D []int32
	}
	type unsupported struct {
		Nested struct{ X int32 }
	}
	require.True(t, CanEncode(reflect.TypeOf(ok{})))
	require.False(t, CanEncode(reflect.TypeOf(unsupported{})))
	require.False(t, CanEncode(reflect.TypeOf(42)))
}

func TestByteSliceFieldRoundTrip(t *testing.T) {
	type withBytes struct {
		Blob []byte
	}
	in := withBytes{Blob: []byte{1, 2, 3, 4, 5}}
	data, err := Marshal(in)
	require.NoError(t, err)
	var out withBytes
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, in, out)
}
