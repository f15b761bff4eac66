package conversion

import (
	"testing"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/stretchr/testify/require"
)

func TestSequenceEqualIgnoresAmbiguityBookkeeping(t *testing.T) {
	a := NewSequenceByName(rtti.Type{}, "[]")
	b := NewSequenceByName(rtti.Type{}, "[]")
	require.True(t, a.Equal(b))

	a.SetParameter(0, uint(1))
	require.False(t, a.Equal(b))
	b.SetParameter(0, uint(1))
	require.True(t, a.Equal(b))

	b.SetParameter(0, uint(2))
	require.False(t, a.Equal(b))
}

func TestSequenceCloneDuplicatesParameters(t *testing.T) {
	seq := NewSequenceByName(rtti.Type{}, "[]")
	seq.SetParameter(0, uint(3))
	clone := seq.Clone()

	require.True(t, seq.Equal(clone))
	clone.SetParameter(0, uint(4))
	require.False(t, seq.Equal(clone))
	require.Equal(t, uint(3), seq.Parameter(0).Interface())
}

func TestSequenceSerializeRoundTripsOneOp(t *testing.T) {
	toString, _ := Find("ToString")
	seq := NewOneOpSequence(toString)

	wire := seq.Serialize()
	decoded, err := DeserializeSequence(wire, true)
	require.NoError(t, err)
	require.Equal(t, 1, decoded.Size())
	require.Same(t, toString, decoded.Operation(0))
}

func TestSequenceSerializeRoundTripsTwoOpsWithIntermediate(t *testing.T) {
	toString, _ := Find("ToString")
	stringDeser, _ := Find("String Deserialization")
	seq := NewTwoOpSequence(toString, stringDeser, rtti.TypeOf(""))

	wire := seq.Serialize()
	decoded, err := DeserializeSequence(wire, true)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Size())
	require.Same(t, toString, decoded.Operation(0))
	require.Same(t, stringDeser, decoded.Operation(1))
	require.True(t, rtti.TypeOf("").Equal(decoded.IntermediateType()))
}

func TestSequenceSerializeRoundTripsParameter(t *testing.T) {
	seq := NewSequenceByName(rtti.Type{}, "[]")
	seq.SetParameter(0, uint(5))

	wire := seq.Serialize()
	decoded, err := DeserializeSequence(wire, true)
	require.NoError(t, err)
	require.Equal(t, uint(5), decoded.Parameter(0).Interface())
}

func TestSequenceDeserializeUnknownOperationFailsWhenRequired(t *testing.T) {
	seq := NewSequenceByName(rtti.Type{}, "definitely-not-a-registered-operation")
	// The name matches no registered operation, so Serialize writes the
	// bare name with no operation descriptor.
	wire := seq.Serialize()

	_, err := DeserializeSequence(wire, true)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedWire)
}

func TestSequenceDeserializeUnknownOperationToleratedWhenNotRequired(t *testing.T) {
	seq := NewSequenceByName(rtti.Type{}, "definitely-not-a-registered-operation")
	wire := seq.Serialize()

	decoded, err := DeserializeSequence(wire, false)
	require.NoError(t, err)
	require.Nil(t, decoded.Operation(0))
}

func TestSequenceDeserializeRejectsOversizedSequence(t *testing.T) {
	_, err := DeserializeSequence([]byte{3}, true)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrMalformedWire)
}

// TestSequenceSerializeWritesFullDescriptorForKnownOperation confirms a
// slot backed by a resolved operation is written with the full-descriptor
// flag set and its supported-type filters attached, not just its name.
func TestSequenceSerializeWritesFullDescriptorForKnownOperation(t *testing.T) {
	toString, _ := Find("ToString")
	seq := NewOneOpSequence(toString)

	wire := seq.Serialize()
	require.Equal(t, byte(1), wire[0])
	flags := wire[1]
	require.NotZero(t, flags&slotFlagFullDescriptor)
}

// TestSequenceDeserializeFilterMismatchIsUnresolved shows that a full
// descriptor is matched on name and filter together: corrupting the
// encoded source filter after a valid operation name leaves the slot
// unresolved even though the name itself is registered, matching the
// original's descriptor-based matching over name-alone matching.
func TestSequenceDeserializeFilterMismatchIsUnresolved(t *testing.T) {
	toString, _ := Find("ToString")
	seq := NewOneOpSequence(toString)
	wire := seq.Serialize()

	// wire layout: [size][flags][name varint+bytes][source filter byte]...
	nameLen := int(wire[2])
	filterOffset := 3 + nameLen
	wire[filterOffset] = byte(FilterAll)

	decoded, err := DeserializeSequence(wire, false)
	require.NoError(t, err)
	require.Nil(t, decoded.Operation(0))
}
