package conversion

import (
	"github.com/rawbytedev/rttic/rtti"
	"github.com/rawbytedev/rttic/rtti/stream"
)

type sequenceSlot struct {
	op          Operation
	name        string
	ambiguous   bool
	parameter   *rtti.GenericObject
	paramString *string
}

// OperationSequence describes up to two conversion steps plus an optional
// intermediate type and per-step parameters. It is a plain value type:
// deep-copying it duplicates parameters, and it is not internally
// synchronized (callers confine it to one goroutine or serialize access
// themselves, per spec §5).
type OperationSequence struct {
	slots            [2]sequenceSlot
	size             int
	intermediateType rtti.Type
}

// NewEmptySequence returns a sequence with no operations: Compile will use
// the static-cast machinery alone.
func NewEmptySequence() *OperationSequence { return &OperationSequence{} }

// NewOneOpSequence returns a single-step sequence.
func NewOneOpSequence(op Operation) *OperationSequence {
	return &OperationSequence{slots: [2]sequenceSlot{{op: op}}, size: 1}
}

// NewTwoOpSequence returns a two-step sequence with an explicit
// intermediate type.
func NewTwoOpSequence(op0, op1 Operation, intermediate rtti.Type) *OperationSequence {
	return &OperationSequence{
		slots:            [2]sequenceSlot{{op: op0}, {op: op1}},
		size:             2,
		intermediateType: intermediate,
	}
}

// NewSequenceByName looks up each named operation immediately. An
// ambiguous lookup is recorded rather than rejected, so that later
// knowledge of (src, dst) can resolve it during Compile. names must have
// length 1 or 2, and the sequence gets one active slot per name. A name
// that matches no registered operation (including the empty string) leaves
// that slot active with a nil operation.
func NewSequenceByName(intermediate rtti.Type, names ...string) *OperationSequence {
	if len(names) == 0 || len(names) > 2 {
		panic("conversion: NewSequenceByName takes 1 or 2 names")
	}
	seq := &OperationSequence{size: len(names), intermediateType: intermediate}
	for i, n := range names {
		op, ambiguous := Find(n)
		seq.slots[i] = sequenceSlot{op: op, name: n, ambiguous: ambiguous}
	}
	return seq
}

// Size returns the number of active slots (0, 1, or 2).
func (s *OperationSequence) Size() int { return s.size }

// IntermediateType returns the sequence's declared intermediate type; the
// zero Type (IsValid() == false) means "not specified".
func (s *OperationSequence) IntermediateType() rtti.Type { return s.intermediateType }

// Operation returns the operation reference at slot i (nil if unresolved
// or absent).
func (s *OperationSequence) Operation(i int) Operation {
	if i < 0 || i >= s.size {
		return nil
	}
	return s.slots[i].op
}

// SetParameter deep-copies value into a fresh owned GenericObject stored at
// slot i.
func (s *OperationSequence) SetParameter(i int, value any) {
	s.slots[i].parameter = rtti.NewGenericObject(value)
	s.slots[i].paramString = nil
}

// SetParameterString stores a textual parameter whose conversion to the
// operation's declared parameter type is deferred until Compile.
func (s *OperationSequence) SetParameterString(i int, text string) {
	s.slots[i].paramString = &text
	s.slots[i].parameter = nil
}

// Parameter returns the resolved parameter GenericObject at slot i, or nil
// if none was set (or it is still a deferred string awaiting Compile).
func (s *OperationSequence) Parameter(i int) *rtti.GenericObject {
	return s.slots[i].parameter
}

// Equal reports structural equality: same operations, same intermediate
// type, same parameters. Unresolved-ambiguity bookkeeping is ignored, per
// spec §4.E.
func (s *OperationSequence) Equal(o *OperationSequence) bool {
	if s.size != o.size || !s.intermediateType.Equal(o.intermediateType) {
		return false
	}
	for i := 0; i < s.size; i++ {
		a, b := s.slots[i], o.slots[i]
		if a.op != b.op {
			return false
		}
		switch {
		case a.parameter == nil && b.parameter == nil:
		case a.parameter == nil || b.parameter == nil:
			return false
		default:
			if !a.parameter.Equals(b.parameter) {
				return false
			}
		}
	}
	return true
}

// Clone returns a deep copy: parameters are duplicated, operation
// references are shared (they are process-lifetime borrows).
func (s *OperationSequence) Clone() *OperationSequence {
	clone := *s
	for i := range clone.slots {
		if s.slots[i].parameter != nil {
			clone.slots[i].parameter = s.slots[i].parameter.Clone()
		}
	}
	return &clone
}

const (
	slotFlagFullDescriptor = 1 << 0
	slotFlagParameter      = 1 << 1
)

// Serialize encodes the sequence in the on-wire format of spec §4.E: a
// size byte, then per-slot flags/name/parameter, then (if size >= 2) the
// intermediate type name. A slot whose operation is known locally is
// written as a full descriptor - name plus both sides' supported-type
// filters - so a receiver with a differently-ordered registry can still
// resolve it unambiguously instead of trusting the name alone.
func (s *OperationSequence) Serialize() []byte {
	out := stream.NewBinaryOutputStream()
	out.WriteBytes([]byte{byte(s.size)})
	for i := 0; i < s.size; i++ {
		slot := s.slots[i]
		flags := byte(0)
		if slot.parameter != nil {
			flags |= slotFlagParameter
		}
		if slot.op != nil {
			flags |= slotFlagFullDescriptor
		}
		out.WriteBytes([]byte{flags})
		name := slot.name
		if slot.op != nil {
			name = slot.op.Name()
		}
		writeWireString(out, name)
		if slot.op != nil {
			writeSupportedTypes(out, slot.op.SupportedSource())
			writeSupportedTypes(out, slot.op.SupportedDestination())
		}
		if slot.parameter != nil {
			writeGenericObject(out, slot.parameter)
		}
	}
	if s.size >= 2 {
		writeWireString(out, s.intermediateType.Name())
	}
	return out.Bytes()
}

// DeserializeSequence decodes what Serialize produced. Names that don't
// resolve to a registered operation produce a MalformedWire error unless
// requireKnownOperations is false, matching the "configurable to be fatal"
// policy of spec §7.
func DeserializeSequence(data []byte, requireKnownOperations bool) (*OperationSequence, error) {
	in := stream.NewBinaryInputStream(data)
	sizeB, err := in.ReadBytes(1)
	if err != nil {
		return nil, wrapError(KindMalformedWire, err, "reading sequence size")
	}
	size := int(sizeB[0])
	if size > 2 {
		return nil, newError(KindMalformedWire, "sequence size %d exceeds 2", size)
	}
	seq := &OperationSequence{size: size}
	for i := 0; i < size; i++ {
		flagsB, err := in.ReadBytes(1)
		if err != nil {
			return nil, wrapError(KindMalformedWire, err, "reading slot %d flags", i)
		}
		flags := flagsB[0]
		name, err := readWireString(in)
		if err != nil {
			return nil, wrapError(KindMalformedWire, err, "reading slot %d name", i)
		}
		var op Operation
		var ambiguous bool
		if flags&slotFlagFullDescriptor != 0 {
			source, err := readSupportedTypes(in)
			if err != nil {
				return nil, wrapError(KindMalformedWire, err, "reading slot %d source filter", i)
			}
			destination, err := readSupportedTypes(in)
			if err != nil {
				return nil, wrapError(KindMalformedWire, err, "reading slot %d destination filter", i)
			}
			op, _ = findByNameAndFilter(name, source, destination)
		} else {
			op, ambiguous = Find(name)
		}
		if op == nil && requireKnownOperations {
			return nil, newError(KindMalformedWire, "unknown operation %q", name)
		}
		seq.slots[i] = sequenceSlot{op: op, name: name, ambiguous: ambiguous}
		if flags&slotFlagParameter != 0 {
			obj, err := readGenericObject(in)
			if err != nil {
				return nil, wrapError(KindMalformedWire, err, "reading slot %d parameter", i)
			}
			seq.slots[i].parameter = obj
		}
	}
	if size >= 2 {
		name, err := readWireString(in)
		if err != nil {
			return nil, wrapError(KindMalformedWire, err, "reading intermediate type")
		}
		t, ok := rtti.LookupTypeByName(name)
		if !ok {
			return nil, newError(KindMalformedWire, "unknown intermediate type %q", name)
		}
		seq.intermediateType = t
	}
	return seq, nil
}

// writeSupportedTypes encodes a SupportedTypes descriptor: the filter byte,
// followed by the single type's name when the filter is FilterSingle.
func writeSupportedTypes(out *stream.BinaryOutputStream, st SupportedTypes) {
	out.WriteBytes([]byte{byte(st.Filter)})
	if st.Filter == FilterSingle {
		writeWireString(out, st.SingleType.Name())
	}
}

func readSupportedTypes(in *stream.BinaryInputStream) (SupportedTypes, error) {
	fb, err := in.ReadBytes(1)
	if err != nil {
		return SupportedTypes{}, err
	}
	filter := SupportedTypeFilter(fb[0])
	if filter != FilterSingle {
		return Filtered(filter), nil
	}
	name, err := readWireString(in)
	if err != nil {
		return SupportedTypes{}, err
	}
	t, ok := rtti.LookupTypeByName(name)
	if !ok {
		return SupportedTypes{}, newError(KindMalformedWire, "unknown supported-type %q", name)
	}
	return Single(t), nil
}

func writeWireString(out *stream.BinaryOutputStream, s string) {
	out.WriteVarUint(uint64(len(s)))
	out.WriteBytes([]byte(s))
}

func readWireString(in *stream.BinaryInputStream) (string, error) {
	n, err := in.ReadVarUint()
	if err != nil {
		return "", err
	}
	b, err := in.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
