package stream

import "github.com/rawbytedev/rttic/rtti"

// MemoryBuffer is the concrete type behind the engine's built-in
// BinarySerializable ↔ MemoryBuffer and vector<uint8> ↔ MemoryBuffer
// conversions. Its zero value is an empty, owned buffer. NewMemoryBuffer
// wraps existing storage without copying it, matching the Wrap operation's
// zero-copy contract.
type MemoryBuffer struct {
	data  []byte
	owned bool
}

// NewMemoryBuffer wraps an existing byte slice without copying it. Callers
// that need an independent buffer should call Clone.
func NewMemoryBuffer(data []byte) MemoryBuffer {
	return MemoryBuffer{data: data, owned: false}
}

// NewOwnedMemoryBuffer allocates a fresh buffer, copying data into it.
func NewOwnedMemoryBuffer(data []byte) MemoryBuffer {
	cp := make([]byte, len(data))
	copy(cp, data)
	return MemoryBuffer{data: cp, owned: true}
}

func (m MemoryBuffer) Bytes() []byte { return m.data }
func (m MemoryBuffer) Len() int      { return len(m.data) }
func (m MemoryBuffer) Owned() bool   { return m.owned }

// Clone returns an independently-owned copy of the buffer's contents.
func (m MemoryBuffer) Clone() MemoryBuffer {
	return NewOwnedMemoryBuffer(m.data)
}

// SerializeBinary writes the buffer's raw contents, length-prefixed.
func (m MemoryBuffer) SerializeBinary(s rtti.BinaryOutputStream) error {
	s.WriteVarUint(uint64(len(m.data)))
	s.WriteBytes(m.data)
	return nil
}

// DeserializeBinary reads back what SerializeBinary wrote, into an owned
// buffer.
func (m *MemoryBuffer) DeserializeBinary(s rtti.BinaryInputStream) error {
	n, err := s.ReadVarUint()
	if err != nil {
		return err
	}
	b, err := s.ReadBytes(int(n))
	if err != nil {
		return err
	}
	*m = NewOwnedMemoryBuffer(b)
	return nil
}
