package rtti

// BinaryOutputStream is the minimal write surface a binary-serializable
// type needs; concrete implementations live in rtti/stream.
type BinaryOutputStream interface {
	WriteBytes(p []byte)
	WriteVarUint(v uint64)
	WriteFixed64(v uint64)
	WriteFixed32(v uint32)
}

// BinaryInputStream is the minimal read surface a binary-serializable type
// needs.
type BinaryInputStream interface {
	ReadBytes(n int) ([]byte, error)
	ReadVarUint() (uint64, error)
	ReadFixed64() (uint64, error)
	ReadFixed32() (uint32, error)
}

// StringOutputStream is the minimal write surface a string-serializable
// type needs.
type StringOutputStream interface {
	WriteString(s string)
	Flags() uint
}

// StringInputStream is the minimal read surface a string-serializable type
// needs.
type StringInputStream interface {
	ReadToken() (string, error)
	Rest() string
}

// BinarySerializable is implemented by user types that opt into the
// BinarySerializable trait explicitly, instead of relying on the built-in
// scalar/string handling.
type BinarySerializable interface {
	SerializeBinary(stream BinaryOutputStream) error
	DeserializeBinary(stream BinaryInputStream) error
}

// StringSerializable is implemented by user types that opt into the
// StringSerializable trait explicitly.
type StringSerializable interface {
	SerializeString(stream StringOutputStream) error
	DeserializeString(stream StringInputStream) error
}
