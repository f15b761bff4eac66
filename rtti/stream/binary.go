// Package stream provides the concrete stream implementations the
// conversion engine's built-in operations read and write through: binary
// streams backed by a growable buffer with varint length prefixes, and
// string streams backed by strconv-formatted tokens.
package stream

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// ErrShortRead is returned when a BinaryInputStream is asked for more bytes
// than remain.
var ErrShortRead = errors.New("stream: short read")

// BinaryOutputStream is a growable, little-endian binary sink. It backs the
// Binary Serialization pre-registered operation and the wire encoding of
// OperationSequence parameters.
type BinaryOutputStream struct {
	buf bytes.Buffer
}

func NewBinaryOutputStream() *BinaryOutputStream { return &BinaryOutputStream{} }

func (s *BinaryOutputStream) WriteBytes(p []byte) { s.buf.Write(p) }

func (s *BinaryOutputStream) WriteVarUint(v uint64) {
	var scratch [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(scratch[:], v)
	s.buf.Write(scratch[:n])
}

func (s *BinaryOutputStream) WriteFixed32(v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	s.buf.Write(scratch[:])
}

func (s *BinaryOutputStream) WriteFixed64(v uint64) {
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], v)
	s.buf.Write(scratch[:])
}

// Bytes returns the accumulated buffer contents without copying.
func (s *BinaryOutputStream) Bytes() []byte { return s.buf.Bytes() }

// Len returns the number of bytes written so far.
func (s *BinaryOutputStream) Len() int { return s.buf.Len() }

// BinaryInputStream reads back what BinaryOutputStream wrote.
type BinaryInputStream struct {
	data []byte
	pos  int
}

func NewBinaryInputStream(data []byte) *BinaryInputStream {
	return &BinaryInputStream{data: data}
}

func (s *BinaryInputStream) ReadBytes(n int) ([]byte, error) {
	if s.pos+n > len(s.data) {
		return nil, ErrShortRead
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *BinaryInputStream) ReadVarUint() (uint64, error) {
	v, n := binary.Uvarint(s.data[s.pos:])
	if n <= 0 {
		return 0, ErrShortRead
	}
	s.pos += n
	return v, nil
}

func (s *BinaryInputStream) ReadFixed32() (uint32, error) {
	b, err := s.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *BinaryInputStream) ReadFixed64() (uint64, error) {
	b, err := s.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Remaining returns the number of unread bytes.
func (s *BinaryInputStream) Remaining() int { return len(s.data) - s.pos }
