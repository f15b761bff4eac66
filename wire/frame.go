// Package wire frames a serialized OperationSequence for transport: a magic
// preamble, a payload-length header, an optional zstd-compressed body, and a
// trailing CRC32 checksum. The framing shape is the same preamble+length+
// CRC pattern used elsewhere in this codebase for other wire formats,
// adapted here to a single-payload frame with an explicit compression flag
// instead of an offset table.
package wire

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/klauspost/compress/zstd"
)

var magic = [2]byte{'R', 'C'}

const (
	flagCompressed byte = 1 << 0
)

var (
	ErrBadMagic  = errors.New("wire: bad frame magic")
	ErrTruncated = errors.New("wire: frame truncated")
	ErrChecksum  = errors.New("wire: crc32 mismatch")
)

// compressThreshold is the payload size below which compression is skipped:
// zstd's frame overhead makes it a net loss on small operation-sequence
// payloads.
const compressThreshold = 256

// Encode frames payload (typically the output of an OperationSequence's
// Serialize method) for transport. Payloads at or above compressThreshold
// bytes are zstd-compressed when that makes them smaller; all other
// payloads are carried raw.
func Encode(payload []byte) ([]byte, error) {
	body := payload
	flags := byte(0)
	if len(payload) >= compressThreshold {
		compressed, err := compress(payload)
		if err != nil {
			return nil, err
		}
		if len(compressed) < len(payload) {
			body = compressed
			flags |= flagCompressed
		}
	}

	out := make([]byte, 0, 2+4+1+len(body)+4)
	out = append(out, magic[:]...)
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(body)))
	out = append(out, lenBuf[:]...)
	out = append(out, flags)
	out = append(out, body...)

	crc := crc32.ChecksumIEEE(out[2:])
	var crcBuf [4]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc)
	out = append(out, crcBuf[:]...)
	return out, nil
}

// Decode reverses Encode, verifying the CRC32 trailer and transparently
// decompressing the body if it was compressed.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < 2+4+1+4 {
		return nil, ErrTruncated
	}
	if frame[0] != magic[0] || frame[1] != magic[1] {
		return nil, ErrBadMagic
	}
	bodyLen := binary.LittleEndian.Uint32(frame[2:6])
	flags := frame[6]
	bodyStart := 7
	bodyEnd := bodyStart + int(bodyLen)
	if bodyEnd+4 > len(frame) {
		return nil, ErrTruncated
	}

	want := binary.LittleEndian.Uint32(frame[bodyEnd:])
	got := crc32.ChecksumIEEE(frame[2:bodyEnd])
	if got != want {
		return nil, ErrChecksum
	}

	body := frame[bodyStart:bodyEnd]
	if flags&flagCompressed == 0 {
		return body, nil
	}
	return decompress(body)
}

func compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, nil), nil
}

func decompress(compressed []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(compressed, nil)
}
