// Package structcodec is a reflection-driven binary codec for plain struct
// types that don't implement rtti.BinarySerializable themselves. It gives
// the conversion engine's "Binary Serialization"/"Binary Deserialization"
// operations a fallback so a struct made of ordinary scalar, string, and
// slice fields is serializable without hand-written Serialize/Deserialize
// methods.
//
// The wire shape is a varint field count, a varint byte-offset per variable-
// width field (string or slice), and a body holding fields in declaration
// order: fixed-width fields inline, variable-width fields length-prefixed.
package structcodec

import (
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"sync"
)

var (
	ErrNotStruct    = errors.New("structcodec: expected a struct value")
	ErrNotStructPtr = errors.New("structcodec: expected a pointer to a struct")
	ErrUnsupported  = errors.New("structcodec: field type not supported by the reflection codec")
)

type fieldInfo struct {
	idx   int
	kind  reflect.Kind
	isVar bool
}

var (
	planMu sync.RWMutex
	plans  = map[reflect.Type][]fieldInfo{}
)

func planFor(t reflect.Type) []fieldInfo {
	planMu.RLock()
	fields, ok := plans[t]
	planMu.RUnlock()
	if ok {
		return fields
	}

	planMu.Lock()
	defer planMu.Unlock()
	if fields, ok = plans[t]; ok {
		return fields
	}
	fields = make([]fieldInfo, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue
		}
		k := sf.Type.Kind()
		fields = append(fields, fieldInfo{idx: i, kind: k, isVar: !isFixedKind(k)})
	}
	plans[t] = fields
	return fields
}

// CanEncode reports whether rt is a struct type this codec can round-trip:
// every exported field must be a fixed-width scalar, a string, a byte
// slice, or a slice of fixed-width scalars/strings.
func CanEncode(rt reflect.Type) bool {
	if rt.Kind() != reflect.Struct {
		return false
	}
	for _, f := range planFor(rt) {
		if !f.isVar {
			continue
		}
		ft := rt.Field(f.idx).Type
		if ft.Kind() == reflect.String {
			continue
		}
		if ft.Kind() != reflect.Slice {
			return false
		}
		elem := ft.Elem().Kind()
		if elem == reflect.Uint8 || isFixedKind(elem) || elem == reflect.String {
			continue
		}
		return false
	}
	return true
}

// Marshal encodes a struct value (or pointer to one) into the codec's wire
// format.
func Marshal(val any) ([]byte, error) {
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	fields := planFor(v.Type())
	buf := make([]byte, 0, len(fields)*4+16)
	buf = binary.AppendUvarint(buf, uint64(len(fields)))

	body := make([]byte, 0, 64)
	varOffsets := make([]int, 0, len(fields))
	for _, field := range fields {
		fv := v.Field(field.idx)
		if !field.isVar {
			var err error
			body, err = appendFixed(body, fv)
			if err != nil {
				return nil, err
			}
			continue
		}
		varOffsets = append(varOffsets, len(body))
		var err error
		body, err = appendVariable(body, fv)
		if err != nil {
			return nil, err
		}
	}

	for _, off := range varOffsets {
		buf = binary.AppendUvarint(buf, uint64(off))
	}
	return append(buf, body...), nil
}

func appendFixed(body []byte, v reflect.Value) ([]byte, error) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			return append(body, 1), nil
		}
		return append(body, 0), nil
	case reflect.Int8:
		return append(body, byte(v.Int())), nil
	case reflect.Uint8:
		return append(body, byte(v.Uint())), nil
	case reflect.Int16, reflect.Uint16:
		var scratch [2]byte
		if v.Kind() == reflect.Int16 {
			binary.LittleEndian.PutUint16(scratch[:], uint16(v.Int()))
		} else {
			binary.LittleEndian.PutUint16(scratch[:], uint16(v.Uint()))
		}
		return append(body, scratch[:]...), nil
	case reflect.Int32, reflect.Uint32:
		var scratch [4]byte
		if v.Kind() == reflect.Int32 {
			binary.LittleEndian.PutUint32(scratch[:], uint32(v.Int()))
		} else {
			binary.LittleEndian.PutUint32(scratch[:], uint32(v.Uint()))
		}
		return append(body, scratch[:]...), nil
	case reflect.Int64, reflect.Uint64:
		var scratch [8]byte
		if v.Kind() == reflect.Int64 {
			binary.LittleEndian.PutUint64(scratch[:], uint64(v.Int()))
		} else {
			binary.LittleEndian.PutUint64(scratch[:], v.Uint())
		}
		return append(body, scratch[:]...), nil
	case reflect.Float32:
		var scratch [4]byte
		binary.LittleEndian.PutUint32(scratch[:], math.Float32bits(float32(v.Float())))
		return append(body, scratch[:]...), nil
	case reflect.Float64:
		var scratch [8]byte
		binary.LittleEndian.PutUint64(scratch[:], math.Float64bits(v.Float()))
		return append(body, scratch[:]...), nil
	default:
		return nil, ErrUnsupported
	}
}

func appendVariable(body []byte, v reflect.Value) ([]byte, error) {
	switch v.Kind() {
	case reflect.String:
		s := v.String()
		body = binary.AppendUvarint(body, uint64(len(s)))
		return append(body, s...), nil
	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := v.Bytes()
			body = binary.AppendUvarint(body, uint64(len(b)))
			return append(body, b...), nil
		}
		l := v.Len()
		body = binary.AppendUvarint(body, uint64(l))
		for i := 0; i < l; i++ {
			elem := v.Index(i)
			var err error
			switch elem.Kind() {
			case reflect.String:
				body, err = appendVariable(body, elem)
			default:
				if isFixedKind(elem.Kind()) {
					body, err = appendFixed(body, elem)
				} else {
					return nil, ErrUnsupported
				}
			}
			if err != nil {
				return nil, err
			}
		}
		return body, nil
	default:
		return nil, ErrUnsupported
	}
}

// Unmarshal decodes data produced by Marshal into *out, which must be a
// pointer to a struct of the same shape used to encode it.
func Unmarshal(data []byte, out any) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return ErrNotStructPtr
	}
	dst := v.Elem()
	fields := planFor(dst.Type())

	n, hdr := binary.Uvarint(data)
	if int(n) != len(fields) {
		return ErrUnsupported
	}
	cursor := hdr

	varOffsets := make([]int, 0, len(fields))
	for _, field := range fields {
		if !field.isVar {
			continue
		}
		off, sz := binary.Uvarint(data[cursor:])
		cursor += sz
		varOffsets = append(varOffsets, int(off))
	}

	body := data[cursor:]
	bodyPos := 0
	varIdx := 0
	for _, field := range fields {
		fv := dst.Field(field.idx)
		if field.isVar {
			start := varOffsets[varIdx]
			varIdx++
			consumed, err := readVariable(body[start:], fv)
			if err != nil {
				return err
			}
			bodyPos = start + consumed
			continue
		}
		sz := fixedSize(field.kind)
		if err := setFixed(fv, body[bodyPos:bodyPos+sz]); err != nil {
			return err
		}
		bodyPos += sz
	}
	return nil
}

func readVariable(body []byte, fv reflect.Value) (int, error) {
	switch fv.Kind() {
	case reflect.String:
		l, n := binary.Uvarint(body)
		fv.SetString(string(body[n : n+int(l)]))
		return n + int(l), nil
	case reflect.Slice:
		if fv.Type().Elem().Kind() == reflect.Uint8 {
			l, n := binary.Uvarint(body)
			payload := make([]byte, l)
			copy(payload, body[n:n+int(l)])
			fv.SetBytes(payload)
			return n + int(l), nil
		}
		count, n := binary.Uvarint(body)
		pos := n
		elemType := fv.Type().Elem()
		slice := reflect.MakeSlice(fv.Type(), int(count), int(count))
		for i := 0; i < int(count); i++ {
			ev := slice.Index(i)
			if elemType.Kind() == reflect.String {
				consumed, err := readVariable(body[pos:], ev)
				if err != nil {
					return 0, err
				}
				pos += consumed
				continue
			}
			if !isFixedKind(elemType.Kind()) {
				return 0, ErrUnsupported
			}
			sz := fixedSize(elemType.Kind())
			if err := setFixed(ev, body[pos:pos+sz]); err != nil {
				return 0, err
			}
			pos += sz
		}
		fv.Set(slice)
		return pos, nil
	default:
		return 0, ErrUnsupported
	}
}

func setFixed(fv reflect.Value, raw []byte) error {
	switch fv.Kind() {
	case reflect.Bool:
		fv.SetBool(raw[0] != 0)
	case reflect.Int8:
		fv.SetInt(int64(int8(raw[0])))
	case reflect.Uint8:
		fv.SetUint(uint64(raw[0]))
	case reflect.Int16:
		fv.SetInt(int64(int16(binary.LittleEndian.Uint16(raw))))
	case reflect.Uint16:
		fv.SetUint(uint64(binary.LittleEndian.Uint16(raw)))
	case reflect.Int32:
		fv.SetInt(int64(int32(binary.LittleEndian.Uint32(raw))))
	case reflect.Uint32:
		fv.SetUint(uint64(binary.LittleEndian.Uint32(raw)))
	case reflect.Int64:
		fv.SetInt(int64(binary.LittleEndian.Uint64(raw)))
	case reflect.Uint64:
		fv.SetUint(binary.LittleEndian.Uint64(raw))
	case reflect.Float32:
		fv.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(raw))))
	case reflect.Float64:
		fv.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(raw)))
	default:
		return ErrUnsupported
	}
	return nil
}

func fixedSize(k reflect.Kind) int {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1
	case reflect.Int16, reflect.Uint16:
		return 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4
	case reflect.Int64, reflect.Uint64, reflect.Float64:
		return 8
	}
	panic("structcodec: not a fixed kind")
}

func isFixedKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int8, reflect.Uint8,
		reflect.Int16, reflect.Uint16,
		reflect.Int32, reflect.Uint32,
		reflect.Int64, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
