package conversion

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/rawbytedev/rttic/rtti/stream"
)

// writeGenericObject and readGenericObject encode an OperationSequence
// parameter for the wire format of spec §4.E. Every pre-registered
// operation's parameter is an integer, bool or float scalar or a string,
// so a small
// self-contained codec here avoids a dependency on the heavier struct
// codec in package structcodec (which exists to serialize user-defined
// aggregate types, not engine parameters).
func writeGenericObject(out *stream.BinaryOutputStream, obj *rtti.GenericObject) {
	writeWireString(out, obj.Type().Name())
	v := obj.Ptr().Reflect()
	switch v.Kind() {
	case reflect.String:
		writeWireString(out, v.String())
	case reflect.Bool:
		if v.Bool() {
			out.WriteBytes([]byte{1})
		} else {
			out.WriteBytes([]byte{0})
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		out.WriteFixed64(uint64(reflectToInt64(v)))
	case reflect.Float32, reflect.Float64:
		out.WriteFixed64(math.Float64bits(v.Float()))
	default:
		panic("conversion: parameter type " + obj.Type().Name() + " has no wire codec")
	}
}

func reflectToInt64(v reflect.Value) int64 {
	if v.CanInt() {
		return v.Int()
	}
	return int64(v.Uint())
}

func readGenericObject(in *stream.BinaryInputStream) (*rtti.GenericObject, error) {
	name, err := readWireString(in)
	if err != nil {
		return nil, err
	}
	typ, ok := rtti.LookupTypeByName(name)
	if !ok {
		return nil, newError(KindMalformedWire, "unknown parameter type %q", name)
	}
	obj := rtti.EmplaceGenericObject(typ)
	v := obj.Ptr().Reflect()
	switch v.Kind() {
	case reflect.String:
		s, err := readWireString(in)
		if err != nil {
			return nil, err
		}
		v.SetString(s)
	case reflect.Bool:
		b, err := in.ReadBytes(1)
		if err != nil {
			return nil, err
		}
		v.SetBool(b[0] != 0)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := in.ReadFixed64()
		if err != nil {
			return nil, err
		}
		v.SetInt(int64(n))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := in.ReadFixed64()
		if err != nil {
			return nil, err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := in.ReadFixed64()
		if err != nil {
			return nil, err
		}
		v.SetFloat(math.Float64frombits(n))
	default:
		return nil, newError(KindMalformedWire, "parameter type %q has no wire codec", name)
	}
	return obj, nil
}

// materializeParameter resolves an OperationSequence slot's parameter
// against a declared ParameterDefinition, per spec §4.F's "parameter
// materialization" step: matching-type values are deep-copied, string
// values are deserialized via the declared type's string-input stream,
// anything else is a ParameterType error.
func materializeParameter(slot sequenceSlot, decl rtti.ParameterDefinition) (*rtti.GenericObject, error) {
	if decl.IsEmpty() {
		return nil, nil
	}
	if slot.parameter != nil {
		if slot.parameter.Type().Equal(decl.Type()) {
			return slot.parameter.Clone(), nil
		}
		return nil, wrapError(KindParameterType, nil, "parameter has invalid type %s, expected %s", slot.parameter.Type(), decl.Type())
	}
	if slot.paramString != nil {
		obj := rtti.EmplaceGenericObject(decl.Type())
		if err := deserializeScalarFromString(obj, *slot.paramString); err != nil {
			return nil, wrapError(KindParameterType, err, "deserializing parameter %q from %q", decl.Name(), *slot.paramString)
		}
		return obj, nil
	}
	if decl.Default() != nil {
		return decl.Default(), nil
	}
	if decl.Optional() {
		return nil, nil
	}
	return nil, wrapError(KindParameterType, nil, "parameter %q is required", decl.Name())
}

func deserializeScalarFromString(obj *rtti.GenericObject, text string) error {
	in := stream.NewStringInputStream(text)
	tok, err := in.ReadToken()
	if err != nil {
		tok = text
	}
	v := obj.Ptr().Reflect()
	return setScalarFromToken(v, tok)
}

func setScalarFromToken(v reflect.Value, tok string) error {
	switch v.Kind() {
	case reflect.String:
		v.SetString(tok)
	case reflect.Bool:
		b, err := strconv.ParseBool(tok)
		if err != nil {
			return err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(tok, 10, 64)
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return err
		}
		v.SetFloat(n)
	default:
		return fmt.Errorf("conversion: cannot parse %q into %s", tok, v.Kind())
	}
	return nil
}
