package conversion

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/rawbytedev/rttic/rtti"
	"github.com/rawbytedev/rttic/rtti/stream"
	"github.com/rawbytedev/rttic/structcodec"
)

var (
	stringType        = rtti.TypeFromReflect(reflect.TypeOf(""))
	byteSliceType     = rtti.TypeFromReflect(reflect.TypeOf([]byte(nil)))
	memoryBufferType  = rtti.TypeFromReflect(reflect.TypeOf(stream.MemoryBuffer{}))
	sizeType          = rtti.TypeFromReflect(reflect.TypeOf(uint64(0)))
	indexType         = rtti.TypeFromReflect(reflect.TypeOf(uint(0)))
	toStringFlagsType = rtti.TypeFromReflect(reflect.TypeOf(uint(0)))
)

// ToString's Flags parameter selects stream manipulators, one bit apiece,
// bits 0..9 in the order documented for the operation: BoolAlpha,
// ShowBase, ShowPoint, ShowPos, UpperCase, Dec, Hex, Oct, Fixed,
// Scientific. Dec is the default base; when more than one base bit is set,
// Hex takes precedence over Oct and the Dec bit has no effect (see intBase).
const (
	toStringBoolAlpha uint = 1 << iota
	toStringShowBase
	toStringShowPoint
	toStringShowPos
	toStringUpperCase
	toStringDec
	toStringHex
	toStringOct
	toStringFixed
	toStringScientific
)

var (
	binarySerializableIface = reflect.TypeOf((*rtti.BinarySerializable)(nil)).Elem()
	stringSerializableIface = reflect.TypeOf((*rtti.StringSerializable)(nil)).Elem()
)

// asBinarySerializable returns the BinarySerializable view of v (by value or
// by taking its address), or nil if neither satisfies the interface.
func asBinarySerializable(v reflect.Value) rtti.BinarySerializable {
	if v.Type().Implements(binarySerializableIface) {
		return v.Interface().(rtti.BinarySerializable)
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(binarySerializableIface) {
		return v.Addr().Interface().(rtti.BinarySerializable)
	}
	return nil
}

func asStringSerializable(v reflect.Value) rtti.StringSerializable {
	if v.Type().Implements(stringSerializableIface) {
		return v.Interface().(rtti.StringSerializable)
	}
	if v.CanAddr() && reflect.PointerTo(v.Type()).Implements(stringSerializableIface) {
		return v.Addr().Interface().(rtti.StringSerializable)
	}
	return nil
}

// toStringFlagsFrom reads ToString's materialized "Flags" parameter,
// defaulting to 0 (decimal, no manipulators) when the caller left it unset.
func toStringFlagsFrom(current CurrentOperation) uint {
	p := current.GetParameterValue()
	if p.IsNil() {
		return 0
	}
	return uint(p.Reflect().Uint())
}

func formatScalar(v reflect.Value, flags uint) string {
	switch v.Kind() {
	case reflect.Bool:
		if flags&toStringBoolAlpha != 0 {
			if v.Bool() {
				return "true"
			}
			return "false"
		}
		if v.Bool() {
			return "1"
		}
		return "0"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return formatSignedInt(v.Int(), v.Type().Bits(), flags)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return formatUnsignedInt(v.Uint(), flags)
	case reflect.Float32, reflect.Float64:
		return formatFloat(v.Float(), flags)
	case reflect.String:
		return v.String()
	default:
		return ""
	}
}

// formatSignedInt applies the Hex/Oct/Dec base bits and ShowBase/UpperCase/
// ShowPos manipulators to a signed integer. A negative value cast to Hex or
// Oct is displayed as its two's-complement bit pattern in that base, the
// way an unsigned reinterpretation would print it, since Hex/Oct manipulators
// on a signed stream operand describe the underlying bits, not the sign.
func formatSignedInt(n int64, bits int, flags uint) string {
	base, prefix := intBase(flags)
	if base != 10 && n < 0 {
		mask := uint64(1)<<uint(bits) - 1
		text := strconv.FormatUint(uint64(n)&mask, base)
		return applyIntCase(prefix+text, flags)
	}
	sign := ""
	if n >= 0 && flags&toStringShowPos != 0 {
		sign = "+"
	}
	text := strconv.FormatInt(n, base)
	if n < 0 {
		return "-" + applyIntCase(prefix+text[1:], flags)
	}
	return sign + applyIntCase(prefix+text, flags)
}

func formatUnsignedInt(n uint64, flags uint) string {
	base, prefix := intBase(flags)
	sign := ""
	if flags&toStringShowPos != 0 {
		sign = "+"
	}
	return sign + applyIntCase(prefix+strconv.FormatUint(n, base), flags)
}

// intBase resolves the Hex/Oct/Dec bits to a strconv base and the ShowBase
// prefix that base would print, in that priority order: Hex beats Oct beats
// the Dec default, matching the mutually-exclusive base selection of a
// single output stream.
func intBase(flags uint) (base int, prefix string) {
	switch {
	case flags&toStringHex != 0:
		if flags&toStringShowBase != 0 {
			prefix = "0x"
		}
		return 16, prefix
	case flags&toStringOct != 0:
		if flags&toStringShowBase != 0 {
			prefix = "0"
		}
		return 8, prefix
	default:
		return 10, ""
	}
}

func applyIntCase(text string, flags uint) string {
	if flags&toStringUpperCase != 0 {
		return strings.ToUpper(text)
	}
	return text
}

func formatFloat(f float64, flags uint) string {
	verb := byte('g')
	prec := -1
	switch {
	case flags&toStringScientific != 0:
		verb = 'e'
	case flags&toStringFixed != 0:
		verb = 'f'
		prec = 6
	}
	if flags&toStringUpperCase != 0 {
		verb -= 'a' - 'A'
	}
	text := strconv.FormatFloat(f, verb, prec, 64)
	if flags&toStringShowPoint != 0 && verb != 'e' && verb != 'E' && !strings.ContainsAny(text, ".") {
		text += "."
	}
	if f >= 0 && flags&toStringShowPos != 0 {
		text = "+" + text
	}
	return text
}

// newBase allocates a handle from the process-wide registry for a built-in
// operation whose GetConversionOption is computed per-call (so it has no
// fixed singleOption).
func newBase(name string, source, destination SupportedTypes, parameter rtti.ParameterDefinition) BaseOperation {
	return *register(name, source, destination, nil, parameter, nil)
}

// -- ToString ----------------------------------------------------------

type toStringOp struct{ BaseOperation }

func newToStringOp() *toStringOp {
	flagsParam := rtti.NewParameterDefinition("Flags", toStringFlagsType, rtti.NewGenericObject(uint(0)), true)
	return &toStringOp{newBase("ToString", Filtered(FilterStringSerializable), Single(stringType), flagsParam)}
}

func (o *toStringOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !dst.Equal(stringType) || !src.Traits().Has(rtti.TraitStringSerializable) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		v := intermediate.Reflect()
		var text string
		if ss := asStringSerializable(v); ss != nil {
			out := stream.NewStringOutputStream(toStringFlagsFrom(current))
			if err := ss.SerializeString(out); err != nil {
				return wrapError(KindParameterType, err, "serializing %s to string", src)
			}
			text = out.String()
		} else {
			text = formatScalar(v, toStringFlagsFrom(current))
		}
		destination.Reflect().SetString(text)
		return nil
	}
	firstFn := chainedFirstFn(finalFn, dst)
	return NewStandardFnOption(src, dst, firstFn, finalFn)
}

// -- String Deserialization ---------------------------------------------

type stringDeserializationOp struct{ BaseOperation }

func newStringDeserializationOp() *stringDeserializationOp {
	return &stringDeserializationOp{newBase("String Deserialization", Single(stringType), Filtered(FilterStringSerializable), rtti.ParameterDefinition{})}
}

func (o *stringDeserializationOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.Equal(stringType) || !dst.Traits().Has(rtti.TraitStringSerializable) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		text := intermediate.Reflect().String()
		dv := destination.Reflect()
		if ss := asStringSerializable(dv); ss != nil {
			in := stream.NewStringInputStream(text)
			if err := ss.DeserializeString(in); err != nil {
				return wrapError(KindParameterType, err, "deserializing %s from %q", dst, text)
			}
			return nil
		}
		return setScalarFromToken(dv, text)
	}
	firstFn := chainedFirstFn(finalFn, dst)
	return NewStandardFnOption(src, dst, firstFn, finalFn)
}

// -- Binary Serialization -------------------------------------------------

type binarySerializationOp struct{ BaseOperation }

func newBinarySerializationOp() *binarySerializationOp {
	return &binarySerializationOp{newBase("Binary Serialization", Filtered(FilterBinarySerializable), Single(memoryBufferType), rtti.ParameterDefinition{})}
}

func (o *binarySerializationOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !dst.Equal(memoryBufferType) || !src.Traits().Has(rtti.TraitBinarySerializable) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		v := intermediate.Reflect()
		out := stream.NewBinaryOutputStream()
		if bs := asBinarySerializable(v); bs != nil {
			if err := bs.SerializeBinary(out); err != nil {
				return wrapError(KindParameterType, err, "binary-serializing %s", src)
			}
		} else if rtti.IsFixedKind(v.Kind()) {
			writeFixedScalar(out, v)
		} else if v.Kind() == reflect.Struct && structcodec.CanEncode(v.Type()) {
			encoded, err := structcodec.Marshal(v.Interface())
			if err != nil {
				return wrapError(KindParameterType, err, "binary-serializing %s", src)
			}
			out.WriteBytes(encoded)
		} else {
			return newError(KindParameterType, "%s has no binary serialization", src)
		}
		mb := stream.NewOwnedMemoryBuffer(out.Bytes())
		destination.Reflect().Set(reflect.ValueOf(mb))
		return nil
	}
	firstFn := chainedFirstFn(finalFn, dst)
	return NewStandardFnOption(src, dst, firstFn, finalFn)
}

// -- Binary Deserialization -------------------------------------------------

// binaryDeserializationOp's destination filter is BinarySerializable, not a
// fixed single type: an earlier draft fixed it to the buffer's own type,
// which made every "wrap bytes back into a real value" conversion
// unreachable.
type binaryDeserializationOp struct{ BaseOperation }

func newBinaryDeserializationOp() *binaryDeserializationOp {
	return &binaryDeserializationOp{newBase("Binary Deserialization", Single(memoryBufferType), Filtered(FilterBinarySerializable), rtti.ParameterDefinition{})}
}

func (o *binaryDeserializationOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.Equal(memoryBufferType) || !dst.Traits().Has(rtti.TraitBinarySerializable) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		mb := intermediate.Reflect().Interface().(stream.MemoryBuffer)
		in := stream.NewBinaryInputStream(mb.Bytes())
		dv := destination.Reflect()
		if bs := asBinarySerializable(dv); bs != nil {
			if err := bs.DeserializeBinary(in); err != nil {
				return wrapError(KindParameterType, err, "binary-deserializing %s", dst)
			}
			return nil
		}
		if rtti.IsFixedKind(dv.Kind()) {
			return readFixedScalar(in, dv)
		}
		if dv.Kind() == reflect.Struct && structcodec.CanEncode(dv.Type()) {
			rest, err := in.ReadBytes(in.Remaining())
			if err != nil {
				return err
			}
			if err := structcodec.Unmarshal(rest, dv.Addr().Interface()); err != nil {
				return wrapError(KindParameterType, err, "binary-deserializing %s", dst)
			}
			return nil
		}
		return newError(KindParameterType, "%s has no binary deserialization", dst)
	}
	firstFn := chainedFirstFn(finalFn, dst)
	return NewStandardFnOption(src, dst, firstFn, finalFn)
}

func writeFixedScalar(out *stream.BinaryOutputStream, v reflect.Value) {
	switch v.Kind() {
	case reflect.Bool:
		if v.Bool() {
			out.WriteBytes([]byte{1})
		} else {
			out.WriteBytes([]byte{0})
		}
	case reflect.Int8, reflect.Uint8:
		out.WriteBytes([]byte{byte(reflectToInt64(v))})
	case reflect.Int16, reflect.Uint16:
		out.WriteFixed32(uint32(uint16(reflectToInt64(v))))
	case reflect.Int32, reflect.Uint32:
		out.WriteFixed32(uint32(reflectToInt64(v)))
	case reflect.Float32:
		out.WriteFixed32(math.Float32bits(float32(v.Float())))
	case reflect.Int64, reflect.Uint64:
		out.WriteFixed64(uint64(reflectToInt64(v)))
	case reflect.Float64:
		out.WriteFixed64(math.Float64bits(v.Float()))
	}
}

func readFixedScalar(in *stream.BinaryInputStream, dst reflect.Value) error {
	switch dst.Kind() {
	case reflect.Bool:
		b, err := in.ReadBytes(1)
		if err != nil {
			return err
		}
		dst.SetBool(b[0] != 0)
	case reflect.Int8, reflect.Uint8:
		b, err := in.ReadBytes(1)
		if err != nil {
			return err
		}
		setIntOrUint(dst, uint64(b[0]))
	case reflect.Int16, reflect.Uint16:
		n, err := in.ReadFixed32()
		if err != nil {
			return err
		}
		setIntOrUint(dst, uint64(uint16(n)))
	case reflect.Int32, reflect.Uint32:
		n, err := in.ReadFixed32()
		if err != nil {
			return err
		}
		setIntOrUint(dst, uint64(n))
	case reflect.Float32:
		n, err := in.ReadFixed32()
		if err != nil {
			return err
		}
		dst.SetFloat(float64(math.Float32frombits(n)))
	case reflect.Int64, reflect.Uint64:
		n, err := in.ReadFixed64()
		if err != nil {
			return err
		}
		setIntOrUint(dst, n)
	case reflect.Float64:
		n, err := in.ReadFixed64()
		if err != nil {
			return err
		}
		dst.SetFloat(math.Float64frombits(n))
	}
	return nil
}

func setIntOrUint(v reflect.Value, n uint64) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(float64(n))
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(n)
	default:
		v.SetInt(int64(n))
	}
}

// -- Get List Element ("[]") ---------------------------------------------

type getListElementOp struct{ BaseOperation }

func newGetListElementOp() *getListElementOp {
	return &getListElementOp{newBase("[]", Filtered(FilterGetListElement), Filtered(FilterGetListElement), rtti.NewParameterDefinition("Index", indexType, nil, false))}
}

func (o *getListElementOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.IsListType() || !src.ElementType().Equal(dst) {
		return NoneOption()
	}
	getRef := func(current CurrentOperation, source rtti.TypedConstPtr) (rtti.TypedConstPtr, error) {
		idx, err := listIndexFromParameter(current)
		if err != nil {
			return rtti.TypedConstPtr{}, err
		}
		if idx < 0 || idx >= source.ListLen() {
			return rtti.TypedConstPtr{}, newError(KindIndexOutOfBounds, "index %d out of bounds for length %d", idx, source.ListLen())
		}
		return source.ListElement(idx), nil
	}
	firstFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		elem, err := getRef(current, intermediate)
		if err != nil {
			return err
		}
		return current.Continue(elem, destination)
	}
	return NewVariableOffsetOption(src, dst, firstFn, getRef)
}

func listIndexFromParameter(current CurrentOperation) (int, error) {
	p := current.GetParameterValue()
	if p.IsNil() {
		return 0, newError(KindParameterType, "Index parameter is required")
	}
	v := p.Reflect()
	if v.CanUint() {
		return int(v.Uint()), nil
	}
	return int(v.Int()), nil
}

// -- Get Array Element ("[]") ---------------------------------------------

type getArrayElementOp struct{ BaseOperation }

func newGetArrayElementOp() *getArrayElementOp {
	return &getArrayElementOp{newBase("[]", Filtered(FilterGetListElement), Filtered(FilterGetListElement), rtti.NewParameterDefinition("Index", indexType, nil, false))}
}

// GetConversionOption for arrays is resolved via VariableOffset rather than
// ConstOffset: the index is a runtime parameter value, not known while
// building the option, so the fixed-offset optimization available in
// principle for arrays is left on the table in favor of one bounds-checked
// indirection through GetRefFn.
func (o *getArrayElementOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.IsArrayType() || !src.ElementType().Equal(dst) {
		return NoneOption()
	}
	getRef := func(current CurrentOperation, source rtti.TypedConstPtr) (rtti.TypedConstPtr, error) {
		idx, err := listIndexFromParameter(current)
		if err != nil {
			return rtti.TypedConstPtr{}, err
		}
		if idx < 0 || idx >= src.ArrayLen() {
			return rtti.TypedConstPtr{}, newError(KindIndexOutOfBounds, "index %d out of bounds for array length %d", idx, src.ArrayLen())
		}
		return source.ListElement(idx), nil
	}
	firstFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		elem, err := getRef(current, intermediate)
		if err != nil {
			return err
		}
		return current.Continue(elem, destination)
	}
	return NewVariableOffsetOption(src, dst, firstFn, getRef)
}

// -- For Each --------------------------------------------------------------

type forEachOp struct{ BaseOperation }

// forEachOperation is the singleton For Each identifies by pointer equality
// during sequence compilation (see acquireOptions in compiler.go): it never
// appears as a second operation and always drives the loop from slot 0.
var forEachOperation Operation = &forEachOp{newBase("For Each", Filtered(FilterForEach), Filtered(FilterForEach), rtti.ParameterDefinition{})}

func (o *forEachOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !(src.IsListType() || src.IsArrayType()) || !(dst.IsListType() || dst.IsArrayType()) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		return newError(KindMisuseFinal, "For Each cannot be used as a final step")
	}
	firstFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		n := intermediate.ListLen()
		if destination.Reflect().Kind() == reflect.Slice {
			destination.ResizeList(n)
		} else if destination.ListLen() != n {
			return newError(KindSizeMismatch, "For Each array length mismatch: %d != %d", destination.ListLen(), n)
		}
		for i := 0; i < n; i++ {
			elemSrc := intermediate.ListElement(i)
			elemDst := destination.MutableListElement(i)
			if err := current.Continue(elemSrc, elemDst); err != nil {
				return wrapError(KindIncompatible, err, "For Each element %d", i)
			}
		}
		return nil
	}
	return NewStandardFnOption(src, dst, firstFn, finalFn)
}

// -- To Vector (array/string -> slice) -------------------------------------

type toVectorOp struct{ BaseOperation }

func newToVectorOp() *toVectorOp {
	return &toVectorOp{newBase("To Vector", Filtered(FilterArrayToVector), Filtered(FilterLists), rtti.ParameterDefinition{})}
}

func (o *toVectorOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if src.ReflectType().Kind() == reflect.String && dst.Equal(byteSliceType) {
		finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
			destination.Reflect().SetBytes([]byte(intermediate.Reflect().String()))
			return nil
		}
		return NewStandardFnOption(src, dst, chainedFirstFn(finalFn, dst), finalFn)
	}
	if src.IsArrayType() && dst.IsListType() && src.ElementType().Equal(dst.ElementType()) {
		finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
			n := src.ArrayLen()
			destination.ResizeList(n)
			for i := 0; i < n; i++ {
				destination.MutableListElement(i).DeepCopyFrom(intermediate.ListElement(i))
			}
			return nil
		}
		return NewStandardFnOption(src, dst, chainedFirstFn(finalFn, dst), finalFn)
	}
	return NoneOption()
}

// -- Make String (byte slice -> string) ------------------------------------

type makeStringOp struct{ BaseOperation }

func newMakeStringOp() *makeStringOp {
	return &makeStringOp{newBase("Make String", Single(byteSliceType), Single(stringType), rtti.ParameterDefinition{})}
}

func (o *makeStringOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.Equal(byteSliceType) || !dst.Equal(stringType) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		destination.Reflect().SetString(string(intermediate.Reflect().Bytes()))
		return nil
	}
	return NewStandardFnOption(src, dst, chainedFirstFn(finalFn, dst), finalFn)
}

// -- Wrap (byte slice <-> MemoryBuffer, zero copy) -------------------------

type wrapOp struct{ BaseOperation }

func newWrapOp() *wrapOp {
	return &wrapOp{newBase("Wrap", Single(byteSliceType), Single(memoryBufferType), rtti.ParameterDefinition{})}
}

func (o *wrapOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.Equal(byteSliceType) || !dst.Equal(memoryBufferType) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		b := intermediate.Reflect().Bytes()
		destination.Reflect().Set(reflect.ValueOf(stream.NewMemoryBuffer(b)))
		return nil
	}
	return NewResultAliasesSourceOption(src, dst, chainedFirstFn(finalFn, dst), finalFn)
}

// -- size() -----------------------------------------------------------------

type sizeOp struct{ BaseOperation }

func newSizeOp() *sizeOp {
	return &sizeOp{newBase("size()", Filtered(FilterLists), Single(sizeType), rtti.ParameterDefinition{})}
}

func (o *sizeOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !(src.IsListType() || src.IsArrayType()) || !dst.Equal(sizeType) {
		return NoneOption()
	}
	finalFn := func(current CurrentOperation, intermediate rtti.TypedConstPtr, destination rtti.TypedPtr) error {
		destination.Reflect().SetUint(uint64(intermediate.ListLen()))
		return nil
	}
	return NewStandardFnOption(src, dst, chainedFirstFn(finalFn, dst), finalFn)
}

// -- get (tuple element) -----------------------------------------------------

type getTupleElementOp struct{ BaseOperation }

func newGetTupleElementOp() *getTupleElementOp {
	return &getTupleElementOp{newBase("get", Filtered(FilterGetTupleElement), Filtered(FilterGetTupleElement), rtti.NewParameterDefinition("Index", indexType, nil, true))}
}

// GetConversionOption resolves against the tuple's layout by type alone:
// the first field whose type equals dst supplies the ConstOffset.
// GetConversionOption has no parameter to consult (Operation's signature is
// (src, dst) only), and the Index parameter is not read at Convert time
// either, so it never selects between several fields of the same type.
func (o *getTupleElementOp) GetConversionOption(src, dst rtti.Type) ConversionOption {
	if !src.IsTupleType() {
		return NoneOption()
	}
	for _, f := range src.TupleLayout() {
		if f.Type.Equal(dst) {
			return NewConstOffsetOption(src, dst, f.Offset)
		}
	}
	return NoneOption()
}

// -- registration ------------------------------------------------------------

func init() {
	toString := newToStringOp()
	stringDeser := newStringDeserializationOp()
	toString.notUsuallyWith = stringDeser
	stringDeser.notUsuallyWith = toString

	binSer := newBinarySerializationOp()
	binDeser := newBinaryDeserializationOp()
	binSer.notUsuallyWith = binDeser
	binDeser.notUsuallyWith = binSer

	Register(toString)
	Register(stringDeser)
	Register(binSer)
	Register(binDeser)
	Register(newGetListElementOp())
	Register(newGetArrayElementOp())
	Register(forEachOperation)
	Register(newToVectorOp())
	Register(newMakeStringOp())
	Register(newWrapOp())
	Register(newSizeOp())
	Register(newGetTupleElementOp())

	registerBuiltinStaticCasts()
}

func registerBuiltinStaticCasts() {
	registerScalarCastMatrix()
	RegisterBidirectionalStaticCast(func(v stream.MemoryBuffer) []byte { return v.Bytes() }, func(v []byte) stream.MemoryBuffer { return stream.NewMemoryBuffer(v) }, true, true, false)
}
