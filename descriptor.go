package resp3

import (
	"bytes"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Descriptor defines how values of a single RESP type are encoded and decoded.
//
// Descriptors must be immutable and safe for concurrent use.
type Descriptor interface {
	// Type returns the identifier byte of the type.
	Type() Type

	// Rule returns the rule used to find the length of units of this type.
	Rule() LengthRule

	// Encode appends the encoding of v to dst. The given Encoder must be used for nested values.
	Encode(e *Encoder, dst []byte, v any) ([]byte, error)

	// Decode decodes a single complete unit, including the identifier byte and all terminators.
	Decode(d *Decoder, unit []byte) (any, error)
}

// Aggregator is implemented by descriptors using the ElementCount or PairCount rule.
//
// The Decoder calls Aggregate with the decoded nested values in wire order. For PairCount descriptors elems holds
// keys and values alternating.
type Aggregator interface {
	Aggregate(elems []any) (any, error)
}

// NewScalar returns a Descriptor for a custom type using the Terminated or ByteCount rule.
//
// encode returns the payload for a value and decode parses a payload. Framing (identifier byte, length header and
// terminators) is handled by the descriptor. Payloads of Terminated types must not contain \r\n.
func NewScalar(t Type, rule LengthRule, encode func(v any) ([]byte, error), decode func(payload []byte) (any, error)) (Descriptor, error) {
	if rule != Terminated && rule != ByteCount {
		return nil, fmt.Errorf("%w: scalar types must use the terminated or byte-count rule, got %s", ErrInvalidDescriptor, rule)
	}
	if encode == nil || decode == nil {
		return nil, fmt.Errorf("%w: missing encode or decode function", ErrInvalidDescriptor)
	}
	return &scalarDescriptor{t: t, rule: rule, encode: encode, decode: decode}, nil
}

type scalarDescriptor struct {
	t      Type
	rule   LengthRule
	encode func(any) ([]byte, error)
	decode func([]byte) (any, error)
}

func (s *scalarDescriptor) Type() Type       { return s.t }
func (s *scalarDescriptor) Rule() LengthRule { return s.rule }

func (s *scalarDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	p, err := s.encode(v)
	if err != nil {
		return nil, err
	}
	if s.rule == ByteCount {
		return AppendBlob(dst, s.t, p), nil
	}
	if bytes.Contains(p, terminator) {
		return nil, fmt.Errorf("%w: payload of type %q contains \\r\\n", ErrUnsupportedValue, s.t)
	}
	return AppendLine(dst, s.t, p), nil
}

func (s *scalarDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	var p []byte
	var err error
	if s.rule == ByteCount {
		p, err = BlobPayload(unit)
	} else {
		p, err = LinePayload(unit)
	}
	if err != nil {
		return nil, err
	}
	return s.decode(p)
}

// builtin holds the parts shared by all built-in descriptors.
type builtin struct {
	t    Type
	rule LengthRule
}

func (b builtin) Type() Type       { return b.t }
func (b builtin) Rule() LengthRule { return b.rule }

func unexpectedValue(t Type, v any) error {
	return fmt.Errorf("%w: cannot encode %T as %q", ErrUnsupportedValue, v, t)
}

type simpleStringDescriptor struct{ builtin }

func (d simpleStringDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, unexpectedValue(d.t, v)
	}
	if containsEOL(s) {
		return nil, fmt.Errorf("%w: simple string contains \\r or \\n", ErrUnsupportedValue)
	}
	dst = append(dst, byte(d.t))
	dst = append(dst, s...)
	return append(dst, '\r', '\n'), nil
}

func (simpleStringDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	return string(p), nil
}

type simpleErrorDescriptor struct{ builtin }

func (d simpleErrorDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	var e SimpleError
	switch v := v.(type) {
	case SimpleError:
		e = v
	case *SimpleError:
		e = *v
	default:
		return nil, unexpectedValue(d.t, v)
	}
	if containsEOL(e.Prefix) || containsEOL(e.Message) {
		return nil, ErrInvalidErrorMessage
	}
	if err := checkErrorPrefix(e.Prefix); err != nil {
		return nil, err
	}
	dst = append(dst, byte(d.t))
	dst = append(dst, e.Error()...)
	return append(dst, '\r', '\n'), nil
}

func (simpleErrorDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	prefix, message := splitError(string(p))
	return SimpleError{Prefix: prefix, Message: message}, nil
}

type numberDescriptor struct{ builtin }

func (d numberDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	n, ok := toInt64(v)
	if !ok {
		return nil, unexpectedValue(d.t, v)
	}
	dst = append(dst, byte(d.t))
	dst = strconv.AppendInt(dst, n, 10)
	return append(dst, '\r', '\n'), nil
}

func (numberDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	return parseInt(p)
}

func toInt64(v any) (int64, bool) {
	switch v := v.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), uint64(v) <= math.MaxInt64
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), v <= math.MaxInt64
	default:
		return 0, false
	}
}

type bulkStringDescriptor struct{ builtin }

func (d bulkStringDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case string:
		return appendBulkString(dst, d.t, v), nil
	case []byte:
		return AppendBlob(dst, d.t, v), nil
	default:
		return nil, unexpectedValue(d.t, v)
	}
}

func (bulkStringDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := BlobPayload(unit)
	if err != nil {
		return nil, err
	}
	return string(p), nil
}

func appendBulkString(dst []byte, t Type, s string) []byte {
	dst = append(dst, byte(t))
	dst = strconv.AppendUint(dst, uint64(len(s)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s...)
	return append(dst, '\r', '\n')
}

type nullDescriptor struct{ builtin }

func (d nullDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	if v != nil {
		return nil, unexpectedValue(d.t, v)
	}
	return append(dst, byte(d.t), '\r', '\n'), nil
}

func (nullDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	if len(p) != 0 {
		return nil, fmt.Errorf("%w: null with payload %q", ErrMalformedUnit, p)
	}
	return nil, nil
}

type booleanDescriptor struct{ builtin }

func (d booleanDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, unexpectedValue(d.t, v)
	}
	c := byte('f')
	if b {
		c = 't'
	}
	return append(dst, byte(d.t), c, '\r', '\n'), nil
}

func (booleanDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	if len(p) != 1 || (p[0] != 't' && p[0] != 'f') {
		return nil, fmt.Errorf("%w: expected f or t, got %q", ErrInvalidBoolean, p)
	}
	return p[0] == 't', nil
}

type doubleDescriptor struct{ builtin }

func (d doubleDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	var f float64
	switch v := v.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	default:
		return nil, unexpectedValue(d.t, v)
	}
	dst = append(dst, byte(d.t))
	switch {
	case math.IsInf(f, 1):
		dst = append(dst, "inf"...)
	case math.IsInf(f, -1):
		dst = append(dst, "-inf"...)
	case math.IsNaN(f):
		dst = append(dst, "nan"...)
	default:
		dst = strconv.AppendFloat(dst, f, 'f', -1, 64)
	}
	return append(dst, '\r', '\n'), nil
}

func (doubleDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	switch string(p) {
	case "inf", "+inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	case "":
		return nil, fmt.Errorf("%w: missing value", ErrInvalidDouble)
	}
	for _, c := range p {
		if (c < '0' || c > '9') && c != '.' && c != '-' && c != '+' && c != 'e' && c != 'E' {
			return nil, fmt.Errorf("%w: %s", ErrInvalidDouble, p)
		}
	}
	f, err := strconv.ParseFloat(string(p), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDouble, p)
	}
	return f, nil
}

type bigNumberDescriptor struct{ builtin }

func (d bigNumberDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	var n *big.Int
	switch v := v.(type) {
	case *big.Int:
		n = v
	case uint64:
		n = new(big.Int).SetUint64(v)
	case uint:
		n = new(big.Int).SetUint64(uint64(v))
	default:
		return nil, unexpectedValue(d.t, v)
	}
	if n == nil {
		return nil, unexpectedValue(d.t, v)
	}
	dst = append(dst, byte(d.t))
	dst = n.Append(dst, 10)
	return append(dst, '\r', '\n'), nil
}

func (bigNumberDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := LinePayload(unit)
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return nil, fmt.Errorf("%w: missing value", ErrInvalidBigNumber)
	}
	n, ok := new(big.Int).SetString(string(p), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBigNumber, p)
	}
	return n, nil
}

type bulkErrorDescriptor struct{ builtin }

func (d bulkErrorDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	var e BulkError
	switch v := v.(type) {
	case BulkError:
		e = v
	case *BulkError:
		e = *v
	default:
		return nil, unexpectedValue(d.t, v)
	}
	if err := checkErrorPrefix(e.Prefix); err != nil {
		return nil, err
	}
	return appendBulkString(dst, d.t, e.Error()), nil
}

// checkErrorPrefix rejects prefixes that would be split differently when decoded.
func checkErrorPrefix(prefix string) error {
	if strings.IndexByte(prefix, ' ') >= 0 {
		return fmt.Errorf("%w: prefix %q contains a space", ErrInvalidErrorMessage, prefix)
	}
	return nil
}

func (bulkErrorDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := BlobPayload(unit)
	if err != nil {
		return nil, err
	}
	prefix, message := splitError(string(p))
	return BulkError{Prefix: prefix, Message: message}, nil
}

const verbatimPrefixLength = 3

type verbatimStringDescriptor struct{ builtin }

func (d verbatimStringDescriptor) Encode(_ *Encoder, dst []byte, v any) ([]byte, error) {
	var s VerbatimString
	switch v := v.(type) {
	case VerbatimString:
		s = v
	case *VerbatimString:
		s = *v
	default:
		return nil, unexpectedValue(d.t, v)
	}
	if len(s.Encoding) != verbatimPrefixLength {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncodingLabel, s.Encoding)
	}
	dst = append(dst, byte(d.t))
	dst = strconv.AppendInt(dst, int64(verbatimPrefixLength+1+len(s.Data)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, s.Encoding...)
	dst = append(dst, ':')
	dst = append(dst, s.Data...)
	return append(dst, '\r', '\n'), nil
}

func (verbatimStringDescriptor) Decode(_ *Decoder, unit []byte) (any, error) {
	p, err := BlobPayload(unit)
	if err != nil {
		return nil, err
	}
	if len(p) < verbatimPrefixLength+1 || p[verbatimPrefixLength] != ':' {
		if n := verbatimPrefixLength + 1; len(p) > n {
			p = p[:n]
		}
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncodingLabel, p)
	}
	return VerbatimString{
		Encoding: string(p[:verbatimPrefixLength]),
		Data:     string(p[verbatimPrefixLength+1:]),
	}, nil
}

type arrayDescriptor struct{ builtin }

func (d arrayDescriptor) Encode(e *Encoder, dst []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case []any:
		return e.appendElements(dst, d.t, v)
	case Push:
		return e.appendElements(dst, d.t, v)
	case []string:
		dst = appendHeader(dst, d.t, len(v))
		var err error
		for _, s := range v {
			if dst, err = e.Append(dst, s); err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		rv := reflect.ValueOf(v)
		if k := rv.Kind(); k != reflect.Slice && k != reflect.Array {
			return nil, unexpectedValue(d.t, v)
		}
		dst = appendHeader(dst, d.t, rv.Len())
		var err error
		for i := 0; i < rv.Len(); i++ {
			if dst, err = e.Append(dst, rv.Index(i).Interface()); err != nil {
				return nil, err
			}
		}
		return dst, nil
	}
}

func (d arrayDescriptor) Decode(dec *Decoder, unit []byte) (any, error) {
	return dec.decodeUnit(d, unit)
}

func (arrayDescriptor) Aggregate(elems []any) (any, error) {
	return elems, nil
}

type pushDescriptor struct{ builtin }

func (d pushDescriptor) Encode(e *Encoder, dst []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case Push:
		return e.appendElements(dst, d.t, v)
	case []any:
		return e.appendElements(dst, d.t, v)
	default:
		return nil, unexpectedValue(d.t, v)
	}
}

func (d pushDescriptor) Decode(dec *Decoder, unit []byte) (any, error) {
	return dec.decodeUnit(d, unit)
}

func (pushDescriptor) Aggregate(elems []any) (any, error) {
	return Push(elems), nil
}

type setDescriptor struct{ builtin }

func (d setDescriptor) Encode(e *Encoder, dst []byte, v any) ([]byte, error) {
	switch v := v.(type) {
	case Set:
		return e.appendElements(dst, d.t, v)
	case []any:
		return e.appendElements(dst, d.t, v)
	default:
		return nil, unexpectedValue(d.t, v)
	}
}

func (d setDescriptor) Decode(dec *Decoder, unit []byte) (any, error) {
	return dec.decodeUnit(d, unit)
}

func (setDescriptor) Aggregate(elems []any) (any, error) {
	return NewSet(elems...), nil
}

type mapDescriptor struct{ builtin }

func (d mapDescriptor) Encode(e *Encoder, dst []byte, v any) ([]byte, error) {
	var err error
	switch v := v.(type) {
	case *Map:
		dst = appendHeader(dst, d.t, v.Len())
		for _, entry := range v.Entries() {
			if dst, err = e.appendPair(dst, entry.Key, entry.Value); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		dst = appendHeader(dst, d.t, len(keys))
		for _, k := range keys {
			if dst, err = e.appendPair(dst, k, v[k]); err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return e.appendReflectMap(dst, d.t, v)
	}
}

// appendReflectMap encodes any Go map. Entries are ordered by the encoding of their keys.
func (e *Encoder) appendReflectMap(dst []byte, t Type, v any) ([]byte, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, unexpectedValue(t, v)
	}

	type entry struct {
		key   []byte
		value any
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		key, err := e.Append(nil, iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{key: key, value: iter.Value().Interface()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})

	dst = appendHeader(dst, t, len(entries))
	var err error
	for _, ent := range entries {
		dst = append(dst, ent.key...)
		if dst, err = e.Append(dst, ent.value); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (d mapDescriptor) Decode(dec *Decoder, unit []byte) (any, error) {
	return dec.decodeUnit(d, unit)
}

func (mapDescriptor) Aggregate(elems []any) (any, error) {
	if len(elems)%2 != 0 {
		return nil, fmt.Errorf("%w: map with %d elements", ErrMalformedUnit, len(elems))
	}
	m := &Map{
		entries: make([]MapEntry, 0, len(elems)/2),
		index:   make(map[string]int, len(elems)/2),
	}
	for i := 0; i < len(elems); i += 2 {
		m.Set(elems[i], elems[i+1])
	}
	return m, nil
}

func containsEOL(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '\r' || s[i] == '\n' {
			return true
		}
	}
	return false
}

var (
	simpleStringType   Descriptor = simpleStringDescriptor{builtin{TypeSimpleString, Terminated}}
	simpleErrorType    Descriptor = simpleErrorDescriptor{builtin{TypeSimpleError, Terminated}}
	numberType         Descriptor = numberDescriptor{builtin{TypeNumber, Terminated}}
	bulkStringType     Descriptor = bulkStringDescriptor{builtin{TypeBulkString, ByteCount}}
	arrayType          Descriptor = arrayDescriptor{builtin{TypeArray, ElementCount}}
	nullType           Descriptor = nullDescriptor{builtin{TypeNull, Terminated}}
	booleanType        Descriptor = booleanDescriptor{builtin{TypeBoolean, Terminated}}
	doubleType         Descriptor = doubleDescriptor{builtin{TypeDouble, Terminated}}
	bigNumberType      Descriptor = bigNumberDescriptor{builtin{TypeBigNumber, Terminated}}
	bulkErrorType      Descriptor = bulkErrorDescriptor{builtin{TypeBulkError, ByteCount}}
	verbatimStringType Descriptor = verbatimStringDescriptor{builtin{TypeVerbatimString, ByteCount}}
	mapType            Descriptor = mapDescriptor{builtin{TypeMap, PairCount}}
	setType            Descriptor = setDescriptor{builtin{TypeSet, ElementCount}}
	pushType           Descriptor = pushDescriptor{builtin{TypePush, ElementCount}}
)

var builtins = []Descriptor{
	simpleStringType,
	simpleErrorType,
	numberType,
	bulkStringType,
	arrayType,
	nullType,
	booleanType,
	doubleType,
	bigNumberType,
	bulkErrorType,
	verbatimStringType,
	mapType,
	setType,
	pushType,
}
