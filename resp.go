package resp3

import (
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrUnknownType is returned when a unit starts with an identifier byte that has no registered descriptor.
	ErrUnknownType = errors.New("unknown type")

	// ErrMalformedUnit is returned when a unit has an invalid header or ends before its declared length or
	// terminator.
	ErrMalformedUnit = errors.New("malformed unit")

	// ErrUnsupportedValue is returned when encoding a value that matches no built-in and no registered shape.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrInvalidErrorMessage is returned when encoding an error whose prefix contains a space, or a simple error
	// whose prefix or message contains \r or \n.
	ErrInvalidErrorMessage = errors.New("invalid error message")

	// ErrInvalidEncodingLabel is returned when decoding or encoding a verbatim string whose encoding label is not
	// exactly 3 bytes long.
	ErrInvalidEncodingLabel = errors.New("verbatim string encoding must be 3 bytes")

	// ErrTruncatedUnit is returned by Reader when the stream ends after a unit was started but before it was
	// complete.
	ErrTruncatedUnit = errors.New("truncated unit")

	// ErrOverread is returned by Reader when the initial read returned bytes past the end of the unit.
	ErrOverread = errors.New("read past end of unit")

	// ErrNestingTooDeep is returned when aggregates are nested deeper than the configured limit.
	ErrNestingTooDeep = errors.New("aggregates nested too deep")

	// ErrSingleReadSizeLimitExceeded is returned by Reader when a line or blob is larger than the configured limit.
	ErrSingleReadSizeLimitExceeded = errors.New("single read size limit exceeded")

	// ErrInvalidDescriptor is returned when registering a nil descriptor or one with an unusable identifier byte.
	ErrInvalidDescriptor = errors.New("invalid descriptor")
)

var (
	// ErrInvalidLength is returned when decoding a declared count that is not a non-negative decimal.
	ErrInvalidLength = fmt.Errorf("%w: invalid length", ErrMalformedUnit)

	// ErrInvalidBigNumber is returned when decoding an invalid big number.
	ErrInvalidBigNumber = fmt.Errorf("%w: invalid big number", ErrMalformedUnit)

	// ErrInvalidBoolean is returned when decoding an invalid boolean.
	ErrInvalidBoolean = fmt.Errorf("%w: invalid boolean", ErrMalformedUnit)

	// ErrInvalidDouble is returned when decoding an invalid double.
	ErrInvalidDouble = fmt.Errorf("%w: invalid double", ErrMalformedUnit)

	// ErrInvalidNumber is returned when decoding an invalid number.
	ErrInvalidNumber = fmt.Errorf("%w: invalid number", ErrMalformedUnit)

	// ErrUnexpectedEOL is returned when a unit does not end in \r\n where one is required.
	ErrUnexpectedEOL = fmt.Errorf("%w: unexpected EOL", ErrMalformedUnit)
)

// Type is an enum of the known RESP types with the values of the constants being the single-byte prefix characters.
//
// Custom types registered with a Registry use their own Type values.
type Type byte

const (
	// TypeInvalid is used to denote invalid RESP types.
	TypeInvalid Type = 0
	// TypeArray is the RESP protocol type for arrays.
	TypeArray Type = '*'
	// TypeBigNumber is the RESP protocol type for big numbers.
	TypeBigNumber Type = '('
	// TypeBoolean is the RESP protocol type for booleans.
	TypeBoolean Type = '#'
	// TypeDouble is the RESP protocol type for double.
	TypeDouble Type = ','
	// TypeBulkError is the RESP protocol type for bulk errors.
	TypeBulkError Type = '!'
	// TypeBulkString is the RESP protocol type for bulk strings.
	TypeBulkString Type = '$'
	// TypeMap is the RESP protocol type for maps.
	TypeMap Type = '%'
	// TypeNull is the RESP protocol type for null.
	TypeNull Type = '_'
	// TypeNumber is the RESP protocol type for numbers.
	TypeNumber Type = ':'
	// TypePush is the RESP protocol type for push data.
	TypePush Type = '>'
	// TypeSet is the RESP protocol type for sets.
	TypeSet Type = '~'
	// TypeSimpleError is the RESP protocol type for simple errors.
	TypeSimpleError Type = '-'
	// TypeSimpleString is the RESP protocol type for simple strings.
	TypeSimpleString Type = '+'
	// TypeVerbatimString is the RESP protocol type for verbatim strings.
	TypeVerbatimString Type = '='
)

var _ fmt.Stringer = TypeInvalid

// String implements the fmt.Stringer interface.
func (t Type) String() string {
	return string(t)
}

// LengthRule describes how the length of a unit is found.
type LengthRule uint8

const (
	// Terminated units end at the first \r\n after the identifier byte.
	Terminated LengthRule = iota + 1
	// ByteCount units declare the byte length of their payload between the identifier byte and the first \r\n.
	ByteCount
	// ElementCount units declare the number of units that follow the header.
	ElementCount
	// PairCount units declare a number of key-value pairs, so twice as many units follow the header.
	PairCount
)

var lengthRuleNames = [...]string{
	Terminated:   "terminated",
	ByteCount:    "byte-count",
	ElementCount: "element-count",
	PairCount:    "pair-count",
}

// String implements the fmt.Stringer interface.
func (r LengthRule) String() string {
	if int(r) < len(lengthRuleNames) && lengthRuleNames[r] != "" {
		return lengthRuleNames[r]
	}
	return fmt.Sprintf("LengthRule(%d)", uint8(r))
}

// Len returns the length of unit as defined by the rule.
//
// For Terminated units this is the offset of the terminator, including the identifier byte, so "+OK\r\n" has a
// length of 3. For all other rules it is the declared count, e.g. 5 for "$5\r\nHello\r\n" and 2 for
// "%2\r\n+a\r\n:1\r\n+b\r\n:2\r\n".
func (r LengthRule) Len(unit []byte) (int, error) {
	i := indexTerminator(unit, 0)
	if i < 0 {
		return 0, fmt.Errorf("%w: missing \\r\\n", ErrUnexpectedEOL)
	}
	if r == Terminated {
		return i, nil
	}
	return parseCount(unit[1:i])
}

// Units returns the number of nested units that follow a header declaring n.
func (r LengthRule) Units(n int) int {
	switch r {
	case ElementCount:
		return n
	case PairCount:
		if n > math.MaxInt/2 {
			return math.MaxInt
		}
		return 2 * n
	default:
		return 0
	}
}

// ReadWriter embeds a Reader and a Writer in a single allocation for an io.ReadWriter.
//
// A single Reader and a single Writer method can be called concurrently, given the Read and Write methods of the
// underlying io.ReadWriter are safe for concurrent use.
type ReadWriter struct {
	Reader
	Writer
}

// NewReadWriter returns a new ReadWriter that uses the given io.ReadWriter.
func NewReadWriter(rw io.ReadWriter) *ReadWriter {
	var rrw ReadWriter
	rrw.Reset(rw)
	return &rrw
}

// Reset resets the embedded Reader and Writer to use the given io.ReadWriter.
//
// Reset must not be called concurrently with any other method.
func (rrw *ReadWriter) Reset(rw io.ReadWriter) {
	rrw.Reader.Reset(rw)
	rrw.Writer.Reset(rw)
}

// Do writes args as a command and reads the reply.
//
// Error replies are returned as values, not as errors.
func (rrw *ReadWriter) Do(args ...string) (any, error) {
	if err := rrw.WriteCommand(args...); err != nil {
		return nil, err
	}
	return rrw.ReadValue()
}

// Hello sends a HELLO command for the given protocol version and returns the server greeting.
//
// If the server replies with an error, the error is returned.
func (rrw *ReadWriter) Hello(proto int, args ...string) (*Greeting, error) {
	if err := rrw.WriteCommand(helloArgs(proto, args)...); err != nil {
		return nil, err
	}
	v, err := rrw.ReadValue()
	if err != nil {
		return nil, err
	}
	switch v := v.(type) {
	case SimpleError:
		return nil, v
	case BulkError:
		return nil, v
	}
	return NewGreeting(v)
}
