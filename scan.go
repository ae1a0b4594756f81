package resp3

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
)

// minUnitLength is the length of the shortest possible unit, an identifier byte followed by \r\n.
const minUnitLength = 3

var terminator = []byte("\r\n")

// indexTerminator returns the index of the first \r\n in b at or after from, or -1.
func indexTerminator(b []byte, from int) int {
	if from >= len(b) {
		return -1
	}
	i := bytes.Index(b[from:], terminator)
	if i < 0 {
		return -1
	}
	return from + i
}

// parseCount parses a declared length or element count.
func parseCount(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("%w: expected number, got empty value", ErrInvalidLength)
	}
	var n int
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: invalid character %q", ErrInvalidLength, c)
		}
		if n > (math.MaxInt-int(c-'0'))/10 {
			return 0, fmt.Errorf("%w: %s overflows", ErrInvalidLength, b)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// parseInt parses a signed 64 bit integer with an optional + or - sign.
func parseInt(b []byte) (int64, error) {
	var neg bool
	s := b
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) == 0 {
		return 0, fmt.Errorf("%w: expected number, got %q", ErrInvalidNumber, b)
	}
	var n uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("%w: invalid character %q", ErrInvalidNumber, c)
		}
		if n > (math.MaxUint64-uint64(c-'0'))/10 {
			return 0, fmt.Errorf("%w: %s overflows", ErrInvalidNumber, b)
		}
		n = n*10 + uint64(c-'0')
	}
	switch {
	case neg && n <= 1<<63:
		return -int64(n-1) - 1, nil
	case !neg && n <= math.MaxInt64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%w: %s overflows", ErrInvalidNumber, b)
	}
}

// LinePayload returns the payload of a terminator-delimited unit, that is everything between the identifier byte and
// the terminating \r\n.
func LinePayload(unit []byte) ([]byte, error) {
	i := indexTerminator(unit, 0)
	if i < 0 {
		return nil, fmt.Errorf("%w: missing \\r\\n", ErrUnexpectedEOL)
	}
	if i+len(terminator) != len(unit) {
		return nil, fmt.Errorf("%w: %d bytes after \\r\\n", ErrMalformedUnit, len(unit)-i-len(terminator))
	}
	return unit[1:i], nil
}

// BlobPayload returns the payload of a byte-count unit, validating the declared length and the final \r\n.
func BlobPayload(unit []byte) ([]byte, error) {
	i := indexTerminator(unit, 0)
	if i < 0 {
		return nil, fmt.Errorf("%w: missing \\r\\n", ErrUnexpectedEOL)
	}
	n, err := parseCount(unit[1:i])
	if err != nil {
		return nil, err
	}
	start := i + len(terminator)
	end := start + n
	if end+len(terminator) != len(unit) || end < start {
		return nil, fmt.Errorf("%w: expected %d bytes of payload, got %d", ErrMalformedUnit, n, len(unit)-start)
	}
	if unit[end] != '\r' || unit[end+1] != '\n' {
		return nil, fmt.Errorf("%w: expected \\r\\n, got %q", ErrUnexpectedEOL, string(unit[end:]))
	}
	return unit[start:end], nil
}

// AppendLine appends a terminator-delimited unit of type t with the given payload to dst.
//
// The payload is not validated.
func AppendLine(dst []byte, t Type, payload []byte) []byte {
	dst = append(dst, byte(t))
	dst = append(dst, payload...)
	return append(dst, '\r', '\n')
}

// AppendBlob appends a byte-count unit of type t with the given payload to dst.
func AppendBlob(dst []byte, t Type, payload []byte) []byte {
	dst = append(dst, byte(t))
	dst = strconv.AppendUint(dst, uint64(len(payload)), 10)
	dst = append(dst, '\r', '\n')
	dst = append(dst, payload...)
	return append(dst, '\r', '\n')
}

func appendHeader(dst []byte, t Type, n int) []byte {
	dst = append(dst, byte(t))
	dst = strconv.AppendInt(dst, int64(n), 10)
	return append(dst, '\r', '\n')
}
