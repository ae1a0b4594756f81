package resp3

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// Reader reads complete units from an io.Reader.
//
// Reader never reads past the end of the unit it is reading, as long as the initial read size given to ReadFrame
// does not exceed the length of the unit. It does not buffer data between calls, so the underlying io.Reader can be
// handed to other code between reads. To reduce the number of reads on the underlying io.Reader, wrap it in a
// bufio.Reader.
//
// A Reader must not be used concurrently.
type Reader struct {
	// Registry is used to classify units and decode values. If nil, DefaultRegistry is used.
	Registry *Registry

	// BufferSize is the initial read size used by ReadValue. If BufferSize is 0, DefaultBufferSize is used.
	BufferSize int

	// MaxDepth limits how deep aggregates can be nested. If MaxDepth is 0, DefaultMaxDepth is used instead.
	// A negative value disables the limit.
	MaxDepth int

	// SingleReadSizeLimit defines the maximum size of lines and blobs that can be read, excluding the type, line
	// endings and, in case of blobs, the size. If the Reader encounters a value larger than this limit, an error
	// wrapping ErrSingleReadSizeLimitExceeded will be returned.
	// If SingleReadSizeLimit is 0, DefaultSingleReadSizeLimit is used instead.
	// A negative value disables the limit.
	SingleReadSizeLimit int

	// Logger receives a debug event for each frame read. If nil, nothing is logged.
	Logger *zerolog.Logger

	r io.Reader
}

const (
	// DefaultBufferSize is the initial read size used by ReadValue when Reader.BufferSize is 0.
	//
	// It is the length of the shortest possible unit, so the initial read never reaches into the next unit.
	DefaultBufferSize = minUnitLength

	// DefaultSingleReadSizeLimit defines the default read limit for values used when Reader.SingleReadSizeLimit is 0.
	DefaultSingleReadSizeLimit = 1 << 25 // 32MiB
)

// NewReader returns a *Reader that uses the given io.Reader for reads.
func NewReader(r io.Reader) *Reader {
	var rr Reader
	rr.Reset(r)
	return &rr
}

// Reset sets the underlying io.Reader to r.
//
// Configuration fields are kept.
func (rr *Reader) Reset(r io.Reader) {
	rr.r = r
}

// ReadFrame reads the next complete unit, starting with a read of up to size bytes.
//
// A read returning fewer bytes than requested is not treated as the end of the stream. ReadFrame keeps reading
// until the unit is complete or the underlying io.Reader returns an error.
//
// The returned slice contains exactly one unit. If the stream ends before the first byte of a unit, io.EOF is
// returned. If it ends after that, the bytes read so far are returned together with an error wrapping
// ErrTruncatedUnit.
//
// If size is larger than the unit and the initial read returned bytes past its end, the unit is returned together
// with an error wrapping ErrOverread. The extra bytes are lost and the stream must be considered unusable.
func (rr *Reader) ReadFrame(size int) ([]byte, error) {
	return rr.AppendFrame(nil, size)
}

// AppendFrame is like ReadFrame, but appends the unit to dst and returns the extended slice.
func (rr *Reader) AppendFrame(dst []byte, size int) ([]byte, error) {
	if size < 1 {
		return dst, fmt.Errorf("resp3: invalid read size %d", size)
	}

	f := framer{rr: rr, buf: dst, base: len(dst)}

	if err := f.readInitial(size); err != nil {
		return dst, err
	}

	end, err := f.frame(f.base, 0)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			err = fmt.Errorf("%w after %d bytes", ErrTruncatedUnit, len(f.buf)-f.base)
		}
		return f.buf, err
	}

	if rr.Logger != nil {
		rr.Logger.Debug().
			Stringer("type", Type(f.buf[f.base])).
			Int("size", end-f.base).
			Int("reads", f.reads).
			Msg("read frame")
	}

	if extra := len(f.buf) - end; extra > 0 {
		return f.buf[:end], fmt.Errorf("%w: %d bytes", ErrOverread, extra)
	}
	return f.buf, nil
}

// ReadValue reads the next unit and decodes it.
//
// The initial read size is BufferSize.
func (rr *Reader) ReadValue() (any, error) {
	size := rr.BufferSize
	if size == 0 {
		size = DefaultBufferSize
	}
	unit, err := rr.ReadFrame(size)
	if err != nil {
		return nil, err
	}
	d := Decoder{Registry: rr.Registry, MaxDepth: rr.MaxDepth}
	return d.Decode(unit)
}

func (rr *Reader) checkReadSizeLimit(n int) error {
	l := rr.SingleReadSizeLimit
	if l == 0 {
		l = DefaultSingleReadSizeLimit
	}
	if l > 0 && l < n {
		return fmt.Errorf("%w: value of size %d exceeds configured limit", ErrSingleReadSizeLimitExceeded, n)
	}
	return nil
}

// framer holds the state of a single ReadFrame call. Offsets into buf are absolute.
type framer struct {
	rr    *Reader
	buf   []byte
	base  int
	reads int
}

func (f *framer) readInitial(size int) error {
	f.buf = ensureSpace(f.buf, size)
	b := f.buf[len(f.buf) : len(f.buf)+size]
	for {
		n, err := f.rr.r.Read(b)
		f.reads++
		if n > 0 {
			f.buf = f.buf[:len(f.buf)+n]
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// fill reads until buf holds n bytes. It never reads more than that.
func (f *framer) fill(n int) error {
	if len(f.buf) >= n {
		return nil
	}
	m := n - len(f.buf)
	f.buf = ensureSpace(f.buf, m)
	k, err := io.ReadFull(f.rr.r, f.buf[len(f.buf):n])
	f.reads++
	f.buf = f.buf[:len(f.buf)+k]
	return err
}

// line reads until the line starting at off is terminated and returns the offset of its \r.
func (f *framer) line(off int) (int, error) {
	scanned := off
	for {
		if i := indexTerminator(f.buf, scanned); i >= 0 {
			return i, nil
		}
		if err := f.rr.checkReadSizeLimit(len(f.buf) - off - 1); err != nil {
			return 0, err
		}
		// the line needs at least a \r\n more, or just the \n if the buffer already ends in \r
		need := 2
		if f.buf[len(f.buf)-1] == '\r' {
			need = 1
		}
		scanned = max(off, len(f.buf)-1)
		if err := f.fill(len(f.buf) + need); err != nil {
			return 0, err
		}
	}
}

// frame makes sure buf holds the complete unit starting at off and returns the offset after its end.
func (f *framer) frame(off, depth int) (int, error) {
	if err := f.fill(off + 1); err != nil {
		return 0, err
	}
	desc, err := registryOrDefault(f.rr.Registry).LookupType(Type(f.buf[off]))
	if err != nil {
		return 0, err
	}
	rule := desc.Rule()

	i, err := f.line(off)
	if err != nil {
		return 0, err
	}
	header := i + len(terminator)
	if rule == Terminated {
		return header, nil
	}

	n, err := parseCount(f.buf[off+1 : i])
	if err != nil {
		return 0, err
	}

	switch rule {
	case ByteCount:
		if err := f.rr.checkReadSizeLimit(n); err != nil {
			return 0, err
		}
		end := header + n + len(terminator)
		if end < header {
			return 0, fmt.Errorf("%w: %d overflows", ErrInvalidLength, n)
		}
		if err := f.fill(end); err != nil {
			return 0, err
		}
		if f.buf[end-2] != '\r' || f.buf[end-1] != '\n' {
			return 0, fmt.Errorf("%w: expected \\r\\n, got %q", ErrUnexpectedEOL, string(f.buf[end-2:end]))
		}
		return end, nil
	case ElementCount, PairCount:
		depth++
		if limit := f.rr.maxDepth(); limit > 0 && depth > limit {
			return 0, fmt.Errorf("%w: exceeded depth %d", ErrNestingTooDeep, limit)
		}
		end := header
		for units := rule.Units(n); units > 0; units-- {
			// the shortest unit is 3 bytes, so reading that much never reaches into the next unit
			if err := f.fill(end + minUnitLength); err != nil {
				return 0, err
			}
			if end, err = f.frame(end, depth); err != nil {
				return 0, err
			}
		}
		return end, nil
	default:
		return 0, fmt.Errorf("%w: type %q uses unknown length rule %s", ErrUnknownType, desc.Type(), rule)
	}
}

func (rr *Reader) maxDepth() int {
	if rr.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return rr.MaxDepth
}

func ensureSpace(b []byte, n int) []byte {
	if m := cap(b) - len(b); m < n {
		newb := make([]byte, len(b), max(len(b)+n, 2*cap(b)))
		copy(newb, b)
		return newb
	}
	return b
}
