package resp3

import (
	"io"
)

// Writer allows writing RESP values to an io.Writer.
//
// Each method encodes its value completely before issuing a single Write, so a failed encoding never writes a
// partial unit.
type Writer struct {
	// Encoder is used to encode values.
	Encoder Encoder

	w   io.Writer
	buf []byte
}

// NewWriter returns a *Writer that writes all data unbuffered to w.
func NewWriter(w io.Writer) *Writer {
	var rw Writer
	rw.Reset(w)
	return &rw
}

// Reset sets the underlying io.Writer to w and resets all internal state.
func (rw *Writer) Reset(w io.Writer) {
	rw.w = w
	rw.buf = rw.buf[:0]
}

func (rw *Writer) flush() error {
	_, err := rw.w.Write(rw.buf)
	return err
}

// WriteValue encodes v and writes it.
func (rw *Writer) WriteValue(v any) error {
	b, err := rw.Encoder.Append(rw.buf[:0], v)
	if err != nil {
		return err
	}
	rw.buf = b
	return rw.flush()
}

// WritePush writes values as a push unit.
func (rw *Writer) WritePush(values ...any) error {
	b, err := pushType.Encode(&rw.Encoder, rw.buf[:0], Push(values))
	if err != nil {
		return err
	}
	rw.buf = b
	return rw.flush()
}

// WriteCommand writes args as an array of bulk strings.
func (rw *Writer) WriteCommand(args ...string) error {
	rw.buf = AppendCommand(rw.buf[:0], args...)
	return rw.flush()
}
