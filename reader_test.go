package resp3_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/rs/zerolog"

	"github.com/nussjustin/resp3/v2"
)

var frameUnits = []string{
	"+OK\r\n",
	"+\r\n",
	"_\r\n",
	"-ERR unknown command 'foo'\r\n",
	":-9223372036854775808\r\n",
	"#t\r\n",
	",inf\r\n",
	"(3492890328409238509324850943850943825024385\r\n",
	"$0\r\n\r\n",
	"$5\r\nHello\r\n",
	"$12\r\nHello\r\nWorld\r\n",
	"$3\r\n\r\r\r\r\n",
	"$1\r\n\n\r\n",
	"!21\r\nSYNTAX invalid syntax\r\n",
	"=15\r\ntxt:Some string\r\n",
	"*0\r\n",
	"*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
	"*3\r\n*1\r\n*0\r\n%1\r\n+a\r\n_\r\n~2\r\n:1\r\n$2\r\n\r\n\r\n",
	"%2\r\n+first\r\n:1\r\n+second\r\n:2\r\n",
	"%1\r\n*2\r\n:1\r\n:2\r\n>1\r\n+push\r\n",
	">3\r\n$7\r\nmessage\r\n$7\r\nchannel\r\n$5\r\nhello\r\n",
	"~0\r\n",
	"+a\rb\r\n",
	"+" + strings.Repeat("x", 1024) + "\r\n",
	"$2000\r\n" + strings.Repeat("y", 2000) + "\r\n",
}

func TestReaderReadFrame(t *testing.T) {
	wrappers := map[string]func(io.Reader) io.Reader{
		"Direct":        func(r io.Reader) io.Reader { return r },
		"OneByteReader": iotest.OneByteReader,
		"HalfReader":    iotest.HalfReader,
		"DataErrReader": iotest.DataErrReader,
	}

	for name, wrap := range wrappers {
		t.Run(name, func(t *testing.T) {
			for _, unit := range frameUnits {
				for size := 1; size <= len(unit); size++ {
					rr := resp3.NewReader(wrap(strings.NewReader(unit + "+next\r\n")))

					frame, err := rr.ReadFrame(size)
					assertError(t, nil, err)
					if string(frame) != unit {
						t.Fatalf("got frame %q with size %d, expected %q", frame, size, unit)
					}

					next, err := rr.ReadFrame(1)
					assertError(t, nil, err)
					if string(next) != "+next\r\n" {
						t.Fatalf("got next frame %q after %q with size %d, expected %q", next, unit, size, "+next\r\n")
					}

					_, err = rr.ReadFrame(size)
					assertError(t, io.EOF, err)
				}
			}
		})
	}
}

func TestReaderReadFrameDecodes(t *testing.T) {
	for _, unit := range frameUnits {
		frame, err := resp3.NewReader(strings.NewReader(unit)).ReadFrame(1)
		assertError(t, nil, err)
		if _, err := resp3.Decode(frame); err != nil {
			t.Errorf("failed to decode frame %q: %s", frame, err)
		}
	}
}

func TestReaderReadFrameSmallBuffer(t *testing.T) {
	unit := "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n"

	frame, err := resp3.NewReader(strings.NewReader(unit)).ReadFrame(1)
	assertError(t, nil, err)
	if len(frame) != len(unit) || string(frame) != unit {
		t.Fatalf("got %d byte frame %q, expected %d byte frame %q", len(frame), frame, len(unit), unit)
	}

	v, err := resp3.Decode(frame)
	assertError(t, nil, err)
	assertValue(t, []any{"foo", "bar"}, v)
}

func TestReaderAppendFrame(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("*1\r\n+OK\r\n:1\r\n"))

	b, err := rr.AppendFrame([]byte("prefix"), 2)
	assertError(t, nil, err)
	if got, expected := string(b), "prefix*1\r\n+OK\r\n"; got != expected {
		t.Fatalf("got %q, expected %q", got, expected)
	}

	b, err = rr.AppendFrame(b[:0], 4)
	assertError(t, nil, err)
	if got, expected := string(b), ":1\r\n"; got != expected {
		t.Fatalf("got %q, expected %q", got, expected)
	}
}

func TestReaderEOF(t *testing.T) {
	for _, r := range []io.Reader{
		strings.NewReader(""),
		iotest.DataErrReader(strings.NewReader("")),
	} {
		b, err := resp3.NewReader(r).ReadFrame(1)
		if !errors.Is(err, io.EOF) || errors.Is(err, resp3.ErrTruncatedUnit) {
			t.Errorf("got error %v, expected io.EOF", err)
		}
		if len(b) != 0 {
			t.Errorf("got %q, expected no data", b)
		}
	}
}

func TestReaderTruncated(t *testing.T) {
	for _, in := range []string{
		"+",
		"+OK",
		"+OK\r",
		"$5",
		"$5\r\n",
		"$5\r\nHel",
		"$5\r\nHello\r",
		"*2\r\n",
		"*2\r\n+a\r\n",
		"*2\r\n+a\r\n+",
		"%1\r\n+a\r\n",
		"*1\r\n*1\r\n*1\r\n",
	} {
		for size := 1; size <= len(in); size++ {
			b, err := resp3.NewReader(strings.NewReader(in)).ReadFrame(size)
			assertError(t, resp3.ErrTruncatedUnit, err)
			if errors.Is(err, io.EOF) {
				t.Errorf("got io.EOF for truncated unit %q", in)
			}
			if string(b) != in {
				t.Errorf("got partial data %q, expected %q", b, in)
			}
		}
	}
}

func TestReaderOverread(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("+OK\r\n+next\r\n"))

	b, err := rr.ReadFrame(10)
	assertError(t, resp3.ErrOverread, err)
	if string(b) != "+OK\r\n" {
		t.Errorf("got %q, expected %q", b, "+OK\r\n")
	}
}

func TestReaderErrors(t *testing.T) {
	for _, test := range []struct {
		Name   string
		In     string
		Reader resp3.Reader
		Error  error
	}{
		{Name: "UnknownType", In: "?\r\n", Error: resp3.ErrUnknownType},
		{Name: "UnknownNestedType", In: "*1\r\n?\r\n", Error: resp3.ErrUnknownType},
		{Name: "InvalidLength", In: "$x\r\n", Error: resp3.ErrInvalidLength},
		{Name: "NegativeLength", In: "*-1\r\n", Error: resp3.ErrInvalidLength},
		{Name: "MissingBlobEOL", In: "$3\r\nfooXX", Error: resp3.ErrUnexpectedEOL},
		{Name: "NestingTooDeep", In: "*1\r\n*1\r\n*1\r\n_\r\n", Reader: resp3.Reader{MaxDepth: 2}, Error: resp3.ErrNestingTooDeep},
		{Name: "NestingUnlimited", In: strings.Repeat("*1\r\n", 1000) + "_\r\n", Reader: resp3.Reader{MaxDepth: -1}},
		{Name: "DefaultNestingLimit", In: strings.Repeat("*1\r\n", resp3.DefaultMaxDepth+1) + "_\r\n", Error: resp3.ErrNestingTooDeep},
		{Name: "BlobLimit", In: "$5\r\nHello\r\n", Reader: resp3.Reader{SingleReadSizeLimit: 4}, Error: resp3.ErrSingleReadSizeLimitExceeded},
		{Name: "BlobAtLimit", In: "$5\r\nHello\r\n", Reader: resp3.Reader{SingleReadSizeLimit: 5}},
		{Name: "LineLimit", In: "+Hello world\r\n", Reader: resp3.Reader{SingleReadSizeLimit: 4}, Error: resp3.ErrSingleReadSizeLimitExceeded},
		{Name: "LimitDisabled", In: "$5\r\nHello\r\n", Reader: resp3.Reader{SingleReadSizeLimit: -1}},
		{Name: "HugeBlob", In: "$9223372036854775807\r\n", Reader: resp3.Reader{SingleReadSizeLimit: -1}, Error: resp3.ErrInvalidLength},
	} {
		t.Run(test.Name, func(t *testing.T) {
			rr := test.Reader
			rr.Reset(strings.NewReader(test.In))

			_, err := rr.ReadFrame(1)
			assertError(t, test.Error, err)
		})
	}
}

func TestReaderInvalidSize(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("+OK\r\n"))
	if _, err := rr.ReadFrame(0); err == nil {
		t.Fatal("expected error for read size 0")
	}

	// nothing was consumed
	b, err := rr.ReadFrame(1)
	assertError(t, nil, err)
	if string(b) != "+OK\r\n" {
		t.Errorf("got %q, expected %q", b, "+OK\r\n")
	}
}

func TestReaderReadError(t *testing.T) {
	rr := resp3.NewReader(iotest.TimeoutReader(iotest.OneByteReader(strings.NewReader("$5\r\nHello\r\n"))))

	_, err := rr.ReadFrame(1)
	assertError(t, iotest.ErrTimeout, err)
	if errors.Is(err, resp3.ErrTruncatedUnit) {
		t.Errorf("got truncated unit error for read error %q", err)
	}
}

func TestReaderReadValue(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("+OK\r\n%1\r\n+a\r\n,1.5\r\n>1\r\n+push\r\n"))

	v, err := rr.ReadValue()
	assertError(t, nil, err)
	assertValue(t, "OK", v)

	v, err = rr.ReadValue()
	assertError(t, nil, err)
	assertValue(t, resp3.NewMap(resp3.MapEntry{Key: "a", Value: 1.5}), v)

	v, err = rr.ReadValue()
	assertError(t, nil, err)
	assertValue(t, resp3.Push{"push"}, v)

	_, err = rr.ReadValue()
	assertError(t, io.EOF, err)
}

func TestReaderReadValueBufferSize(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("$11\r\nHello World\r\n"))
	rr.BufferSize = 18

	v, err := rr.ReadValue()
	assertError(t, nil, err)
	assertValue(t, "Hello World", v)

	rr.Reset(strings.NewReader("+OK\r\n+next\r\n"))
	_, err = rr.ReadValue()
	assertError(t, resp3.ErrOverread, err)
}

func TestReaderReadValueMalformed(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader("#x\r\n+OK\r\n"))

	_, err := rr.ReadValue()
	assertError(t, resp3.ErrInvalidBoolean, err)

	// the malformed unit was still consumed completely
	v, err := rr.ReadValue()
	assertError(t, nil, err)
	assertValue(t, "OK", v)
}

func TestReaderReset(t *testing.T) {
	rr := resp3.NewReader(strings.NewReader(""))
	rr.MaxDepth = 1

	_, err := rr.ReadFrame(1)
	assertError(t, io.EOF, err)

	rr.Reset(strings.NewReader("*1\r\n*0\r\n"))
	_, err = rr.ReadFrame(1)
	assertError(t, resp3.ErrNestingTooDeep, err)

	rr.Reset(strings.NewReader("*1\r\n_\r\n"))
	_, err = rr.ReadFrame(1)
	assertError(t, nil, err)
}

func TestReaderBufio(t *testing.T) {
	var in strings.Builder
	for _, unit := range frameUnits {
		in.WriteString(unit)
	}

	rr := resp3.NewReader(bufio.NewReaderSize(strings.NewReader(in.String()), 16))
	for _, unit := range frameUnits {
		frame, err := rr.ReadFrame(1)
		assertError(t, nil, err)
		if string(frame) != unit {
			t.Fatalf("got %q, expected %q", frame, unit)
		}
	}
	_, err := rr.ReadFrame(1)
	assertError(t, io.EOF, err)
}

func TestReaderLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	rr := resp3.NewReader(strings.NewReader("$5\r\nHello\r\n"))
	rr.Logger = &logger

	_, err := rr.ReadFrame(1)
	assertError(t, nil, err)

	var event struct {
		Level   string `json:"level"`
		Type    string `json:"type"`
		Size    int    `json:"size"`
		Reads   int    `json:"reads"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(buf.Bytes(), &event); err != nil {
		t.Fatalf("failed to parse log output %q: %s", buf.String(), err)
	}

	// one read for the type, two for the header line and one for the rest
	if event.Level != "debug" || event.Type != "$" || event.Size != 11 || event.Reads != 4 || event.Message != "read frame" {
		t.Errorf("got unexpected log event %+v", event)
	}

	buf.Reset()
	quiet := logger.Level(zerolog.InfoLevel)
	rr.Logger = &quiet
	rr.Reset(strings.NewReader("+OK\r\n"))

	_, err = rr.ReadFrame(1)
	assertError(t, nil, err)
	if buf.Len() != 0 {
		t.Errorf("got log output %q, expected none", buf.String())
	}
}

type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

func TestReaderSingleReadForBlob(t *testing.T) {
	payload := strings.Repeat("z", 1<<16)
	cr := &countingReader{r: strings.NewReader("$65536\r\n" + payload + "\r\n")}

	frame, err := resp3.NewReader(cr).ReadFrame(8)
	assertError(t, nil, err)
	if len(frame) != 8+len(payload)+2 {
		t.Fatalf("got %d bytes, expected %d", len(frame), 8+len(payload)+2)
	}
	// the header fits into the first read, so the payload takes exactly one more
	if cr.reads != 2 {
		t.Errorf("got %d reads, expected 2", cr.reads)
	}
}

func BenchmarkReaderReadFrame(b *testing.B) {
	var in []byte
	for _, unit := range frameUnits {
		in = append(in, unit...)
	}

	r := bytes.NewReader(nil)
	rr := resp3.NewReader(nil)
	buf := make([]byte, 0, 16384)

	b.SetBytes(int64(len(in)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r.Reset(in)
		rr.Reset(bufio.NewReader(r))

		for {
			frame, err := rr.AppendFrame(buf[:0], 1)
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatalf("failed to read frame: %s", err)
			}
			buf = frame
		}
	}
}
