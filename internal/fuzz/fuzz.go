package fuzz

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/nussjustin/resp3/v2"
)

// Funcs are the checks run by Reader, each returning an error only for bugs, not for invalid input.
var Funcs = []struct {
	Name string
	Func func([]byte) error
}{
	{Name: "Decode", Func: decode},
	{Name: "ReadFrame", Func: readFrame},
	{Name: "RoundTrip", Func: roundTrip},
}

func decode(data []byte) error {
	_, _, _ = new(resp3.Decoder).DecodeNext(data)
	return nil
}

// readFrame checks that framing agrees with decoding for every initial read size.
func readFrame(data []byte) error {
	_, n, err := new(resp3.Decoder).DecodeNext(data)
	if err != nil {
		return nil
	}
	for size := 1; size <= n; size++ {
		r := bytes.NewReader(data)
		frame, err := resp3.NewReader(r).ReadFrame(size)
		if err != nil {
			return fmt.Errorf("size %d: %w", size, err)
		}
		if !bytes.Equal(frame, data[:n]) {
			return fmt.Errorf("size %d: got frame %q, expected %q", size, frame, data[:n])
		}
		if rest, _ := io.ReadAll(r); !bytes.Equal(rest, data[n:]) {
			return fmt.Errorf("size %d: got rest %q, expected %q", size, rest, data[n:])
		}
	}
	return nil
}

// roundTrip checks that encoding a decoded value and decoding it again gives the same canonical encoding.
func roundTrip(data []byte) error {
	v, _, err := new(resp3.Decoder).DecodeNext(data)
	if err != nil {
		return nil
	}
	first, err := resp3.Encode(v)
	if errors.Is(err, resp3.ErrInvalidErrorMessage) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("encode %#v: %w", v, err)
	}
	w, err := resp3.Decode(first)
	if err != nil {
		return fmt.Errorf("decode %q: %w", first, err)
	}
	second, err := resp3.Encode(w)
	if err != nil {
		return fmt.Errorf("encode %#v: %w", w, err)
	}
	if !bytes.Equal(first, second) {
		return fmt.Errorf("got %q, expected %q", second, first)
	}
	return nil
}

// Reader is a go-fuzz entry point.
func Reader(data []byte) int {
	var ret int
	for _, f := range Funcs {
		if err := f.Func(data); err != nil {
			panic(fmt.Sprintf("%s: %s", f.Name, err))
		}
	}
	if _, err := resp3.Decode(data); err == nil {
		ret = 1
	}
	return ret
}
