//go:build gofuzz
// +build gofuzz

package resp3

import (
	"bytes"
)

var fuzzFuncs = []func([]byte) error{
	/* Decode: */ func(data []byte) error { _, err := Decode(data); return err },
	/* DecodeNext: */ func(data []byte) error { _, _, err := new(Decoder).DecodeNext(data); return err },
	/* ReadFrame: */ func(data []byte) error { _, err := NewReader(bytes.NewReader(data)).ReadFrame(1); return err },
	/* ReadValue: */ func(data []byte) error { _, err := NewReader(bytes.NewReader(data)).ReadValue(); return err },
}

func Fuzz(data []byte) int {
	var ret int
	for _, f := range fuzzFuncs {
		if err := f(data); err == nil {
			ret = 1
		}
	}
	return ret
}
