package resp3_test

import (
	"math"
	"testing"

	"github.com/nussjustin/resp3/v2"
)

func TestErrorPrefix(t *testing.T) {
	for _, test := range []struct {
		In      string
		Prefix  string
		Message string
		String  string
	}{
		{In: "-ERR unknown command\r\n", Prefix: "ERR", Message: "unknown command", String: "ERR unknown command"},
		{In: "-ERR\r\n", Prefix: "ERR", Message: "", String: "ERR"},
		{In: "-ERR  two spaces\r\n", Prefix: "ERR", Message: " two spaces", String: "ERR  two spaces"},
		{In: "- no prefix\r\n", Prefix: "", Message: "no prefix", String: " no prefix"},
		{In: "-\r\n", Prefix: "", Message: "", String: ""},
		{In: "!10\r\nERR a\r\nb c\r\n", Prefix: "ERR", Message: "a\r\nb c", String: "ERR a\r\nb c"},
	} {
		v, err := resp3.Decode([]byte(test.In))
		assertError(t, nil, err)

		var prefix, message, s string
		switch e := v.(type) {
		case resp3.SimpleError:
			prefix, message, s = e.Prefix, e.Message, e.Error()
		case resp3.BulkError:
			prefix, message, s = e.Prefix, e.Message, e.Error()
		default:
			t.Fatalf("got %T for %q, expected an error value", v, test.In)
		}

		if prefix != test.Prefix || message != test.Message {
			t.Errorf("got prefix %q and message %q for %q, expected %q and %q", prefix, message, test.In, test.Prefix, test.Message)
		}
		if s != test.String {
			t.Errorf("got error string %q, expected %q", s, test.String)
		}

		// the split must survive re-encoding
		b, err := resp3.Encode(v)
		assertError(t, nil, err)
		if string(b) != test.In {
			t.Errorf("got %q after re-encoding, expected %q", b, test.In)
		}
	}
}

func TestVerbatimStringString(t *testing.T) {
	if got := (resp3.VerbatimString{Encoding: "txt", Data: "hello"}).String(); got != "hello" {
		t.Errorf("got %q, expected %q", got, "hello")
	}
}

func TestSet(t *testing.T) {
	s := resp3.NewSet("a", 1, int64(1), "a", []any{"x"}, []any{"x"})
	if len(s) != 3 {
		t.Fatalf("got %d elements in %#v, expected 3", len(s), s)
	}
	for _, v := range []any{"a", int8(1), []any{"x"}} {
		if !s.Contains(v) {
			t.Errorf("expected set to contain %#v", v)
		}
	}
	if s.Contains("b") {
		t.Errorf("expected set to not contain %q", "b")
	}

	// servers are not expected to send duplicates, but if they do the first occurrence is kept
	v, err := resp3.Decode([]byte("~4\r\n,nan\r\n,nan\r\n$1\r\na\r\n+a\r\n"))
	assertError(t, nil, err)
	got, ok := v.(resp3.Set)
	if !ok {
		t.Fatalf("got %T, expected resp3.Set", v)
	}
	if len(got) != 2 {
		t.Fatalf("got %#v, expected 2 elements", got)
	}
	if f, ok := got[0].(float64); !ok || !math.IsNaN(f) {
		t.Errorf("got %#v as first element, expected NaN", got[0])
	}
	if got[1] != "a" {
		t.Errorf("got %#v as second element, expected %q", got[1], "a")
	}
}

func TestMap(t *testing.T) {
	var m resp3.Map
	if m.Len() != 0 {
		t.Fatalf("got %d entries in zero value, expected 0", m.Len())
	}

	m.Set("a", 1)
	m.Set([]any{"composite", int64(1)}, 2)
	m.Set("b", 3)
	m.Set("a", 4)

	if m.Len() != 3 {
		t.Fatalf("got %d entries, expected 3", m.Len())
	}
	if v, ok := m.Get("a"); !ok || v != 4 {
		t.Errorf("got %#v, %v for %q, expected 4, true", v, ok, "a")
	}
	if v, ok := m.Get([]any{"composite", 1}); !ok || v != 2 {
		t.Errorf("got %#v, %v for composite key, expected 2, true", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Errorf("got value for missing key")
	}

	var keys []any
	for _, e := range m.Entries() {
		keys = append(keys, e.Key)
	}
	assertValue(t, []any{"a", []any{"composite", int64(1)}, "b"}, keys)

	var nilMap *resp3.Map
	if nilMap.Len() != 0 || nilMap.Entries() != nil {
		t.Errorf("expected nil map to be empty")
	}
	if _, ok := nilMap.Get("a"); ok {
		t.Errorf("got value from nil map")
	}
}

func TestMapDecodeLastValueWins(t *testing.T) {
	v, err := resp3.Decode([]byte("%3\r\n+a\r\n:1\r\n+b\r\n:2\r\n$1\r\na\r\n:3\r\n"))
	assertError(t, nil, err)

	assertValue(t, resp3.NewMap(
		resp3.MapEntry{Key: "a", Value: int64(3)},
		resp3.MapEntry{Key: "b", Value: int64(2)},
	), v)
}
