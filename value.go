package resp3

import (
	"fmt"
)

// SimpleError is a single-line error reply, encoded as "-PREFIX message\r\n".
//
// Decoding splits the line on the first space only, so a prefix never contains a space.
type SimpleError struct {
	Prefix  string
	Message string
}

var _ error = SimpleError{}

// Error implements the error interface.
func (e SimpleError) Error() string {
	return joinError(e.Prefix, e.Message)
}

// BulkError is an error reply that may span multiple lines, encoded as a byte-count unit.
type BulkError struct {
	Prefix  string
	Message string
}

var _ error = BulkError{}

// Error implements the error interface.
func (e BulkError) Error() string {
	return joinError(e.Prefix, e.Message)
}

func joinError(prefix, message string) string {
	if message == "" {
		return prefix
	}
	return prefix + " " + message
}

func splitError(s string) (prefix, message string) {
	for i := 0; i < len(s); i++ {
		if s[i] == ' ' {
			return s[:i], s[i+1:]
		}
	}
	return s, ""
}

// VerbatimString is a string tagged with a 3 byte encoding label such as "txt" or "mkd".
type VerbatimString struct {
	Encoding string
	Data     string
}

// String returns the data without the encoding label.
func (v VerbatimString) String() string {
	return v.Data
}

// Push is an out-of-band sequence of values. It is structurally the same as an array but uses its own type.
//
// Push values are only ever produced from a Push, never from a plain []any.
type Push []any

// Set is an unordered collection of unique values.
//
// Decoded sets drop elements that are equal to an earlier element. Use NewSet to build a set from values that may
// contain duplicates.
type Set []any

// NewSet returns a Set containing the given values, dropping values equal to an earlier value.
func NewSet(values ...any) Set {
	s := make(Set, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		k := valueKey(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		s = append(s, v)
	}
	return s
}

// Contains reports whether the set contains a value equal to v.
func (s Set) Contains(v any) bool {
	k := valueKey(v)
	for _, e := range s {
		if valueKey(e) == k {
			return true
		}
	}
	return false
}

// MapEntry is a single key-value pair of a Map.
type MapEntry struct {
	Key   any
	Value any
}

// Map is a mapping from keys to values that remembers the order in which keys were first added.
//
// Keys may be any value, including aggregates. Two keys are the same if they encode to the same bytes.
//
// The zero value is an empty map ready to use.
type Map struct {
	entries []MapEntry
	index   map[string]int
}

// NewMap returns a Map with the given key-value pairs. If the same key is given more than once, the last value wins.
func NewMap(entries ...MapEntry) *Map {
	m := &Map{
		entries: make([]MapEntry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

// Len returns the number of entries in m.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Get returns the value for key.
func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	i, ok := m.index[valueKey(key)]
	if !ok {
		return nil, false
	}
	return m.entries[i].Value, true
}

// Set sets the value for key. Existing keys keep their position.
func (m *Map) Set(key, value any) {
	k := valueKey(key)
	if i, ok := m.index[k]; ok {
		m.entries[i].Value = value
		return
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[k] = len(m.entries)
	m.entries = append(m.entries, MapEntry{Key: key, Value: value})
}

// Entries returns the entries of m in insertion order.
//
// The returned slice must not be modified.
func (m *Map) Entries() []MapEntry {
	if m == nil {
		return nil
	}
	return m.entries
}

// valueKey returns a string that is equal for two values if and only if they encode to the same bytes.
func valueKey(v any) string {
	var e Encoder
	b, err := e.Append(nil, v)
	if err != nil {
		return fmt.Sprintf("%T:%#v", v, v)
	}
	return string(b)
}
