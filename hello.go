package resp3

import (
	"errors"
	"fmt"
)

// ErrInvalidGreeting is returned when a HELLO reply is not a map or lacks a required field.
var ErrInvalidGreeting = errors.New("invalid greeting")

// Greeting is the reply to a HELLO command.
//
// Server, Version and Proto are always set. The other fields are zero if the server did not send them.
type Greeting struct {
	Server  string
	Version string
	Proto   int64
	ID      int64
	Mode    string
	Role    string
	Modules []any

	// Fields contains all fields of the reply, including the ones above.
	Fields *Map
}

// NewGreeting builds a Greeting from a decoded HELLO reply.
func NewGreeting(v any) (*Greeting, error) {
	m, ok := v.(*Map)
	if !ok {
		return nil, fmt.Errorf("%w: expected map, got %T", ErrInvalidGreeting, v)
	}

	g := &Greeting{Fields: m}

	var err error
	if g.Server, err = greetingField[string](m, "server", true); err != nil {
		return nil, err
	}
	if g.Version, err = greetingField[string](m, "version", true); err != nil {
		return nil, err
	}
	if g.Proto, err = greetingField[int64](m, "proto", true); err != nil {
		return nil, err
	}
	if g.ID, err = greetingField[int64](m, "id", false); err != nil {
		return nil, err
	}
	if g.Mode, err = greetingField[string](m, "mode", false); err != nil {
		return nil, err
	}
	if g.Role, err = greetingField[string](m, "role", false); err != nil {
		return nil, err
	}
	if g.Modules, err = greetingField[[]any](m, "modules", false); err != nil {
		return nil, err
	}
	return g, nil
}

// DecodeGreeting decodes unit and builds a Greeting from it.
func DecodeGreeting(unit []byte) (*Greeting, error) {
	v, err := Decode(unit)
	if err != nil {
		return nil, err
	}
	return NewGreeting(v)
}

func greetingField[T any](m *Map, key string, required bool) (T, error) {
	var zero T
	v, ok := m.Get(key)
	if !ok || v == nil {
		if required {
			return zero, fmt.Errorf("%w: missing field %q", ErrInvalidGreeting, key)
		}
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: field %q has type %T, expected %T", ErrInvalidGreeting, key, v, zero)
	}
	return t, nil
}
