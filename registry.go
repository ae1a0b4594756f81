package resp3

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sync"
)

// Shaper is implemented by custom values that are encoded using a registered Descriptor.
//
// RESPShape returns the key the descriptor was registered under.
type Shaper interface {
	RESPShape() string
}

// Registry maps identifier bytes and value shapes to descriptors.
//
// A Registry is safe for concurrent use. Lookups take a shared lock and registrations an exclusive one.
type Registry struct {
	mu     sync.RWMutex
	types  [256]Descriptor
	shapes map[string]Descriptor
}

// DefaultRegistry is used by Encoder, Decoder and Reader when no explicit Registry is set.
var DefaultRegistry = NewRegistry()

// NewRegistry returns a Registry containing all built-in RESP3 types.
func NewRegistry() *Registry {
	r := &Registry{shapes: make(map[string]Descriptor)}
	for _, d := range builtins {
		r.types[d.Type()] = d
	}
	return r
}

// Register adds d to the registry under its identifier byte and, if shape is not empty, under shape.
//
// Registering a descriptor for an identifier byte or shape that is already in use replaces the previous descriptor.
// This includes built-in types, which allows replacing their decoding. Built-in Go values are always encoded using
// the built-in descriptors.
func (r *Registry) Register(shape string, d Descriptor) error {
	if d == nil {
		return fmt.Errorf("%w: nil descriptor", ErrInvalidDescriptor)
	}
	if t := d.Type(); t == TypeInvalid || t == '\r' || t == '\n' || t > 127 {
		return fmt.Errorf("%w: identifier byte %q", ErrInvalidDescriptor, byte(t))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[d.Type()] = d
	if shape != "" {
		if r.shapes == nil {
			r.shapes = make(map[string]Descriptor)
		}
		r.shapes[shape] = d
	}
	return nil
}

// LookupType returns the descriptor registered for t.
//
// If no descriptor is registered for t an error wrapping ErrUnknownType is returned.
func (r *Registry) LookupType(t Type) (Descriptor, error) {
	r.mu.RLock()
	d := r.types[t]
	r.mu.RUnlock()
	if d == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, byte(t))
	}
	return d, nil
}

// LookupValue returns the descriptor used to encode v.
//
// Built-in Go values map to the built-in descriptors. Strings use the simple string type unless they contain \r or
// \n. Values implementing Shaper are looked up by their shape. Other slices and arrays are encoded as arrays and
// other maps as maps. For all other values an error wrapping ErrUnsupportedValue is returned.
func (r *Registry) LookupValue(v any) (Descriptor, error) {
	switch v := v.(type) {
	case nil:
		return nullType, nil
	case string:
		if containsEOL(v) {
			return bulkStringType, nil
		}
		return simpleStringType, nil
	case []byte:
		return bulkStringType, nil
	case bool:
		return booleanType, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return numberType, nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return bigNumberType, nil
		}
		return numberType, nil
	case uint64:
		if v > math.MaxInt64 {
			return bigNumberType, nil
		}
		return numberType, nil
	case float32, float64:
		return doubleType, nil
	case *big.Int:
		return bigNumberType, nil
	case SimpleError, *SimpleError:
		return simpleErrorType, nil
	case BulkError, *BulkError:
		return bulkErrorType, nil
	case VerbatimString, *VerbatimString:
		return verbatimStringType, nil
	case []any, []string:
		return arrayType, nil
	case Push:
		return pushType, nil
	case Set:
		return setType, nil
	case *Map, map[string]any:
		return mapType, nil
	case Shaper:
		shape := v.RESPShape()
		r.mu.RLock()
		d := r.shapes[shape]
		r.mu.RUnlock()
		if d == nil {
			return nil, fmt.Errorf("%w: no descriptor registered for shape %q", ErrUnsupportedValue, shape)
		}
		return d, nil
	default:
		switch reflect.ValueOf(v).Kind() {
		case reflect.Slice, reflect.Array:
			return arrayType, nil
		case reflect.Map:
			return mapType, nil
		}
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}
}

// Register adds d to the DefaultRegistry. See Registry.Register.
func Register(shape string, d Descriptor) error {
	return DefaultRegistry.Register(shape, d)
}

func registryOrDefault(r *Registry) *Registry {
	if r == nil {
		return DefaultRegistry
	}
	return r
}
