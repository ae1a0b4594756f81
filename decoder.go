package resp3

import (
	"fmt"
)

// DefaultMaxDepth is the maximum nesting depth of aggregates used when Decoder.MaxDepth or Reader.MaxDepth is 0.
const DefaultMaxDepth = 512

// Decoder decodes complete RESP3 units into values.
//
// The zero value is ready to use and decodes using the DefaultRegistry.
type Decoder struct {
	// Registry is used to find descriptors by identifier byte. If nil, DefaultRegistry is used.
	Registry *Registry

	// MaxDepth limits how deep aggregates can be nested. A top-level aggregate has depth 1.
	// If MaxDepth is 0, DefaultMaxDepth is used instead. A negative value disables the limit.
	MaxDepth int
}

// Decode decodes unit, which must contain exactly one complete unit.
func (d *Decoder) Decode(unit []byte) (any, error) {
	v, n, err := d.DecodeNext(unit)
	if err != nil {
		return nil, err
	}
	if n != len(unit) {
		return nil, fmt.Errorf("%w: %d bytes after end of unit", ErrMalformedUnit, len(unit)-n)
	}
	return v, nil
}

// DecodeNext decodes the unit at the start of b and returns the value and the number of bytes the unit occupies.
//
// Bytes following the unit are ignored.
func (d *Decoder) DecodeNext(b []byte) (any, int, error) {
	return d.decodeNext(b, 0)
}

func (d *Decoder) maxDepth() int {
	if d.MaxDepth == 0 {
		return DefaultMaxDepth
	}
	return d.MaxDepth
}

func (d *Decoder) decodeNext(b []byte, depth int) (any, int, error) {
	if len(b) == 0 {
		return nil, 0, fmt.Errorf("%w: expected unit, got end of input", ErrMalformedUnit)
	}
	desc, err := registryOrDefault(d.Registry).LookupType(Type(b[0]))
	if err != nil {
		return nil, 0, err
	}
	rule := desc.Rule()
	n, err := rule.Len(b)
	if err != nil {
		return nil, 0, err
	}
	switch rule {
	case Terminated:
		end := n + len(terminator)
		v, err := desc.Decode(d, b[:end])
		if err != nil {
			return nil, 0, err
		}
		return v, end, nil
	case ByteCount:
		start := indexTerminator(b, 0) + len(terminator)
		end := start + n + len(terminator)
		if end > len(b) || end < start {
			return nil, 0, fmt.Errorf("%w: expected %d bytes of payload, got %d", ErrMalformedUnit, n, len(b)-start)
		}
		v, err := desc.Decode(d, b[:end])
		if err != nil {
			return nil, 0, err
		}
		return v, end, nil
	case ElementCount, PairCount:
		return d.decodeAggregate(desc, b, depth+1)
	default:
		return nil, 0, fmt.Errorf("%w: type %q uses unknown length rule %s", ErrUnknownType, desc.Type(), rule)
	}
}

// decodeAggregate walks the nested units of the aggregate at the start of b.
func (d *Decoder) decodeAggregate(desc Descriptor, b []byte, depth int) (any, int, error) {
	agg, ok := desc.(Aggregator)
	if !ok {
		return nil, 0, fmt.Errorf("%w: aggregate type %q does not implement Aggregator", ErrUnknownType, desc.Type())
	}
	if limit := d.maxDepth(); limit > 0 && depth > limit {
		return nil, 0, fmt.Errorf("%w: exceeded depth %d", ErrNestingTooDeep, limit)
	}
	n, err := desc.Rule().Len(b)
	if err != nil {
		return nil, 0, err
	}
	units := desc.Rule().Units(n)
	off := indexTerminator(b, 0) + len(terminator)
	// every unit takes at least 3 bytes, which bounds the allocation for bogus counts
	if units > (len(b)-off)/minUnitLength {
		return nil, 0, fmt.Errorf("%w: %d nested units declared, input has room for %d", ErrMalformedUnit, units, (len(b)-off)/minUnitLength)
	}
	elems := make([]any, 0, units)
	for i := 0; i < units; i++ {
		v, m, err := d.decodeNext(b[off:], depth)
		if err != nil {
			return nil, 0, err
		}
		elems = append(elems, v)
		off += m
	}
	v, err := agg.Aggregate(elems)
	if err != nil {
		return nil, 0, err
	}
	return v, off, nil
}

// decodeUnit is used by aggregate descriptors to decode a complete unit on their own.
func (d *Decoder) decodeUnit(desc Descriptor, unit []byte) (any, error) {
	if len(unit) == 0 || Type(unit[0]) != desc.Type() {
		return nil, fmt.Errorf("%w: expected unit of type %q", ErrMalformedUnit, desc.Type())
	}
	v, n, err := d.decodeAggregate(desc, unit, 1)
	if err != nil {
		return nil, err
	}
	if n != len(unit) {
		return nil, fmt.Errorf("%w: %d bytes after end of unit", ErrMalformedUnit, len(unit)-n)
	}
	return v, nil
}

// Decode decodes unit using the DefaultRegistry. unit must contain exactly one complete unit.
func Decode(unit []byte) (any, error) {
	var d Decoder
	return d.Decode(unit)
}
