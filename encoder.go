package resp3

// Encoder encodes values into their RESP3 representation.
//
// The zero value is ready to use and encodes using the DefaultRegistry.
type Encoder struct {
	// Registry is used to find descriptors for custom values. If nil, DefaultRegistry is used.
	Registry *Registry

	// BulkStrings makes the Encoder use the bulk string type for all strings, even if they could be encoded as
	// simple strings.
	BulkStrings bool
}

// Append appends the encoding of v to dst and returns the extended slice.
//
// On error the returned slice is nil and dst must be considered garbage.
func (e *Encoder) Append(dst []byte, v any) ([]byte, error) {
	if s, ok := v.(string); ok && e.BulkStrings {
		return appendBulkString(dst, TypeBulkString, s), nil
	}
	d, err := registryOrDefault(e.Registry).LookupValue(v)
	if err != nil {
		return nil, err
	}
	return d.Encode(e, dst, v)
}

// Encode returns the encoding of v.
func (e *Encoder) Encode(v any) ([]byte, error) {
	return e.Append(nil, v)
}

func (e *Encoder) appendElements(dst []byte, t Type, elems []any) ([]byte, error) {
	dst = appendHeader(dst, t, len(elems))
	var err error
	for _, elem := range elems {
		if dst, err = e.Append(dst, elem); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (e *Encoder) appendPair(dst []byte, key, value any) ([]byte, error) {
	dst, err := e.Append(dst, key)
	if err != nil {
		return nil, err
	}
	return e.Append(dst, value)
}

// Encode returns the encoding of v using the DefaultRegistry.
func Encode(v any) ([]byte, error) {
	var e Encoder
	return e.Append(nil, v)
}
