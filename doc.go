// Package resp3 implements encoding, decoding and stream framing of values in the Redis RESP3 protocol.
//
// Values are encoded with an Encoder and decoded with a Decoder. A Reader reads exactly one complete unit at a time
// from an io.Reader without reading into the next unit, which makes it safe to use directly on a network connection.
//
// All three use a Registry that maps identifier bytes and value shapes to descriptors. The DefaultRegistry contains
// descriptors for all RESP3 types. Custom types can be added using Register, either process-wide or on a separate
// Registry that is set on the Encoder, Decoder or Reader.
//
// Decoded values use the following Go types:
//
//	simple string, bulk string  string
//	number                      int64
//	big number                  *big.Int
//	double                      float64
//	boolean                     bool
//	null                        nil
//	simple error                SimpleError
//	bulk error                  BulkError
//	verbatim string             VerbatimString
//	array                       []any
//	push                        Push
//	set                         Set
//	map                         *Map
//
// Methods that append to a []byte (e.g. Encoder.Append) allow reusing buffers between calls.
package resp3
