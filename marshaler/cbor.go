package marshaler

import "github.com/dogmatiq/permitkv/internal/codec"

// NewCBOR returns a marshaler that marshals and unmarshals an arbitrary type
// using deterministic CBOR encoding.
//
// Equal values always produce identical encodings, which keeps values
// comparable byte-for-byte across storage drivers.
func NewCBOR[T any]() Marshaler[T] {
	return marshaler[T]{
		func(v T) ([]byte, error) {
			return codec.Marshal(v)
		},
		func(data []byte) (T, error) {
			var v T
			return v, codec.Unmarshal(data, &v)
		},
	}
}
