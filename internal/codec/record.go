// internal/codec/record.go
package codec

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Record holds decoded field values keyed by field name.
type Record map[string]any

// Fields reads typed values out of a Record. The first missing or mistyped
// field is remembered and every later getter returns a zero value.
type Fields struct {
	rec Record
	err error
}

// Read wraps rec for typed access.
func Read(rec Record) *Fields {
	return &Fields{rec: rec}
}

// Err returns the first lookup failure.
func (f *Fields) Err() error {
	return f.err
}

func get[T any](f *Fields, name string) T {
	var zero T
	if f.err != nil {
		return zero
	}
	raw, ok := f.rec[name]
	if !ok {
		f.err = fmt.Errorf("%w: field %q missing", ErrDecodeFailed, name)
		return zero
	}
	v, ok := raw.(T)
	if !ok {
		f.err = fmt.Errorf("%w: field %q has type %T, want %T", ErrDecodeFailed, name, raw, zero)
		return zero
	}
	return v
}

func (f *Fields) U8(name string) uint8 { return get[uint8](f, name) }
func (f *Fields) U16(name string) uint16 { return get[uint16](f, name) }
func (f *Fields) U32(name string) uint32 { return get[uint32](f, name) }
func (f *Fields) U64(name string) uint64 { return get[uint64](f, name) }
func (f *Fields) I64(name string) int64 { return get[int64](f, name) }
func (f *Fields) U128(name string) Uint128 { return get[Uint128](f, name) }
func (f *Fields) Bool(name string) bool { return get[bool](f, name) }
func (f *Fields) F64(name string) float64 { return get[float64](f, name) }
func (f *Fields) PublicKey(name string) solana.PublicKey { return get[solana.PublicKey](f, name) }
func (f *Fields) Vec(name string) []Record { return get[[]Record](f, name) }
