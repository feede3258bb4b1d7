// internal/codec/encoder.go
package codec

import (
	"bytes"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Encoder writes little-endian fields. The first write error is kept and
// returned by Bytes.
type Encoder struct {
	buf bytes.Buffer
	enc *bin.Encoder
	err error
}

// NewEncoder creates an empty encoder.
func NewEncoder() *Encoder {
	e := &Encoder{}
	e.enc = bin.NewBorshEncoder(&e.buf)
	return e
}

func (e *Encoder) do(fn func() error) *Encoder {
	if e.err == nil {
		e.err = fn()
	}
	return e
}

func (e *Encoder) WriteU8(v uint8) *Encoder {
	return e.do(func() error { return e.enc.WriteUint8(v) })
}

func (e *Encoder) WriteU16(v uint16) *Encoder {
	return e.do(func() error { return e.enc.WriteUint16(v, bin.LE) })
}

func (e *Encoder) WriteU32(v uint32) *Encoder {
	return e.do(func() error { return e.enc.WriteUint32(v, bin.LE) })
}

func (e *Encoder) WriteU64(v uint64) *Encoder {
	return e.do(func() error { return e.enc.WriteUint64(v, bin.LE) })
}

func (e *Encoder) WriteI64(v int64) *Encoder {
	return e.do(func() error { return e.enc.WriteInt64(v, bin.LE) })
}

// WriteU128 writes the low half then the high half.
func (e *Encoder) WriteU128(v Uint128) *Encoder {
	return e.WriteU64(v.Lo).WriteU64(v.Hi)
}

func (e *Encoder) WriteBool(v bool) *Encoder {
	var b uint8
	if v {
		b = 1
	}
	return e.WriteU8(b)
}

func (e *Encoder) WriteF64(v float64) *Encoder {
	return e.do(func() error { return e.enc.WriteFloat64(v, bin.LE) })
}

func (e *Encoder) WritePublicKey(key solana.PublicKey) *Encoder {
	return e.WriteBytes(key[:])
}

// WriteBytes writes raw bytes without a length prefix.
func (e *Encoder) WriteBytes(b []byte) *Encoder {
	return e.do(func() error { return e.enc.WriteBytes(b, false) })
}

// Pad appends n zero bytes.
func (e *Encoder) Pad(n int) *Encoder {
	if n <= 0 {
		return e
	}
	return e.WriteBytes(make([]byte, n))
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Bytes returns the encoded buffer or the first write error.
func (e *Encoder) Bytes() ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	return out, nil
}
