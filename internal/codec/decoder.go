// internal/codec/decoder.go
package codec

import (
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// Uint128 is an unsigned 128-bit value stored as two little-endian halves.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// BigInt returns lo + hi<<64.
func (u Uint128) BigInt() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(u.Lo))
}

// IsZero reports whether both halves are zero.
func (u Uint128) IsZero() bool {
	return u.Lo == 0 && u.Hi == 0
}

func (u Uint128) String() string {
	return u.BigInt().String()
}

// Uint128FromBig splits v into halves. It returns false when v is negative or wider than 128 bits.
func Uint128FromBig(v *big.Int) (Uint128, bool) {
	if v.Sign() < 0 || v.BitLen() > 128 {
		return Uint128{}, false
	}
	mask := new(big.Int).SetUint64(^uint64(0))
	lo := new(big.Int).And(v, mask).Uint64()
	hi := new(big.Int).Rsh(v, 64).Uint64()
	return Uint128{Lo: lo, Hi: hi}, true
}

// Decoder reads little-endian fields in order and checks the remaining length before every read.
type Decoder struct {
	dec  *bin.Decoder
	size int
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{
		dec:  bin.NewBorshDecoder(data),
		size: len(data),
	}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return d.dec.Remaining()
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.size - d.dec.Remaining()
}

func (d *Decoder) need(n int, field string) error {
	if have := d.dec.Remaining(); have < n {
		return &UnderrunError{Field: field, Offset: d.Offset(), Need: n, Have: have}
	}
	return nil
}

// ReadU8 reads one byte.
func (d *Decoder) ReadU8(field string) (uint8, error) {
	if err := d.need(1, field); err != nil {
		return 0, err
	}
	return d.dec.ReadUint8()
}

// ReadU16 reads a little-endian uint16.
func (d *Decoder) ReadU16(field string) (uint16, error) {
	if err := d.need(2, field); err != nil {
		return 0, err
	}
	return d.dec.ReadUint16(bin.LE)
}

// ReadU32 reads a little-endian uint32.
func (d *Decoder) ReadU32(field string) (uint32, error) {
	if err := d.need(4, field); err != nil {
		return 0, err
	}
	return d.dec.ReadUint32(bin.LE)
}

// ReadU64 reads a little-endian uint64.
func (d *Decoder) ReadU64(field string) (uint64, error) {
	if err := d.need(8, field); err != nil {
		return 0, err
	}
	return d.dec.ReadUint64(bin.LE)
}

// ReadI64 reads a little-endian int64.
func (d *Decoder) ReadI64(field string) (int64, error) {
	if err := d.need(8, field); err != nil {
		return 0, err
	}
	return d.dec.ReadInt64(bin.LE)
}

// ReadU128 reads the low half followed by the high half.
func (d *Decoder) ReadU128(field string) (Uint128, error) {
	if err := d.need(16, field); err != nil {
		return Uint128{}, err
	}
	lo, err := d.dec.ReadUint64(bin.LE)
	if err != nil {
		return Uint128{}, err
	}
	hi, err := d.dec.ReadUint64(bin.LE)
	if err != nil {
		return Uint128{}, err
	}
	return Uint128{Lo: lo, Hi: hi}, nil
}

// ReadBool reads a single byte; any non-zero value is true.
func (d *Decoder) ReadBool(field string) (bool, error) {
	b, err := d.ReadU8(field)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// ReadF64 reads an IEEE-754 little-endian float64.
func (d *Decoder) ReadF64(field string) (float64, error) {
	if err := d.need(8, field); err != nil {
		return 0, err
	}
	return d.dec.ReadFloat64(bin.LE)
}

// ReadPublicKey reads a 32-byte public key.
func (d *Decoder) ReadPublicKey(field string) (solana.PublicKey, error) {
	raw, err := d.ReadBytes(solana.PublicKeyLength, field)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBytes(raw), nil
}

// ReadBytes reads exactly n bytes.
func (d *Decoder) ReadBytes(n int, field string) ([]byte, error) {
	if err := d.need(n, field); err != nil {
		return nil, err
	}
	return d.dec.ReadNBytes(n)
}

// ReadLen reads a u32 vector length and verifies that count elements of elemSize bytes fit.
// elemSize of zero skips the fit check.
func (d *Decoder) ReadLen(elemSize int, field string) (int, error) {
	n, err := d.ReadU32(field)
	if err != nil {
		return 0, err
	}
	if elemSize > 0 {
		if err := d.need(int(n)*elemSize, field); err != nil {
			return 0, err
		}
	}
	return int(n), nil
}
