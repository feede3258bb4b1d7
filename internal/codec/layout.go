// internal/codec/layout.go
package codec

import (
	"bytes"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Kind identifies the wire type of a layout field.
type Kind uint8

const (
	KindU8 Kind = iota + 1
	KindU16
	KindU32
	KindU64
	KindI64
	KindU128
	KindBool
	KindF64
	KindPublicKey
	KindVec
)

var kindNames = map[Kind]string{
	KindU8:        "u8",
	KindU16:       "u16",
	KindU32:       "u32",
	KindU64:       "u64",
	KindI64:       "i64",
	KindU128:      "u128",
	KindBool:      "bool",
	KindF64:       "f64",
	KindPublicKey: "publicKey",
	KindVec:       "vec",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Size returns the fixed encoded width of k, or -1 for variable-length kinds.
func (k Kind) Size() int {
	switch k {
	case KindU8, KindBool:
		return 1
	case KindU16:
		return 2
	case KindU32:
		return 4
	case KindU64, KindI64, KindF64:
		return 8
	case KindU128:
		return 16
	case KindPublicKey:
		return solana.PublicKeyLength
	default:
		return -1
	}
}

// Field is one entry of a layout. Elem is set only for KindVec.
type Field struct {
	Name string
	Kind Kind
	Elem *Layout
}

// Layout is the declarative byte schema of one record type. Account layouts
// start with an 8-byte discriminator; element layouts have none.
type Layout struct {
	Name          string
	Discriminator []byte
	Fields        []Field
}

// NewAccountLayout declares an account record whose discriminator is derived
// from the account name.
func NewAccountLayout(name string, fields ...Field) *Layout {
	return &Layout{
		Name:          name,
		Discriminator: AccountDiscriminator(name),
		Fields:        fields,
	}
}

// NewStructLayout declares a nested record without a discriminator.
func NewStructLayout(name string, fields ...Field) *Layout {
	return &Layout{Name: name, Fields: fields}
}

// Size returns the total encoded size and true if every field has a fixed width.
func (l *Layout) Size() (int, bool) {
	size := len(l.Discriminator)
	for _, f := range l.Fields {
		n := f.Kind.Size()
		if n < 0 {
			return 0, false
		}
		size += n
	}
	return size, true
}

// Offset returns the byte offset of the named field. It fails if the field is
// unknown or preceded by a variable-length field.
func (l *Layout) Offset(name string) (int, error) {
	offset := len(l.Discriminator)
	for _, f := range l.Fields {
		if f.Name == name {
			return offset, nil
		}
		n := f.Kind.Size()
		if n < 0 {
			return 0, fmt.Errorf("%s.%s: offset follows variable-length field %s", l.Name, name, f.Name)
		}
		offset += n
	}
	return 0, fmt.Errorf("%s: unknown field %q", l.Name, name)
}

// Decode verifies the discriminator and decodes every field in declaration order.
func (l *Layout) Decode(data []byte) (Record, error) {
	d := NewDecoder(data)
	if len(l.Discriminator) > 0 {
		got, err := d.ReadBytes(len(l.Discriminator), l.Name+".discriminator")
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(got, l.Discriminator) {
			return nil, &WrongAccountTypeError{Layout: l.Name, Want: l.Discriminator, Got: got}
		}
	}
	return l.decodeFields(d)
}

func (l *Layout) decodeFields(d *Decoder) (Record, error) {
	rec := make(Record, len(l.Fields))
	for _, f := range l.Fields {
		v, err := l.decodeField(d, f)
		if err != nil {
			return nil, err
		}
		rec[f.Name] = v
	}
	return rec, nil
}

func (l *Layout) decodeField(d *Decoder, f Field) (any, error) {
	name := l.Name + "." + f.Name
	switch f.Kind {
	case KindU8:
		return d.ReadU8(name)
	case KindU16:
		return d.ReadU16(name)
	case KindU32:
		return d.ReadU32(name)
	case KindU64:
		return d.ReadU64(name)
	case KindI64:
		return d.ReadI64(name)
	case KindU128:
		return d.ReadU128(name)
	case KindBool:
		return d.ReadBool(name)
	case KindF64:
		return d.ReadF64(name)
	case KindPublicKey:
		return d.ReadPublicKey(name)
	case KindVec:
		if f.Elem == nil {
			return nil, fmt.Errorf("%w: %s has no element layout", ErrDecodeFailed, name)
		}
		elemSize, _ := f.Elem.Size()
		n, err := d.ReadLen(elemSize, name)
		if err != nil {
			return nil, err
		}
		// ReadLen cannot check variable-size elements.
		items := make([]Record, 0, min(n, d.Remaining()))
		for i := 0; i < n; i++ {
			item, err := f.Elem.decodeFields(d)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("%w: %s has unknown kind %s", ErrDecodeFailed, name, f.Kind)
	}
}

// Encode writes the discriminator and every field of rec in declaration order.
func (l *Layout) Encode(rec Record) ([]byte, error) {
	e := NewEncoder()
	if len(l.Discriminator) > 0 {
		e.WriteBytes(l.Discriminator)
	}
	if err := l.encodeFields(e, rec); err != nil {
		return nil, err
	}
	return e.Bytes()
}

func (l *Layout) encodeFields(e *Encoder, rec Record) error {
	for _, f := range l.Fields {
		v, ok := rec[f.Name]
		if !ok {
			return fmt.Errorf("%w: %s.%s missing", ErrDecodeFailed, l.Name, f.Name)
		}
		if err := l.encodeField(e, f, v); err != nil {
			return err
		}
	}
	return nil
}

func (l *Layout) encodeField(e *Encoder, f Field, v any) error {
	mismatch := func() error {
		return fmt.Errorf("%w: %s.%s expects %s, got %T", ErrDecodeFailed, l.Name, f.Name, f.Kind, v)
	}
	switch f.Kind {
	case KindU8:
		x, ok := v.(uint8)
		if !ok {
			return mismatch()
		}
		e.WriteU8(x)
	case KindU16:
		x, ok := v.(uint16)
		if !ok {
			return mismatch()
		}
		e.WriteU16(x)
	case KindU32:
		x, ok := v.(uint32)
		if !ok {
			return mismatch()
		}
		e.WriteU32(x)
	case KindU64:
		x, ok := v.(uint64)
		if !ok {
			return mismatch()
		}
		e.WriteU64(x)
	case KindI64:
		x, ok := v.(int64)
		if !ok {
			return mismatch()
		}
		e.WriteI64(x)
	case KindU128:
		x, ok := v.(Uint128)
		if !ok {
			return mismatch()
		}
		e.WriteU128(x)
	case KindBool:
		x, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		e.WriteBool(x)
	case KindF64:
		x, ok := v.(float64)
		if !ok {
			return mismatch()
		}
		e.WriteF64(x)
	case KindPublicKey:
		x, ok := v.(solana.PublicKey)
		if !ok {
			return mismatch()
		}
		e.WritePublicKey(x)
	case KindVec:
		items, ok := v.([]Record)
		if !ok || f.Elem == nil {
			return mismatch()
		}
		e.WriteU32(uint32(len(items)))
		for _, item := range items {
			if err := f.Elem.encodeFields(e, item); err != nil {
				return err
			}
		}
	default:
		return mismatch()
	}
	return nil
}
