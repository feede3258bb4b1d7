// internal/codec/errors.go
package codec

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferUnderrun is returned when a field does not fit in the remaining bytes.
	ErrBufferUnderrun = errors.New("buffer underrun")
	// ErrWrongAccountType is returned when the account discriminator does not match the layout.
	ErrWrongAccountType = errors.New("wrong account type")
	// ErrDecodeFailed is returned when a decoded record does not have the expected shape.
	ErrDecodeFailed = errors.New("decode failed")
)

// UnderrunError describes where a read ran past the end of the buffer.
type UnderrunError struct {
	Field  string
	Offset int
	Need   int
	Have   int
}

func (e *UnderrunError) Error() string {
	return fmt.Sprintf("buffer underrun reading %s at offset %d: need %d bytes, have %d",
		e.Field, e.Offset, e.Need, e.Have)
}

func (e *UnderrunError) Unwrap() error {
	return ErrBufferUnderrun
}

// WrongAccountTypeError carries the expected and actual discriminators.
type WrongAccountTypeError struct {
	Layout string
	Want   []byte
	Got    []byte
}

func (e *WrongAccountTypeError) Error() string {
	return fmt.Sprintf("wrong account type: expected %s discriminator %v, got %v", e.Layout, e.Want, e.Got)
}

func (e *WrongAccountTypeError) Unwrap() error {
	return ErrWrongAccountType
}

// IsBufferUnderrun reports whether err was caused by a short buffer.
func IsBufferUnderrun(err error) bool {
	return errors.Is(err, ErrBufferUnderrun)
}

// IsWrongAccountType reports whether err was caused by a discriminator mismatch.
func IsWrongAccountType(err error) bool {
	return errors.Is(err, ErrWrongAccountType)
}
