// internal/program/amount.go
package program

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// ScaleAmount converts a token amount to integer base units:
// floor(amount * 10^decimals). The amount is taken at its shortest decimal
// representation so 0.29 scales to 290000000 rather than 289999999.
func ScaleAmount(amount float64, decimals uint8) (uint64, error) {
	if !(amount > 0) || math.IsInf(amount, 1) {
		return 0, fmt.Errorf("%w: %v must be a finite number greater than zero", ErrInvalidAmount, amount)
	}
	scaled := decimal.NewFromFloat(amount).Shift(int32(decimals)).Floor()
	if scaled.Sign() <= 0 {
		return 0, fmt.Errorf("%w: %v is below one base unit at %d decimals", ErrInvalidAmount, amount, decimals)
	}
	v := scaled.BigInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("%w: %v overflows u64 at %d decimals", ErrInvalidAmount, amount, decimals)
	}
	return v.Uint64(), nil
}

// UnscaleAmount converts base units back to a decimal token amount.
func UnscaleAmount(units uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0).Shift(-int32(decimals))
}

// FormatAmount renders base units with the given number of fraction digits.
func FormatAmount(units uint64, decimals uint8, places int32) string {
	return UnscaleAmount(units, decimals).StringFixed(places)
}
