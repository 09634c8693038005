package chain

import (
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	coreerr "github.com/mrz1836/chaincore/pkg/errors"
)

// ParseDecimalAmount parses a decimal amount string to base units with the given decimal places.
// For example, "1.5" with 18 decimals returns 1500000000000000000.
// Digits beyond the precision of the asset are truncated.
func ParseDecimalAmount(amount string, decimalPlaces int32) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{"amount": amount})
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, coreerr.WithDetails(coreerr.WithCause(coreerr.ErrInvalidAmount, err), map[string]string{"amount": amount})
	}
	if d.IsNegative() {
		return nil, coreerr.WithDetails(coreerr.ErrInvalidAmount, map[string]string{"amount": amount})
	}

	return d.Shift(decimalPlaces).Truncate(0).BigInt(), nil
}

// FormatDecimalAmount converts base units to a human-readable string with the given decimal places.
// Trailing zeros after the decimal point are removed.
// For example, 1500000000000000000 with 18 decimals returns "1.5".
func FormatDecimalAmount(amount *big.Int, decimalPlaces int32) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -decimalPlaces).String()
}

// ParseBaseUnits parses an integer string in base units.
func ParseBaseUnits(value string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}
