package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MinorUnitScale is the number of fractional digits of the ledger currency.
const MinorUnitScale int32 = 2

// MaxBalance is the largest balance the store can hold (DECIMAL(15,2)).
var MaxBalance = decimal.RequireFromString("9999999999999.99")

// IsQuantized reports whether amount has no digits below the minor unit.
func IsQuantized(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(MinorUnitScale))
}

// Quantize rounds amount half-to-even to the minor unit, the way the HTTP
// layer normalises user input before it reaches the engine.
func Quantize(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundBank(MinorUnitScale)
}

// ValidateAmount checks that amount is a positive, quantized value the store
// can represent.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount must be greater than zero, got %s", amount.String())
	}
	if !IsQuantized(amount) {
		return fmt.Errorf("amount %s has more than %d fractional digits", amount.String(), MinorUnitScale)
	}
	if amount.GreaterThan(MaxBalance) {
		return fmt.Errorf("amount %s exceeds the maximum of %s", amount.String(), MaxBalance.StringFixed(MinorUnitScale))
	}
	return nil
}
