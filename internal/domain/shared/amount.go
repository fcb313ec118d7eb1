package shared

import (
	"github.com/shopspring/decimal"
)

// Monetary columns are DECIMAL(20,6): amounts must fit without rounding.
const (
	AmountScale         = 6
	AmountIntegerDigits = 14
)

// MaxAmount is the exclusive upper bound of any stored amount or running total
var MaxAmount = decimal.New(1, AmountIntegerDigits)

// ValidateAmount checks that amount is positive, has at most AmountScale
// fractional digits and stays below MaxAmount. field names the value in the message.
func ValidateAmount(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field + " must be greater than zero")
	}
	if !HasStorableScale(amount) {
		return NewValidationError(field + " supports at most 6 decimal places")
	}
	if amount.GreaterThanOrEqual(MaxAmount) {
		return NewValidationError(field + " must be less than " + MaxAmount.String())
	}
	return nil
}

// ValidateTotal rejects a running total the store cannot hold
func ValidateTotal(field string, total decimal.Decimal) error {
	if total.GreaterThanOrEqual(MaxAmount) {
		return NewValidationError(field + " would exceed " + MaxAmount.String())
	}
	return nil
}

// HasStorableScale reports whether amount survives the store without rounding.
// Trailing zeros are fine: 1.50000000 is stored exactly.
func HasStorableScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(AmountScale))
}
