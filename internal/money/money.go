// Package money holds the decimal helpers every balance computation goes through.
// Amounts are shopspring decimals; anything below one minor unit is treated as zero.
package money

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
)

// Places is the number of minor-unit digits of the ledger currency.
const Places = 2

// Epsilon is the smallest amount that is not negligible.
var Epsilon = decimal.New(1, -Places)

// Round2 rounds x to the currency's minor unit (half away from zero).
func Round2(x decimal.Decimal) decimal.Decimal {
	return x.Round(Places)
}

// IsNegligible reports whether |x| < 0.01.
func IsNegligible(x decimal.Decimal) bool {
	return x.Abs().LessThan(Epsilon)
}

// Snap returns exactly zero for negligible values and x otherwise.
func Snap(x decimal.Decimal) decimal.Decimal {
	if IsNegligible(x) {
		return decimal.Zero
	}
	return x
}

// MaxIntegerDigits bounds the integer part of any amount the ledger accepts.
const MaxIntegerDigits = 15

// maxScale bounds the exponent accepted on input, so "12.5000" passes but a
// thousand-digit fraction is refused before it is ever rescaled.
const maxScale = 18

// CheckRange fails with ErrInvalidAmount when x has more than
// MaxIntegerDigits integer digits or an absurd fractional exponent.
// It never formats x, so it is safe on values like 1e200000000.
func CheckRange(x decimal.Decimal) error {
	exp := int64(x.Exponent())
	if exp < -maxScale {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount has too many decimal places")
	}
	if int64(x.NumDigits())+exp > MaxIntegerDigits {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount is too large")
	}
	return nil
}

// ValidateAmount fails with ErrInvalidAmount unless x is strictly positive,
// within CheckRange and a whole number of minor units.
func ValidateAmount(x decimal.Decimal) error {
	if err := CheckRange(x); err != nil {
		return err
	}
	if !x.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero, got "+x.String())
	}
	if !x.Equal(x.Truncate(Places)) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount has more than 2 decimal places, got "+x.String())
	}
	return nil
}

// ParseAmount parses a user-supplied amount and validates it.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInvalidAmount, err)
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Sum adds xs.
func Sum(xs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, x := range xs {
		total = total.Add(x)
	}
	return total
}
