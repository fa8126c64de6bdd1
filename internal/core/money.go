// Package core provides money parsing and handling utilities.
//
// Amounts are decimal.Decimal values with two fractional digits. Storage keeps
// them as integer cents so sums computed by the database stay exact.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.New(999999999999, -2)
)

// ParseAmount converts a decimal string to an amount rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. Zero, negative or malformed
// input returns ErrInvalidAmount.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return NormalizeAmount(d)
}

// NormalizeAmount rounds d to cents and checks it is a valid positive amount.
func NormalizeAmount(d decimal.Decimal) (decimal.Decimal, error) {
	d = d.Round(2)
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount reports whether d is a positive amount that fits the ledger columns.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if d.GreaterThan(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// ToCents converts an amount to integer minor units, rounding half away from zero.
func ToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

// FromCents converts integer minor units back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// Signed returns +amount for income and -amount for expense.
func Signed(amount decimal.Decimal, t TransactionType) decimal.Decimal {
	if t == Expense {
		return amount.Neg()
	}
	return amount
}

// PercentOf returns part/whole*100 rounded to two places, or 0 when whole is not positive.
func PercentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Mul(hundred).Div(whole).Round(2).InexactFloat64()
}
