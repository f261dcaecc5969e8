package models

import "github.com/shopspring/decimal"

// maxMoneyIntegerDigits matches the NUMERIC(20,2) money columns.
const maxMoneyIntegerDigits = 18

// ValidMoney reports whether d fits a money column: at most two decimal
// places and at most eighteen integer digits.
func ValidMoney(d decimal.Decimal) bool {
	if !d.Equal(d.Round(2)) {
		return false
	}
	return len(d.Abs().Truncate(0).String()) <= maxMoneyIntegerDigits
}

// FormatMoney renders d with exactly two decimal places.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
