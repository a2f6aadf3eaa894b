package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
)

// NormalizeCurrencyCode upper-cases and trims a currency code.
func NormalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCurrencyCode checks that code is a known ISO-4217 currency.
func ValidateCurrencyCode(code string) error {
	normalized := NormalizeCurrencyCode(code)
	if len(normalized) != 3 || money.GetCurrency(normalized) == nil {
		return &apperrors.InvalidCurrencyError{Code: code}
	}
	return nil
}

// CurrencyPrecision returns the number of minor-unit digits of a currency (2 for USD, 0 for JPY).
// Unknown codes fall back to 2.
func CurrencyPrecision(code string) int32 {
	cur := money.GetCurrency(NormalizeCurrencyCode(code))
	if cur == nil {
		return 2
	}
	return int32(cur.Fraction)
}

// RoundToMinorUnit rounds amount to the currency's minor unit, for display only.
func RoundToMinorUnit(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Round(CurrencyPrecision(code))
}
