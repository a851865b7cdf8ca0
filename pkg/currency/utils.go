package currency

import (
	"fmt"
	"math"
)

type CurrencyUtils struct{}

func NewCurrencyUtils() *CurrencyUtils {
	return &CurrencyUtils{}
}

// BankersRound converts a dollar value to cents with banker's rounding.
func (u *CurrencyUtils) BankersRound(value float64) int64 {
	cents := value * 100
	rounded := math.Round(cents)

	// Exactly halfway between two integers: round to nearest even.
	if math.Abs(cents-rounded) == 0.5 {
		if int64(rounded)%2 == 0 {
			return int64(rounded)
		}
		return int64(rounded) - 1
	}

	return int64(math.Round(cents))
}

// DollarsToCents converts a user-supplied dollar amount to ledger cents.
// Non-finite input maps to a non-positive value so amount validation rejects it.
func (u *CurrencyUtils) DollarsToCents(dollars float64) int64 {
	if math.IsNaN(dollars) || math.IsInf(dollars, 0) {
		return -1
	}
	return u.BankersRound(dollars)
}

// CentsToDollars converts cents to dollars for display.
func (u *CurrencyUtils) CentsToDollars(cents int64) float64 {
	return float64(cents) / 100.0
}

// FormatUSD formats cents as USD string.
func (u *CurrencyUtils) FormatUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", u.CentsToDollars(cents))
}
