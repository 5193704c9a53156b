package domain

import (
	"fmt"
	"math"
)

// Commission returns amountCents × ratePercent / 100 rounded half away from
// zero to the nearest cent.
func Commission(amountCents int64, ratePercent float64) int64 {
	return int64(math.Round(float64(amountCents) * ratePercent / 100))
}

// FormatCents renders cents as a two-decimal amount, e.g. 1050 -> "10.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// CentsFromAmount converts a decimal amount (e.g. 200.00) to cents.
func CentsFromAmount(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
