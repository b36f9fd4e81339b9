package domain

import (
	"fmt"
	"strings"
)

// FormatCents renders an integer-cents amount as a decimal string for
// display. This is the only place cents become decimals.
func FormatCents(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}
