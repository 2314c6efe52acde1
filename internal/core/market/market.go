// Package market fetches quotes from upstream providers and normalizes
// them for API responses. Quotes are cached briefly so bursts of portal
// traffic do not fan out to the providers.
package market

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// grouped is the magnitude at which prices gain thousands separators.
const grouped = 1000

// Placeholder is rendered when a symbol could not be quoted.
const Placeholder = "-"

var groupedPrinter = message.NewPrinter(language.English)

// FormatPrice renders a price with precision scaled to its magnitude:
// large prices get thousands separators, small prices keep more
// fractional digits.
func FormatPrice(price float64) string {
	abs := price
	if abs < 0 {
		abs = -abs
	}

	switch {
	case abs >= grouped:
		return groupedPrinter.Sprintf("%.2f", price)
	case abs >= 100:
		return fmt.Sprintf("%.2f", price)
	case abs >= 1:
		return fmt.Sprintf("%.3f", price)
	default:
		return fmt.Sprintf("%.4f", price)
	}
}

// FormatChange renders a signed change value.
func FormatChange(change float64) string {
	if change >= 0 {
		return "+" + FormatPrice(change)
	}
	return "-" + FormatPrice(-change)
}

// FormatChangePercent renders a signed percent change.
func FormatChangePercent(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("-%.2f%%", -pct)
}

// CurrencyFor infers the quote currency from the symbol suffix. Korean
// exchange listings (.KS, .KQ) trade in KRW; everything else defaults
// to USD.
func CurrencyFor(symbol string) string {
	upper := strings.ToUpper(symbol)
	if strings.HasSuffix(upper, ".KS") || strings.HasSuffix(upper, ".KQ") {
		return "KRW"
	}
	return "USD"
}
