// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"time"

	"cloud.google.com/go/civil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney formats a dollar amount as en-US currency with no decimals.
// e.g., 1234.6 -> "$1,235", -50 -> "-$50"
func FormatMoney(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$0"
	}
	rounded := int64(math.Round(amount))
	if rounded < 0 {
		return "-$" + FormatNumber(-rounded)
	}
	return "$" + FormatNumber(rounded)
}

// FormatNumber adds locale group separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	return printer.Sprintf("%d", n)
}

// FormatPercent formats a percent value with two decimals, rounding
// halves away from zero so eighth-point rates like 6.125 show as 6.13%.
// Non-finite input renders as "0.00%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", math.Round(v*100)/100)
}

// FormatRatioPercent formats a 0-1 ratio as a percent.
func FormatRatioPercent(ratio float64) string {
	return FormatPercent(ratio * 100)
}

// FormatDelta formats a monthly payment difference with an explicit sign.
func FormatDelta(current, previous float64) string {
	delta := current - previous
	if delta >= 0 {
		return "+" + FormatMoney(delta)
	}
	return "-" + FormatMoney(-delta)
}

// FormatBps formats a basis point spread, or "N/A" when absent.
func FormatBps(bps *int) string {
	if bps == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d bps", *bps)
}

// FormatMonths formats a break-even horizon.
func FormatMonths(months int) string {
	switch {
	case months <= 0:
		return "N/A"
	case months == 1:
		return "1 month"
	default:
		return fmt.Sprintf("%d months", months)
	}
}

// FormatRateDate formats an observation date as "Jan 2, 2006".
func FormatRateDate(d civil.Date) string {
	if !d.IsValid() {
		return "Unknown"
	}
	return d.In(time.UTC).Format("Jan 2, 2006")
}

// FormatAge formats how long ago t was, in whole days.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	days := int(now.Sub(t).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
