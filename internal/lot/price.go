package lot

import (
	"fmt"
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/lotnotify/lotbridge/internal/model"
)

// dropThreshold suppresses drop indicators caused by rounding noise;
// a decrease must exceed 0.05% of the previous price to be shown.
const dropThreshold = 0.05

var moneyPrinter = message.NewPrinter(language.AmericanEnglish)

// Money formats a raw numeric value as a dollar amount with thousands
// grouping, rounded to the nearest whole unit: "1234.6" -> "$1,235".
// Empty or non-numeric input yields "".
func Money(raw string) string {
	n, ok := toNumber(raw)
	if !ok {
		return ""
	}
	return "$" + Thousands(strconv.FormatFloat(n, 'f', -1, 64))
}

// Thousands renders a raw numeric value with en-US grouping and no
// currency sign, rounded to the nearest integer: "45231" -> "45,231".
func Thousands(raw string) string {
	n, ok := toNumber(raw)
	if !ok {
		return ""
	}
	return moneyPrinter.Sprintf("%d", int64(math.Round(n)))
}

func toNumber(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// ResolvePrice computes the canonical price line from the previous and
// current prices, each either empty or numeric-coercible.
//
// Both absent yields the literal "n/a". A single price is formatted alone.
// With both present the line reads "$<previous> => $<current>", and a drop
// indicator is appended only when the price meaningfully decreased; price
// increases are never flagged.
func ResolvePrice(previous, current string) model.PriceSummary {
	sum := model.PriceSummary{
		Previous: Money(previous),
		Current:  Money(current),
	}

	switch {
	case sum.Previous == "" && sum.Current == "":
		sum.Line = "n/a"
	case sum.Previous == "":
		sum.Line = sum.Current
	case sum.Current == "":
		sum.Line = sum.Previous
	default:
		sum.Line = sum.Previous + " => " + sum.Current

		prevN, _ := toNumber(previous)
		curN, _ := toNumber(current)
		if prevN > 0 {
			pct := (prevN - curN) / prevN * 100
			if pct > dropThreshold {
				sum.HasDrop = true
				sum.DropPercent = math.Round(pct*10) / 10
				sum.Line += fmt.Sprintf("  🔻%.1f%%", pct)
			}
		}
	}

	return sum
}
