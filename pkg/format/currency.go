// Package format renders money and ratios for explanation sentences.
package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Currency renders an amount in dollars with cents and thousands
// separators, e.g. -1234.565 -> "-$1,234.57". Cents round half away from
// zero, matching mathutil.Round.
func Currency(amount float64) string {
	d := decimal.NewFromFloat(amount)
	if d.IsNegative() {
		return "-$" + groupThousands(d.Abs().StringFixed(2))
	}
	return "$" + groupThousands(d.StringFixed(2))
}

// Percent renders a ratio as a percentage with the given decimals (0.114 -> "11.4%").
func Percent(ratio float64, decimals int) string {
	return fmt.Sprintf("%.*f%%", decimals, ratio*100)
}

// SignedPercent renders a ratio as a percentage with an explicit sign (-0.114 -> "-11.4%").
func SignedPercent(ratio float64, decimals int) string {
	return fmt.Sprintf("%+.*f%%", decimals, ratio*100)
}

// groupThousands inserts commas into the integer part of an unsigned
// fixed-point string.
func groupThousands(fixed string) string {
	whole, cents, _ := strings.Cut(fixed, ".")
	if len(whole) <= 3 {
		return fixed
	}
	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	if cents != "" {
		b.WriteByte('.')
		b.WriteString(cents)
	}
	return b.String()
}
