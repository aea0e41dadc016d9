package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/andresuchdata/storepulse/backend-go/internal/analytics"
)

// NotApplicable is shown where a metric has no defined value.
const NotApplicable = "—"

// roundFloat rounds v to the given number of decimal places.
func roundFloat(v float64, decimals int) float64 {
	if decimals <= 0 {
		return math.Round(v)
	}

	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}

// formatNumber renders v with comma thousands separators and a fixed
// number of decimals. Rounding happens here and nowhere earlier.
// Example: 1234.5 (1 decimal) => "1,234.5"; 999.6 (0) => "1,000".
func formatNumber(v float64, decimals int) string {
	if decimals < 0 {
		decimals = 0
	}
	v = roundFloat(v, decimals)

	s := strconv.FormatFloat(math.Abs(v), 'f', decimals, 64)
	intPart, fracPart, _ := strings.Cut(s, ".")

	if len(intPart) > 3 {
		var buf []byte
		count := 0
		for i := len(intPart) - 1; i >= 0; i-- {
			buf = append(buf, intPart[i])
			count++
			if count == 3 && i != 0 {
				buf = append(buf, ',')
				count = 0
			}
		}
		// reverse buf
		for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
			buf[i], buf[j] = buf[j], buf[i]
		}
		intPart = string(buf)
	}

	prefix := ""
	if v < 0 {
		prefix = "-"
	}
	if fracPart == "" {
		return prefix + intPart
	}
	return fmt.Sprintf("%s%s.%s", prefix, intPart, fracPart)
}

// Amount formats money and counts rounded to whole units.
func Amount(v float64) string { return formatNumber(v, 0) }

// Percent formats a percentage with one decimal.
func Percent(v float64) string { return formatNumber(v, 1) + "%" }

// GrowthCell renders year-over-year growth, or NotApplicable on a zero base.
func GrowthCell(current, base float64) string {
	pct, ok := analytics.Growth(current, base)
	if !ok {
		return NotApplicable
	}
	if pct > 0 {
		return "+" + Percent(pct)
	}
	return Percent(pct)
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
